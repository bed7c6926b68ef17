package permission

// Resolver turns role records into Permissions. AdminRoleID is the legacy
// role id honoured when a role has no explicit is_admin value.
type Resolver struct {
	AdminRoleID int64
}

func NewResolver(adminRoleID int64) Resolver {
	if adminRoleID == 0 {
		adminRoleID = LegacyAdminRoleID
	}
	return Resolver{AdminRoleID: adminRoleID}
}

// Resolve uses the legacy admin role id.
func Resolve(rec Record) Permissions {
	return NewResolver(LegacyAdminRoleID).Resolve(rec)
}

func (r Resolver) Resolve(rec Record) Permissions {
	tickets := category(rec.AddTicket, rec.EditTicket, rec.DeleteTicket, rec.ListTicket)

	return Permissions{
		Users: category(rec.AddUser, rec.EditUser, rec.DeleteUser, rec.ListUser),
		Tickets: TicketActions{
			Actions:    tickets,
			ListAssign: tickets.List && flag(rec.ListTicketAssign),
		},
		Stations:  category(rec.AddStation, rec.EditStation, rec.DeleteStation, rec.ListStation),
		UserRules: category(rec.AddUserRules, rec.EditUserRules, rec.DeleteUserRules, rec.ListUserRules),
		Sidebar: Sidebar{
			ListDashboard: flagDefaultTrue(rec.ListDashboard),
			ListTrack:     flagDefaultTrue(rec.ListTrack),
			ListReport:    flagDefaultTrue(rec.ListReport),
		},
		IsAdmin: r.isAdmin(rec),
	}
}

func (r Resolver) isAdmin(rec Record) bool {
	if rec.IsAdmin != nil {
		return *rec.IsAdmin
	}
	return rec.RoleID == r.AdminRoleID
}

// category applies the list gate: without list, no other action survives.
func category(add, edit, del, list *int) Actions {
	if !flag(list) {
		return Actions{}
	}
	return Actions{
		Add:    flag(add),
		Edit:   flag(edit),
		Delete: flag(del),
		List:   true,
	}
}

func flag(v *int) bool {
	return v != nil && *v != 0
}

// flagDefaultTrue covers the sidebar columns that older roles do not have.
func flagDefaultTrue(v *int) bool {
	return v == nil || *v != 0
}
