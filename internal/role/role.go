package role

import (
	"time"

	roleDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/role"
	"github.com/frahmantamala/pos-helpdesk/internal/permission"
)

// Flags mirrors the twenty 0/1 columns of a rules row. Nil means the column
// was never set for the role.
type Flags struct {
	AddUser    *int `json:"add_user_status"`
	EditUser   *int `json:"edit_user_status"`
	DeleteUser *int `json:"delete_user_status"`
	ListUser   *int `json:"list_user_status"`

	AddTicket        *int `json:"add_ticket_status"`
	EditTicket       *int `json:"edit_ticket_status"`
	DeleteTicket     *int `json:"delete_ticket_status"`
	ListTicket       *int `json:"list_ticket_status"`
	ListTicketAssign *int `json:"list_ticket_assign_status"`

	AddStation    *int `json:"add_station_status"`
	EditStation   *int `json:"edit_station_status"`
	DeleteStation *int `json:"delete_station_status"`
	ListStation   *int `json:"list_station_status"`

	AddUserRules    *int `json:"add_user_rules_status"`
	EditUserRules   *int `json:"edit_user_rules_status"`
	DeleteUserRules *int `json:"delete_user_rules_status"`
	ListUserRules   *int `json:"list_user_rules_status"`

	ListDashboard *int `json:"list_dashboard"`
	ListTrack     *int `json:"list_track"`
	ListReport    *int `json:"list_report"`
}

type namedFlag struct {
	name  string
	value *int
}

func (f Flags) named() []namedFlag {
	return []namedFlag{
		{"add_user_status", f.AddUser},
		{"edit_user_status", f.EditUser},
		{"delete_user_status", f.DeleteUser},
		{"list_user_status", f.ListUser},
		{"add_ticket_status", f.AddTicket},
		{"edit_ticket_status", f.EditTicket},
		{"delete_ticket_status", f.DeleteTicket},
		{"list_ticket_status", f.ListTicket},
		{"list_ticket_assign_status", f.ListTicketAssign},
		{"add_station_status", f.AddStation},
		{"edit_station_status", f.EditStation},
		{"delete_station_status", f.DeleteStation},
		{"list_station_status", f.ListStation},
		{"add_user_rules_status", f.AddUserRules},
		{"edit_user_rules_status", f.EditUserRules},
		{"delete_user_rules_status", f.DeleteUserRules},
		{"list_user_rules_status", f.ListUserRules},
		{"list_dashboard", f.ListDashboard},
		{"list_track", f.ListTrack},
		{"list_report", f.ListReport},
	}
}

type Role struct {
	ID      int64  `json:"rules_id"`
	Name    string `json:"rules_name"`
	IsAdmin *bool  `json:"is_admin,omitempty"`
	Version int64  `json:"version"`
	Flags
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is the input the permission resolver works on.
func (r *Role) Record() permission.Record {
	return RecordFromDataModel(ToDataModel(r))
}

// RecordFromDataModel lets other packages resolve permissions straight from
// a rules row.
func RecordFromDataModel(r *roleDatamodel.Rule) permission.Record {
	return permission.Record{
		RoleID:           r.ID,
		Version:          r.Version,
		IsAdmin:          r.IsAdmin,
		AddUser:          r.AddUserStatus,
		EditUser:         r.EditUserStatus,
		DeleteUser:       r.DeleteUserStatus,
		ListUser:         r.ListUserStatus,
		AddTicket:        r.AddTicketStatus,
		EditTicket:       r.EditTicketStatus,
		DeleteTicket:     r.DeleteTicketStatus,
		ListTicket:       r.ListTicketStatus,
		ListTicketAssign: r.ListTicketAssignStatus,
		AddStation:       r.AddStationStatus,
		EditStation:      r.EditStationStatus,
		DeleteStation:    r.DeleteStationStatus,
		ListStation:      r.ListStationStatus,
		AddUserRules:     r.AddUserRulesStatus,
		EditUserRules:    r.EditUserRulesStatus,
		DeleteUserRules:  r.DeleteUserRulesStatus,
		ListUserRules:    r.ListUserRulesStatus,
		ListDashboard:    r.ListDashboard,
		ListTrack:        r.ListTrack,
		ListReport:       r.ListReport,
	}
}

func ToDataModel(r *Role) *roleDatamodel.Rule {
	return &roleDatamodel.Rule{
		ID:                     r.ID,
		Name:                   r.Name,
		IsAdmin:                r.IsAdmin,
		Version:                r.Version,
		AddUserStatus:          r.AddUser,
		EditUserStatus:         r.EditUser,
		DeleteUserStatus:       r.DeleteUser,
		ListUserStatus:         r.ListUser,
		AddTicketStatus:        r.AddTicket,
		EditTicketStatus:       r.EditTicket,
		DeleteTicketStatus:     r.DeleteTicket,
		ListTicketStatus:       r.ListTicket,
		ListTicketAssignStatus: r.ListTicketAssign,
		AddStationStatus:       r.AddStation,
		EditStationStatus:      r.EditStation,
		DeleteStationStatus:    r.DeleteStation,
		ListStationStatus:      r.ListStation,
		AddUserRulesStatus:     r.AddUserRules,
		EditUserRulesStatus:    r.EditUserRules,
		DeleteUserRulesStatus:  r.DeleteUserRules,
		ListUserRulesStatus:    r.ListUserRules,
		ListDashboard:          r.ListDashboard,
		ListTrack:              r.ListTrack,
		ListReport:             r.ListReport,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

func FromDataModel(r *roleDatamodel.Rule) *Role {
	return &Role{
		ID:      r.ID,
		Name:    r.Name,
		IsAdmin: r.IsAdmin,
		Version: r.Version,
		Flags: Flags{
			AddUser:          r.AddUserStatus,
			EditUser:         r.EditUserStatus,
			DeleteUser:       r.DeleteUserStatus,
			ListUser:         r.ListUserStatus,
			AddTicket:        r.AddTicketStatus,
			EditTicket:       r.EditTicketStatus,
			DeleteTicket:     r.DeleteTicketStatus,
			ListTicket:       r.ListTicketStatus,
			ListTicketAssign: r.ListTicketAssignStatus,
			AddStation:       r.AddStationStatus,
			EditStation:      r.EditStationStatus,
			DeleteStation:    r.DeleteStationStatus,
			ListStation:      r.ListStationStatus,
			AddUserRules:     r.AddUserRulesStatus,
			EditUserRules:    r.EditUserRulesStatus,
			DeleteUserRules:  r.DeleteUserRulesStatus,
			ListUserRules:    r.ListUserRulesStatus,
			ListDashboard:    r.ListDashboard,
			ListTrack:        r.ListTrack,
			ListReport:       r.ListReport,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
