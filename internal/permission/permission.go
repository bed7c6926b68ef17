package permission

import "fmt"

// LegacyAdminRoleID is the role id that older data treats as administrator
// when the role carries no explicit is_admin flag.
const LegacyAdminRoleID int64 = 1461

type Resource string

const (
	ResourceUsers     Resource = "users"
	ResourceTickets   Resource = "tickets"
	ResourceStations  Resource = "stations"
	ResourceUserRules Resource = "userRules"
	ResourceSidebar   Resource = "sidebar"
)

type Action string

const (
	ActionAdd           Action = "add"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionList          Action = "list"
	ActionListAssign    Action = "listAssign"
	ActionListDashboard Action = "listDashboard"
	ActionListTrack     Action = "listTrack"
	ActionListReport    Action = "listReport"
)

type Actions struct {
	Add    bool `json:"add"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
	List   bool `json:"list"`
}

type TicketActions struct {
	Actions
	ListAssign bool `json:"listAssign"`
}

type Sidebar struct {
	ListDashboard bool `json:"listDashboard"`
	ListTrack     bool `json:"listTrack"`
	ListReport    bool `json:"listReport"`
}

// Permissions is the resolved, fixed-shape capability set of a role.
type Permissions struct {
	Users     Actions       `json:"users"`
	Tickets   TicketActions `json:"tickets"`
	Stations  Actions       `json:"stations"`
	UserRules Actions       `json:"userRules"`
	Sidebar   Sidebar       `json:"sidebar"`
	IsAdmin   bool          `json:"is_admin"`
}

// Record is a role row as stored: 0/1 integer flags, any of which may be NULL.
type Record struct {
	RoleID  int64
	Version int64
	IsAdmin *bool

	AddUser    *int
	EditUser   *int
	DeleteUser *int
	ListUser   *int

	AddTicket        *int
	EditTicket       *int
	DeleteTicket     *int
	ListTicket       *int
	ListTicketAssign *int

	AddStation    *int
	EditStation   *int
	DeleteStation *int
	ListStation   *int

	AddUserRules    *int
	EditUserRules   *int
	DeleteUserRules *int
	ListUserRules   *int

	ListDashboard *int
	ListTrack     *int
	ListReport    *int
}

// Can reports whether the permission set allows action on resource.
// Unknown pairs are denied.
func (p Permissions) Can(resource Resource, action Action) bool {
	switch resource {
	case ResourceUsers:
		return p.Users.allows(action)
	case ResourceStations:
		return p.Stations.allows(action)
	case ResourceUserRules:
		return p.UserRules.allows(action)
	case ResourceTickets:
		if action == ActionListAssign {
			return p.Tickets.ListAssign
		}
		return p.Tickets.Actions.allows(action)
	case ResourceSidebar:
		switch action {
		case ActionListDashboard:
			return p.Sidebar.ListDashboard
		case ActionListTrack:
			return p.Sidebar.ListTrack
		case ActionListReport:
			return p.Sidebar.ListReport
		}
	}
	return false
}

func (a Actions) allows(action Action) bool {
	switch action {
	case ActionAdd:
		return a.Add
	case ActionEdit:
		return a.Edit
	case ActionDelete:
		return a.Delete
	case ActionList:
		return a.List
	}
	return false
}

var resourceNouns = map[Resource]string{
	ResourceUsers:     "users",
	ResourceTickets:   "tickets",
	ResourceStations:  "stations",
	ResourceUserRules: "user rules",
}

var sidebarNouns = map[Action]string{
	ActionListDashboard: "the dashboard",
	ActionListTrack:     "ticket tracking",
	ActionListReport:    "reports",
}

// DeniedMessage is the user facing text shown in place of a denied resource.
func DeniedMessage(resource Resource, action Action) string {
	if resource == ResourceSidebar {
		noun, ok := sidebarNouns[action]
		if !ok {
			noun = "this page"
		}
		return fmt.Sprintf("You do not have permission to view %s.", noun)
	}

	noun, ok := resourceNouns[resource]
	if !ok {
		noun = string(resource)
	}

	switch action {
	case ActionAdd:
		return fmt.Sprintf("You do not have permission to add %s.", noun)
	case ActionEdit:
		return fmt.Sprintf("You do not have permission to edit %s.", noun)
	case ActionDelete:
		return fmt.Sprintf("You do not have permission to delete %s.", noun)
	case ActionListAssign:
		return fmt.Sprintf("You do not have permission to assign %s.", noun)
	default:
		return fmt.Sprintf("You do not have permission to view %s.", noun)
	}
}
