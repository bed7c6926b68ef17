package role

import "time"

// Rule is a row of the legacy "rules" table. Flags are 0/1 integers and may
// be NULL on rows created before a column existed.
type Rule struct {
	ID      int64  `gorm:"column:rules_id;primaryKey"`
	Name    string `gorm:"column:rules_name;not null"`
	IsAdmin *bool  `gorm:"column:is_admin"`
	Version int64  `gorm:"column:version;not null;default:1"`

	AddUserStatus    *int `gorm:"column:add_user_status"`
	EditUserStatus   *int `gorm:"column:edit_user_status"`
	DeleteUserStatus *int `gorm:"column:delete_user_status"`
	ListUserStatus   *int `gorm:"column:list_user_status"`

	AddTicketStatus        *int `gorm:"column:add_ticket_status"`
	EditTicketStatus       *int `gorm:"column:edit_ticket_status"`
	DeleteTicketStatus     *int `gorm:"column:delete_ticket_status"`
	ListTicketStatus       *int `gorm:"column:list_ticket_status"`
	ListTicketAssignStatus *int `gorm:"column:list_ticket_assign_status"`

	AddStationStatus    *int `gorm:"column:add_station_status"`
	EditStationStatus   *int `gorm:"column:edit_station_status"`
	DeleteStationStatus *int `gorm:"column:delete_station_status"`
	ListStationStatus   *int `gorm:"column:list_station_status"`

	AddUserRulesStatus    *int `gorm:"column:add_user_rules_status"`
	EditUserRulesStatus   *int `gorm:"column:edit_user_rules_status"`
	DeleteUserRulesStatus *int `gorm:"column:delete_user_rules_status"`
	ListUserRulesStatus   *int `gorm:"column:list_user_rules_status"`

	ListDashboard *int `gorm:"column:list_dashboard"`
	ListTrack     *int `gorm:"column:list_track"`
	ListReport    *int `gorm:"column:list_report"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Rule) TableName() string { return "rules" }
