package alert

import "time"

type Log struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	TicketID  *int64    `gorm:"column:ticket_id;index"`
	Platform  string    `gorm:"column:platform;not null"`
	Recipient string    `gorm:"column:recipient;not null"`
	Subject   string    `gorm:"column:subject"`
	Message   string    `gorm:"column:message;not null"`
	Status    string    `gorm:"column:status;not null;index"`
	Attempts  int       `gorm:"column:attempts;not null;default:0"`
	LastError *string   `gorm:"column:last_error"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Log) TableName() string { return "alert_logs" }

type TelegramGroup struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	ChatID    int64     `gorm:"column:chat_id;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TelegramGroup) TableName() string { return "telegram_groups" }

type UserGroup struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	UserID    int64     `gorm:"column:users_id;not null;uniqueIndex:idx_user_group"`
	GroupID   int64     `gorm:"column:group_id;not null;uniqueIndex:idx_user_group"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserGroup) TableName() string { return "user_groups" }
