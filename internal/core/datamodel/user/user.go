package user

import "time"

type User struct {
	ID           int64     `gorm:"column:users_id;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Company      *string   `gorm:"column:company"`
	Image        *string   `gorm:"column:image"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	RoleID       int64     `gorm:"column:rules_id;not null;index"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// UserRow is a user joined with the name of its role.
type UserRow struct {
	User
	RoleName *string `gorm:"column:rules_name"`
}
