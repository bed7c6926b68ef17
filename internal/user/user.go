package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/user"
)

// User represents the internal user model
type User struct {
	ID           int64     `json:"users_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Company      *string   `json:"company,omitempty"`
	Image        *string   `json:"image,omitempty"`
	PasswordHash string    `json:"-"` // Never expose password hash
	RoleID       int64     `json:"rules_id"`
	RoleName     string    `json:"rules_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Company:      u.Company,
		Image:        u.Image,
		PasswordHash: u.PasswordHash,
		RoleID:       u.RoleID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Company:      u.Company,
		Image:        u.Image,
		PasswordHash: u.PasswordHash,
		RoleID:       u.RoleID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromRow(r *userDatamodel.UserRow) *User {
	u := FromDataModel(&r.User)
	if r.RoleName != nil {
		u.RoleName = *r.RoleName
	}
	return u
}
