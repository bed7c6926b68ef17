package user

import (
	"strings"

	"github.com/frahmantamala/pos-helpdesk/internal/core/common/validation"
	"github.com/frahmantamala/pos-helpdesk/internal/permission"
	"github.com/frahmantamala/pos-helpdesk/internal/role"
)

const minPasswordLength = 8

type CreateUserDTO struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Company  *string `json:"company,omitempty"`
	RoleID   int64   `json:"rules_id"`
}

func (d *CreateUserDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("email", d.Email).Required().Email().MaxLength(255)
	v.Field("password", d.Password).Required().MinLength(minPasswordLength)
	v.Field("company", d.Company).MaxLength(150)
	v.Field("rules_id", d.RoleID).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateUserDTO leaves the password unchanged when it is omitted.
type UpdateUserDTO struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password *string `json:"password,omitempty"`
	Company  *string `json:"company,omitempty"`
	RoleID   int64   `json:"rules_id"`
}

func (d *UpdateUserDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

func (d UpdateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("email", d.Email).Required().Email().MaxLength(255)
	if d.Password != nil {
		v.Field("password", *d.Password).MinLength(minPasswordLength)
	}
	v.Field("company", d.Company).MaxLength(150)
	v.Field("rules_id", d.RoleID).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UsersResponse struct {
	Users []*User `json:"users"`
}

// MeResponse is what the client loads right after login to decide which
// screens and actions to show.
type MeResponse struct {
	User        *User                  `json:"user"`
	Role        *role.Role             `json:"role"`
	Permissions permission.Permissions `json:"permissions"`
}
