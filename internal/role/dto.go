package role

import (
	"fmt"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	"github.com/frahmantamala/pos-helpdesk/internal/core/common/validation"
	"github.com/frahmantamala/pos-helpdesk/internal/permission"
)

type RoleDTO struct {
	Name    string `json:"rules_name"`
	IsAdmin *bool  `json:"is_admin,omitempty"`
	Flags
}

func (d RoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("rules_name", d.Name).Required().MaxLength(100)

	for _, f := range d.named() {
		v.Field(f.name, f.value).Custom(flagValue(f.name))
	}

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func flagValue(name string) func(interface{}) *errors.AppError {
	return func(value interface{}) *errors.AppError {
		p, _ := value.(*int)
		if p == nil || *p == 0 || *p == 1 {
			return nil
		}
		return errors.NewValidationFieldError(name, fmt.Sprintf("%s must be 0 or 1", name), errors.ErrCodeInvalidFlag)
	}
}

type RolesResponse struct {
	Roles []*Role `json:"roles"`
}

// RoleWithPermissions is a role together with what it resolves to, so the
// role editor can preview the effect of the list gate.
type RoleWithPermissions struct {
	*Role
	Permissions permission.Permissions `json:"permissions"`
}
