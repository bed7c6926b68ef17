package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/frahmantamala/pos-helpdesk/internal/auth"
	roleDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auth.Credentials{UserID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash}, nil
}

func (r *Repository) GetPrincipalRecord(ctx context.Context, userID int64) (*auth.PrincipalRecord, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where("users_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	rec := &auth.PrincipalRecord{User: &u}

	var rule roleDatamodel.Rule
	err := r.db.WithContext(ctx).Where("rules_id = ?", u.RoleID).First(&rule).Error
	switch {
	case err == nil:
		rec.Role = &rule
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, err
	}
	return rec, nil
}
