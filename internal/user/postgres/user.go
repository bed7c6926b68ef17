package postgres

import (
	"context"
	"errors"
	"strings"

	roleDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.UserRow, error) {
	var rows []*userDatamodel.UserRow
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.*, rules.rules_name").
		Joins("LEFT JOIN rules ON rules.rules_id = users.rules_id").
		Order("users.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("users_id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// Delete also drops the user's telegram group memberships and unassigns
// their tickets.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_groups WHERE users_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("UPDATE tickets SET users_id = NULL WHERE users_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("users_id = ?", id).Delete(&userDatamodel.User{}).Error
	})
}

func (r *UserRepository) GetRole(ctx context.Context, roleID int64) (*roleDatamodel.Rule, error) {
	var rule roleDatamodel.Rule
	err := r.db.WithContext(ctx).Where("rules_id = ?", roleID).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}
