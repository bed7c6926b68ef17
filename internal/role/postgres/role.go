package postgres

import (
	"context"
	"errors"

	roleDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/user"
	"github.com/frahmantamala/pos-helpdesk/internal/role"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) List(ctx context.Context) ([]*roleDatamodel.Rule, error) {
	var rules []*roleDatamodel.Rule
	err := r.db.WithContext(ctx).Order("rules_name ASC").Find(&rules).Error
	return rules, err
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*roleDatamodel.Rule, error) {
	var rule roleDatamodel.Rule
	err := r.db.WithContext(ctx).Where("rules_id = ?", id).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *RoleRepository) Create(ctx context.Context, rule *roleDatamodel.Rule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

// Update writes every column, including flags set back to NULL.
func (r *RoleRepository) Update(ctx context.Context, rule *roleDatamodel.Rule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("rules_id = ?", id).Delete(&roleDatamodel.Rule{}).Error
}

func (r *RoleRepository) CountUsers(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("rules_id = ?", id).Count(&count).Error
	return count, err
}

// BackfillAdminFlag fills is_admin on rows that predate the column: the
// configured legacy administrator role becomes TRUE and every other NULL row
// FALSE. Explicit flags are never touched.
func BackfillAdminFlag(ctx context.Context, db *gorm.DB, adminRoleID int64) (int64, error) {
	result := db.WithContext(ctx).
		Model(&roleDatamodel.Rule{}).
		Where("is_admin IS NULL").
		Update("is_admin", gorm.Expr("rules_id = ?", adminRoleID))
	return result.RowsAffected, result.Error
}
