package role

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	roleDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/role"
	"github.com/frahmantamala/pos-helpdesk/internal/permission"
)

var (
	ErrRoleNotFound = errors.NewNotFoundError("Role not found", errors.ErrCodeRoleNotFound)
	ErrRoleInUse    = errors.NewConflictError("Role is still assigned to users", errors.ErrCodeRoleInUse)
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*roleDatamodel.Rule, error)
	GetByID(ctx context.Context, id int64) (*roleDatamodel.Rule, error)
	Create(ctx context.Context, rule *roleDatamodel.Rule) error
	Update(ctx context.Context, rule *roleDatamodel.Rule) error
	Delete(ctx context.Context, id int64) error
	CountUsers(ctx context.Context, id int64) (int64, error)
}

// Invalidator drops cached permissions of a role.
type Invalidator interface {
	Invalidate(ctx context.Context, roleID int64) error
}

// PermissionResolver resolves a role record.
type PermissionResolver interface {
	Resolve(rec permission.Record) permission.Permissions
}

type Service struct {
	repo        RepositoryAPI
	invalidator Invalidator
	resolver    PermissionResolver
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, invalidator Invalidator, resolver PermissionResolver, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		invalidator: invalidator,
		resolver:    resolver,
		logger:      logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Role, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, errors.NewInternalError("Failed to list roles", err)
	}

	roles := make([]*Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, FromDataModel(row))
	}
	return roles, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*RoleWithPermissions, error) {
	r, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RoleWithPermissions{Role: r, Permissions: s.resolver.Resolve(r.Record())}, nil
}

func (s *Service) get(ctx context.Context, id int64) (*Role, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get role", "role_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to get role", err)
	}
	if row == nil {
		return nil, ErrRoleNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto RoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	r := &Role{
		Name:    dto.Name,
		IsAdmin: dto.IsAdmin,
		Version: 1,
		Flags:   dto.Flags,
	}
	row := ToDataModel(r)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create role", "name", dto.Name, "error", err)
		return nil, errors.NewInternalError("Failed to create role", err)
	}

	s.logger.Info("role created", "role_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

// Update replaces the name and every flag, bumps the version and drops the
// cached permissions of the role.
func (s *Service) Update(ctx context.Context, id int64, dto RoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	r, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	r.Name = dto.Name
	r.IsAdmin = dto.IsAdmin
	r.Flags = dto.Flags
	r.Version++

	row := ToDataModel(r)
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update role", "role_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to update role", err)
	}

	s.invalidate(ctx, id)
	s.logger.Info("role updated", "role_id", id, "version", row.Version)
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	users, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		s.logger.Error("failed to count role users", "role_id", id, "error", err)
		return errors.NewInternalError("Failed to delete role", err)
	}
	if users > 0 {
		return ErrRoleInUse.WithDetails(map[string]int64{"users": users})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete role", "role_id", id, "error", err)
		return errors.NewInternalError("Failed to delete role", err)
	}

	s.invalidate(ctx, id)
	s.logger.Info("role deleted", "role_id", id)
	return nil
}

// invalidate never fails the write; versioned cache keys already keep a
// stale entry from being served after an edit.
func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, id); err != nil {
		s.logger.Warn("role permission cache not invalidated", "role_id", id, "error", err)
	}
}
