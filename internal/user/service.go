package user

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	roleDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/user"
	"github.com/frahmantamala/pos-helpdesk/internal/permission"
	"github.com/frahmantamala/pos-helpdesk/internal/role"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound   = errors.NewNotFoundError("User not found", errors.ErrCodeUserNotFound)
	ErrDuplicateEmail = errors.NewConflictError("Email is already registered", errors.ErrCodeDuplicateEmail)
	ErrUnknownRole    = errors.NewValidationFieldError("rules_id", "rules_id does not reference an existing role", errors.ErrCodeRoleNotFound)
	ErrDeleteSelf     = errors.NewConflictError("You cannot delete your own account", errors.ErrCodeValidationFailed)
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*userDatamodel.UserRow, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
	Delete(ctx context.Context, id int64) error
	GetRole(ctx context.Context, roleID int64) (*roleDatamodel.Rule, error)
}

// PermissionResolver resolves a role, usually through the permission cache.
type PermissionResolver interface {
	ForRole(ctx context.Context, rec permission.Record) permission.Permissions
}

type Service struct {
	repo        RepositoryAPI
	permissions PermissionResolver
	bcryptCost  int
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, permissions PermissionResolver, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:        repo,
		permissions: permissions,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// Me returns the user, their role and the permissions the client renders from.
func (s *Service) Me(ctx context.Context, userID int64) (*MeResponse, error) {
	u, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}

	rule, err := s.repo.GetRole(ctx, u.RoleID)
	if err != nil {
		s.logger.Error("failed to load role", "user_id", userID, "rules_id", u.RoleID, "error", err)
		return nil, errors.NewInternalError("Failed to load permissions", err)
	}
	if rule == nil {
		return nil, errors.NewAuthInvalidError("User role not found", errors.ErrCodeRoleNotFound)
	}

	r := role.FromDataModel(rule)
	u.RoleName = r.Name
	return &MeResponse{
		User:        u,
		Role:        r,
		Permissions: s.permissions.ForRole(ctx, role.RecordFromDataModel(rule)),
	}, nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, errors.NewInternalError("Failed to list users", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromRow(row))
	}
	return users, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user", "user_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to get user", err)
	}
	if row == nil {
		return nil, ErrUserNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkRole(ctx, dto.RoleID); err != nil {
		return nil, err
	}
	if err := s.checkEmail(ctx, dto.Email, 0); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(dto.Password)
	if err != nil {
		return nil, err
	}

	row := &userDatamodel.User{
		Name:         dto.Name,
		Email:        dto.Email,
		Company:      dto.Company,
		PasswordHash: hash,
		RoleID:       dto.RoleID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create user", "email", dto.Email, "error", err)
		return nil, errors.NewInternalError("Failed to create user", err)
	}

	s.logger.Info("user created", "user_id", row.ID, "rules_id", row.RoleID)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user", "user_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to update user", err)
	}
	if row == nil {
		return nil, ErrUserNotFound
	}

	if err := s.checkRole(ctx, dto.RoleID); err != nil {
		return nil, err
	}
	if err := s.checkEmail(ctx, dto.Email, id); err != nil {
		return nil, err
	}

	row.Name = dto.Name
	row.Email = dto.Email
	row.Company = dto.Company
	row.RoleID = dto.RoleID
	if dto.Password != nil {
		hash, err := s.hashPassword(*dto.Password)
		if err != nil {
			return nil, err
		}
		row.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update user", "user_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to update user", err)
	}

	s.logger.Info("user updated", "user_id", id)
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrDeleteSelf
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete user", "user_id", id, "error", err)
		return errors.NewInternalError("Failed to delete user", err)
	}

	s.logger.Info("user deleted", "user_id", id, "actor_id", actorID)
	return nil
}

func (s *Service) checkRole(ctx context.Context, roleID int64) error {
	rule, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		s.logger.Error("failed to check role", "rules_id", roleID, "error", err)
		return errors.NewInternalError("Failed to check role", err)
	}
	if rule == nil {
		return ErrUnknownRole
	}
	return nil
}

func (s *Service) checkEmail(ctx context.Context, email string, ownerID int64) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to check email", "error", err)
		return errors.NewInternalError("Failed to check email", err)
	}
	if existing != nil && existing.ID != ownerID {
		return ErrDuplicateEmail
	}
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", errors.NewInternalError("Failed to hash password", err)
	}
	return string(hash), nil
}
