package auth

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	"github.com/frahmantamala/pos-helpdesk/internal/role"
	"golang.org/x/crypto/bcrypt"
)

var ErrRoleMissing = errors.NewAuthInvalidError("User role not found", errors.ErrCodeRoleNotFound)

// Service is the main auth service with dependencies
type Service struct {
	repo        RepositoryAPI
	tokens      TokenGeneratorAPI
	permissions PermissionResolver
	accessTTL   int64
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, tokens *JWTTokenGenerator, permissions PermissionResolver, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		tokens:      tokens,
		permissions: permissions,
		accessTTL:   int64(tokens.AccessTokenTTL.Seconds()),
		logger:      logger,
	}
}

// Login verifies the password and issues a token pair. Unknown emails and
// wrong passwords are reported identically.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.repo.GetCredentials(ctx, dto.Email)
	if err != nil {
		s.logger.Error("failed to load credentials", "error", err)
		return AuthTokens{}, errors.NewInternalError("Failed to authenticate", err)
	}
	if creds == nil {
		return AuthTokens{}, errors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Info("login rejected", "user_id", creds.UserID)
		return AuthTokens{}, errors.ErrInvalidCredentials
	}

	s.logger.Info("user logged in", "user_id", creds.UserID)
	return s.issue(creds.UserID, creds.Email)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthTokens, error) {
	if err := (RefreshTokenDTO{RefreshToken: refreshToken}).Validate(); err != nil {
		return AuthTokens{}, err
	}

	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	// the user may have been deleted since the refresh token was issued
	rec, err := s.repo.GetPrincipalRecord(ctx, claims.UserID)
	if err != nil {
		s.logger.Error("failed to load user for refresh", "user_id", claims.UserID, "error", err)
		return AuthTokens{}, errors.NewInternalError("Failed to refresh token", err)
	}
	if rec == nil || rec.User == nil {
		return AuthTokens{}, errors.ErrInvalidToken.WithMessage("User no longer exists")
	}

	return s.issue(rec.User.ID, rec.User.Email)
}

// Authenticate verifies an access token and loads the principal with the
// resolved permissions of its role.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	if accessToken == "" {
		return nil, errors.ErrMissingToken
	}

	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.GetPrincipalRecord(ctx, claims.UserID)
	if err != nil {
		s.logger.Error("failed to load principal", "user_id", claims.UserID, "error", err)
		return nil, errors.NewInternalError("Failed to load user", err)
	}
	if rec == nil || rec.User == nil {
		return nil, errors.ErrInvalidToken.WithMessage("User no longer exists")
	}
	if rec.Role == nil {
		s.logger.Warn("user references a missing role", "user_id", rec.User.ID, "rules_id", rec.User.RoleID)
		return nil, ErrRoleMissing
	}

	return &Principal{
		ID:          rec.User.ID,
		Name:        rec.User.Name,
		Email:       rec.User.Email,
		RoleID:      rec.Role.ID,
		RoleName:    rec.Role.Name,
		Permissions: s.permissions.ForRole(ctx, role.RecordFromDataModel(rec.Role)),
	}, nil
}

func (s *Service) issue(userID int64, email string) (AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(userID, email)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("Failed to issue token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(userID, email)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("Failed to issue token", err)
	}
	return AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTL,
	}, nil
}
