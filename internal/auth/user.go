package auth

import (
	"context"

	roleDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/user"
	"github.com/frahmantamala/pos-helpdesk/internal/permission"
)

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (AuthTokens, error)
	Authenticate(ctx context.Context, accessToken string) (*Principal, error)
}

type RepositoryAPI interface {
	GetCredentials(ctx context.Context, email string) (*Credentials, error)
	GetPrincipalRecord(ctx context.Context, userID int64) (*PrincipalRecord, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID int64, email string) (string, error)
	GenerateRefreshToken(userID int64, email string) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// PermissionResolver resolves a role, usually through the permission cache.
type PermissionResolver interface {
	ForRole(ctx context.Context, rec permission.Record) permission.Permissions
}

// PrincipalRecord is a user row with its role row. Role is nil when the
// user points at a role that no longer exists.
type PrincipalRecord struct {
	User *userDatamodel.User
	Role *roleDatamodel.Rule
}
