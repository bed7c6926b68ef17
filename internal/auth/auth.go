package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/pos-helpdesk/internal/permission"
)

type ctxKey string

const ContextPrincipalKey ctxKey = "principal"

// Principal is the authenticated user with the permissions of their role,
// resolved once per request.
type Principal struct {
	ID          int64                  `json:"users_id"`
	Name        string                 `json:"name"`
	Email       string                 `json:"email"`
	RoleID      int64                  `json:"rules_id"`
	RoleName    string                 `json:"rules_name"`
	Permissions permission.Permissions `json:"permissions"`
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Permissions.IsAdmin
}

func (p *Principal) Can(resource permission.Resource, action permission.Action) bool {
	return p != nil && p.Permissions.Can(resource, action)
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ContextPrincipalKey).(*Principal)
	return p, ok && p != nil
}

// UserIDFromContext returns the id of the authenticated user, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return 0, false
	}
	return p.ID, true
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims is the verified content of a token.
type Claims struct {
	UserID    int64
	Email     string
	Type      string
	ExpiresAt time.Time
}

// Credentials is what login needs to verify a password.
type Credentials struct {
	UserID       int64
	Email        string
	PasswordHash string
}
