package auth

import (
	"context"

	"github.com/redmonkez12/auth-service/internal/user"
)

// TokenService defines the interface for token creation and validation.
// JWTService (HS256) is the production implementation.
type TokenService interface {
	CreateToken(userID int64) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserRepository is the slice of user persistence the auth service needs.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// IPRateLimiter guards the public auth endpoints against abuse.
type IPRateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequest(ctx context.Context, ip, purpose string) error
}
