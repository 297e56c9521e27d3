package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the signed token payload: the subject user id and the
// expiry as unix seconds. Nothing else goes into the token.
type TokenClaims struct {
	UserID    int64 `json:"sub"`
	ExpiresAt int64 `json:"exp"`
}

// jwt.Claims implementation. Only the expiration claim is populated; the
// library treats the rest as absent.
func (c TokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}
func (c TokenClaims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c TokenClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c TokenClaims) GetIssuer() (string, error)              { return "", nil }
func (c TokenClaims) GetSubject() (string, error)             { return "", nil }
func (c TokenClaims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// JWTService issues and verifies HS256-signed tokens under a single
// shared secret. The same secret must be configured on every instance
// that verifies tokens issued here.
type JWTService struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

func NewJWTService(secret []byte, duration time.Duration) (*JWTService, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret must not be empty")
	}

	return &JWTService{
		secret:   secret,
		duration: duration,
		now:      time.Now,
	}, nil
}

// CreateToken builds claims expiring after the configured duration and
// returns the signed compact encoding. The user id is trusted; callers
// authenticate it before issuing.
func (s *JWTService) CreateToken(userID int64) (string, error) {
	claims := TokenClaims{
		UserID:    userID,
		ExpiresAt: s.now().Add(s.duration).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken parses and validates a token. Claims are returned only
// when the signature checks out under the shared secret and the token
// has not expired. The signing method is pinned to HS256 to rule out
// algorithm confusion.
func (s *JWTService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	claims := &TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		default:
			return nil, ErrInvalidToken
		}
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
