package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/redmonkez12/auth-service/internal/user"
)

// Service handles authentication business logic
type Service struct {
	userRepo     UserRepository
	tokenService TokenService
}

func NewService(userRepo UserRepository, tokenService TokenService) *Service {
	return &Service{
		userRepo:     userRepo,
		tokenService: tokenService,
	}
}

// Register creates a new user account: hash the password, store the user.
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// No duplicate pre-check: the unique constraint on email decides
	// races between concurrent registrations.
	newUser, err := s.userRepo.Create(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login verifies the credentials and issues an access token. An unknown
// email and a wrong password yield the same error so accounts cannot be
// enumerated through the response.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := VerifyPassword(password, existingUser.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(existingUser.ID)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	return token, nil
}
