// Package authpw provides password authentication for staff accounts.
package authpw

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codex/api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// StaffStore defines the storage interface for staff sign-in.
type StaffStore interface {
	GetStaffByUsername(ctx context.Context, username string) (store.Staff, error)
}

type Service struct {
	store StaffStore
}

func NewService(store StaffStore) *Service {
	return &Service{store: store}
}

type SignInRequest struct {
	Username string
	Password string
}

// SignIn verifies staff credentials. Failures collapse into a single
// generic error so username probing learns nothing.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (store.Staff, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return store.Staff{}, ErrInvalidCredentials
	}

	staff, err := s.store.GetStaffByUsername(ctx, username)
	if err != nil {
		return store.Staff{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.Password)); err != nil {
		return store.Staff{}, ErrInvalidCredentials
	}
	return staff, nil
}

// HashPassword produces the bcrypt hash stored for a staff account.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
