package authpw

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"codex/api/internal/store"
)

type fakeStaffStore struct {
	staff map[string]store.Staff
}

func (f *fakeStaffStore) GetStaffByUsername(_ context.Context, username string) (store.Staff, error) {
	staff, ok := f.staff[username]
	if !ok {
		return store.Staff{}, sql.ErrNoRows
	}
	return staff, nil
}

func newFakeStore(t *testing.T, username, password string) *fakeStaffStore {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return &fakeStaffStore{staff: map[string]store.Staff{
		username: {ID: "stf-1", Username: username, PasswordHash: hash, Role: "moderator"},
	}}
}

func TestSignInSuccess(t *testing.T) {
	svc := NewService(newFakeStore(t, "morgan", "correct horse"))

	staff, err := svc.SignIn(context.Background(), SignInRequest{Username: "morgan", Password: "correct horse"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if staff.Username != "morgan" || staff.Role != "moderator" {
		t.Fatalf("unexpected staff: %+v", staff)
	}
}

func TestSignInTrimsUsername(t *testing.T) {
	svc := NewService(newFakeStore(t, "morgan", "correct horse"))

	if _, err := svc.SignIn(context.Background(), SignInRequest{Username: "  morgan  ", Password: "correct horse"}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	svc := NewService(newFakeStore(t, "morgan", "correct horse"))

	_, err := svc.SignIn(context.Background(), SignInRequest{Username: "morgan", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignInUnknownUser(t *testing.T) {
	svc := NewService(newFakeStore(t, "morgan", "correct horse"))

	_, err := svc.SignIn(context.Background(), SignInRequest{Username: "nobody", Password: "correct horse"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignInEmptyFields(t *testing.T) {
	svc := NewService(newFakeStore(t, "morgan", "correct horse"))

	if _, err := svc.SignIn(context.Background(), SignInRequest{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestHashPasswordRejectsShort(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Fatal("expected short password to be rejected")
	}
}
