package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/campusfind/campusfind-backend/pkg/auth"
	"github.com/campusfind/campusfind-backend/pkg/config"
	"github.com/campusfind/campusfind-backend/pkg/db/models"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/security"
)

func TestServiceLoginIssuesToken(t *testing.T) {
	password := "campus-secret"
	hashed := mustHashPassword(t, password)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "ab1234@columbia.edu",
		PasswordHash: hashed,
		Name:         "Alex Brown",
		University:   "columbia",
		IsActive:     true,
	}
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "campusfind",
		ExpirationMinutes: 30,
	}

	repo := &stubUserRepo{user: user}
	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: cfg})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  AB1234@Columbia.EDU ",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id claim %s, got %s", user.ID, claims.UserID)
	}
	if claims.University != "columbia" {
		t.Fatalf("expected university claim, got %q", claims.University)
	}
	if resp.User == nil || resp.User.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
	if repo.lastLoginID != user.ID {
		t.Fatalf("expected last login persisted for %s", user.ID)
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "cd5678@nyu.edu",
		PasswordHash: mustHashPassword(t, "right-password"),
		IsActive:     true,
	}
	svc, err := NewService(ServiceParams{UserRepo: &stubUserRepo{user: user}})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})
	assertUnauthorized(t, err)
}

func TestServiceLoginUnknownEmail(t *testing.T) {
	svc, err := NewService(ServiceParams{UserRepo: &stubUserRepo{err: gorm.ErrRecordNotFound}})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@mit.edu",
		Password: "whatever",
	})
	assertUnauthorized(t, err)
}

func TestServiceLoginInactiveUser(t *testing.T) {
	password := "still-valid"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "ef9012@ucla.edu",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     false,
	}
	svc, err := NewService(ServiceParams{UserRepo: &stubUserRepo{user: user}})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	assertUnauthorized(t, err)
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected unauthorized error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if typed.Message() != invalidCredentialsMessage {
		t.Fatalf("expected generic credentials message, got %q", typed.Message())
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user        *models.User
	err         error
	lastLoginID uuid.UUID
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLoginID = id
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}
