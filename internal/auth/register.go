package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/internal/users"
	"github.com/campusfind/campusfind-backend/pkg/config"
	"github.com/campusfind/campusfind-backend/pkg/db/models"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/security"
)

// RegisterService handles the signup transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// UserRepository is the slice of the users repository the signup flow needs.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

const defaultCampusDomain = "columbia.edu"

// RegisterServiceParams packages the dependencies for the signup flow.
type RegisterServiceParams struct {
	TxRunner        txRunner
	UserRepoFactory func(tx *gorm.DB) UserRepository
	AuthConfig      config.AuthConfig
	PasswordConfig  config.PasswordConfig
}

type registerService struct {
	tx           txRunner
	userRepo     func(tx *gorm.DB) UserRepository
	campusDomain string
	passwordCfg  config.PasswordConfig
}

// NewRegisterService builds a signup service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository factory required")
	}
	domain := strings.ToLower(strings.TrimSpace(params.AuthConfig.CampusEmailDomain))
	if domain == "" {
		domain = defaultCampusDomain
	}
	return &registerService{
		tx:           params.TxRunner,
		userRepo:     params.UserRepoFactory,
		campusDomain: domain,
		passwordCfg:  params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email, university, err := parseCampusEmail(req.Email, s.campusDomain)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.userRepo(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		created, err = repo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			Name:         name,
			University:   university,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &RegisterResponse{User: users.FromModel(created)}, nil
}

// parseCampusEmail normalizes the address, enforces the campus domain, and
// derives the university from the first label of that domain, e.g.
// ab1234@columbia.edu yields "columbia".
func parseCampusEmail(raw, campusDomain string) (email, university string, err error) {
	email = strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
	}
	if email[at+1:] != campusDomain {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "a campus email on "+campusDomain+" is required")
	}
	university = strings.SplitN(campusDomain, ".", 2)[0]
	return email, university, nil
}
