package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/pkg/enums"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/outbox"
	"github.com/campusfind/campusfind-backend/pkg/outbox/payloads"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes profile reads and reputation credits.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	AwardReputation(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int, reason string) (int, error)
}

type service struct {
	repo   *Repository
	outbox outboxPublisher
}

// NewService builds the users service with its dependencies.
func NewService(repo *Repository, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{repo: repo, outbox: publisher}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

// AwardReputation credits the user inside the caller's transaction and
// records the grant as a domain event.
func (s *service) AwardReputation(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int, reason string) (int, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for reputation award")
	}
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if delta <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "reputation delta must be positive")
	}

	total, err := s.repo.WithTx(tx).IncrementReputation(ctx, userID, delta)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment reputation")
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReputationAwarded,
		AggregateType: enums.AggregateUser,
		AggregateID:   userID,
		Version:       1,
		Data: payloads.ReputationAwardedEvent{
			UserID:        userID,
			Delta:         delta,
			NewReputation: total,
			Reason:        reason,
		},
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
