package matches

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/pkg/db/models"
	dbtypes "github.com/campusfind/campusfind-backend/pkg/db/types"
	"github.com/campusfind/campusfind-backend/pkg/enums"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/outbox"
	"github.com/campusfind/campusfind-backend/pkg/outbox/payloads"
)

// ClaimSimilarityScore marks manual claims, which bypass the scorer.
const ClaimSimilarityScore = 1.0

// ReturnReputationDelta mirrors the award granted on a direct return.
const ReturnReputationDelta = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ReputationAwarder credits a user inside the caller's transaction.
type ReputationAwarder interface {
	AwardReputation(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int, reason string) (int, error)
}

// Service defines the decisions and reads on matches.
type Service interface {
	Approve(ctx context.Context, matchID, actorUserID uuid.UUID) (*models.Match, error)
	Reject(ctx context.Context, matchID, actorUserID uuid.UUID) (*models.Match, error)
	Claim(ctx context.Context, input ClaimInput) (*models.Match, error)
	Get(ctx context.Context, matchID, actorUserID uuid.UUID) (*models.Match, error)
	ListForLostItem(ctx context.Context, lostItemID, actorUserID uuid.UUID) ([]models.Match, error)
	ListForFoundItem(ctx context.Context, foundItemID, actorUserID uuid.UUID) ([]models.Match, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Match, error)
}

// ClaimInput carries a direct ownership claim on a found item.
type ClaimInput struct {
	FoundItemID uuid.UUID
	ClaimerID   uuid.UUID
	Answers     map[string]string
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	reputation ReputationAwarder
}

// NewService builds the matches service with its dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, reputation ReputationAwarder) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "matches repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	if reputation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reputation awarder required")
	}
	return &service{repo: repo, tx: tx, outbox: publisher, reputation: reputation}, nil
}

// decidableStatuses are the match states the found item owner can still act on.
var decidableStatuses = []enums.MatchStatus{enums.MatchStatusPending, enums.MatchStatusMatched, enums.MatchStatusClaimed}

// Approve confirms the match and runs the recovery cascade: the lost report
// resolves to found, the found report resolves to returned, and the finder
// earns reputation.
func (s *service) Approve(ctx context.Context, matchID, actorUserID uuid.UUID) (*models.Match, error) {
	var match *models.Match
	err := s.decide(ctx, matchID, actorUserID, enums.MatchStatusApproved, func(tx *gorm.DB, repo Repository, m *models.Match) error {
		match = m

		if m.LostItemID != nil {
			if err := s.resolveLostItem(ctx, tx, repo, m); err != nil {
				return err
			}
		}
		if err := s.resolveFoundItem(ctx, tx, repo, m, actorUserID); err != nil {
			return err
		}

		var lostOwnerID *uuid.UUID
		if m.LostItem != nil {
			id := m.LostItem.OwnerID
			lostOwnerID = &id
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventMatchApproved,
			AggregateType: enums.AggregateMatch,
			AggregateID:   m.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actorUserID},
			Data: payloads.MatchApprovedEvent{
				MatchID:      m.ID,
				LostItemID:   m.LostItemID,
				FoundItemID:  m.FoundItemID,
				LostOwnerID:  lostOwnerID,
				FoundOwnerID: m.FoundItem.OwnerID,
				ClaimerID:    m.ClaimerID,
				ApprovedBy:   actorUserID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// Reject declines the match without touching either report.
func (s *service) Reject(ctx context.Context, matchID, actorUserID uuid.UUID) (*models.Match, error) {
	var match *models.Match
	err := s.decide(ctx, matchID, actorUserID, enums.MatchStatusRejected, func(tx *gorm.DB, repo Repository, m *models.Match) error {
		match = m

		var lostOwnerID *uuid.UUID
		if m.LostItem != nil {
			id := m.LostItem.OwnerID
			lostOwnerID = &id
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventMatchRejected,
			AggregateType: enums.AggregateMatch,
			AggregateID:   m.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actorUserID},
			Data: payloads.MatchRejectedEvent{
				MatchID:     m.ID,
				LostItemID:  m.LostItemID,
				FoundItemID: m.FoundItemID,
				LostOwnerID: lostOwnerID,
				ClaimerID:   m.ClaimerID,
				RejectedBy:  actorUserID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (s *service) decide(ctx context.Context, matchID, actorUserID uuid.UUID, target enums.MatchStatus, then func(tx *gorm.DB, repo Repository, m *models.Match) error) error {
	if matchID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "match id required")
	}
	if actorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		m, err := repo.FindMatch(ctx, matchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "match not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load match")
		}
		if m.FoundItem == nil {
			return pkgerrors.New(pkgerrors.CodeDependency, "match is missing its found item")
		}
		// Only the found item owner decides what happens to the match.
		if m.FoundItem.OwnerID != actorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the found item owner can decide this match")
		}
		if m.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "match has already been decided")
		}

		changed, err := repo.UpdateMatchStatus(ctx, m.ID, decidableStatuses, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update match status")
		}
		if !changed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "match has already been decided")
		}
		m.Status = target

		return then(tx, repo, m)
	})
}

func (s *service) resolveLostItem(ctx context.Context, tx *gorm.DB, repo Repository, m *models.Match) error {
	changed, err := repo.UpdateLostItemStatus(ctx, *m.LostItemID, enums.LostItemStatusActive, enums.LostItemStatusFound)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve lost item")
	}
	if !changed {
		return nil
	}
	if err := s.cancelOtherPending(ctx, tx, repo, repo.PendingMatchesForLostItem, *m.LostItemID, m.ID); err != nil {
		return err
	}
	ownerID := uuid.Nil
	if m.LostItem != nil {
		ownerID = m.LostItem.OwnerID
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventLostItemFound,
		AggregateType: enums.AggregateLostItem,
		AggregateID:   *m.LostItemID,
		Version:       1,
		Data: payloads.LostItemFoundEvent{
			LostItemID: *m.LostItemID,
			OwnerID:    ownerID,
		},
	})
}

func (s *service) resolveFoundItem(ctx context.Context, tx *gorm.DB, repo Repository, m *models.Match, actorUserID uuid.UUID) error {
	changed, err := repo.UpdateFoundItemStatus(ctx, m.FoundItemID, enums.FoundItemStatusActive, enums.FoundItemStatusReturned)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve found item")
	}
	if !changed {
		return nil
	}
	if err := s.cancelOtherPending(ctx, tx, repo, repo.PendingMatchesForFoundItem, m.FoundItemID, m.ID); err != nil {
		return err
	}
	if _, err := s.reputation.AwardReputation(ctx, tx, m.FoundItem.OwnerID, ReturnReputationDelta, "item_returned"); err != nil {
		return err
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventFoundItemReturned,
		AggregateType: enums.AggregateFoundItem,
		AggregateID:   m.FoundItemID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorUserID},
		Data: payloads.FoundItemReturnedEvent{
			FoundItemID: m.FoundItemID,
			OwnerID:     m.FoundItem.OwnerID,
			ReturnedAt:  time.Now(),
		},
	})
}

func (s *service) cancelOtherPending(ctx context.Context, tx *gorm.DB, repo Repository, list func(context.Context, uuid.UUID) ([]models.Match, error), itemID, decidedMatchID uuid.UUID) error {
	pending, err := list(ctx, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending matches")
	}
	for i := range pending {
		if pending[i].ID == decidedMatchID {
			continue
		}
		cancelled, err := repo.UpdateMatchStatus(ctx, pending[i].ID, []enums.MatchStatus{enums.MatchStatusPending}, enums.MatchStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel competing match")
		}
		if !cancelled {
			continue
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventMatchCancelled,
			AggregateType: enums.AggregateMatch,
			AggregateID:   pending[i].ID,
			Version:       1,
			Data: payloads.MatchCancelledEvent{
				MatchID:     pending[i].ID,
				LostItemID:  pending[i].LostItemID,
				FoundItemID: pending[i].FoundItemID,
				Reason:      "another match was approved",
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// Claim records a direct ownership claim against an active found item.
func (s *service) Claim(ctx context.Context, input ClaimInput) (*models.Match, error) {
	if input.FoundItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "found item id required")
	}
	if input.ClaimerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var match *models.Match
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindFoundItem(ctx, input.FoundItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "found item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load found item")
		}
		if item.Status != enums.FoundItemStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "found item is no longer active")
		}
		if item.OwnerID == input.ClaimerID {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot claim your own found item")
		}

		open, err := repo.ActiveClaimExists(ctx, input.FoundItemID, input.ClaimerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open claims")
		}
		if open {
			return pkgerrors.New(pkgerrors.CodeConflict, "an open claim already exists for this item")
		}

		answers := input.Answers
		if answers == nil {
			answers = map[string]string{}
		}
		claimerID := input.ClaimerID
		match = &models.Match{
			FoundItemID:         input.FoundItemID,
			ClaimerID:           &claimerID,
			SimilarityScore:     ClaimSimilarityScore,
			Status:              enums.MatchStatusMatched,
			VerificationAnswers: dbtypes.AnswerMap(answers),
		}
		if err := repo.CreateMatch(ctx, match); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create claim")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventMatchClaimed,
			AggregateType: enums.AggregateMatch,
			AggregateID:   match.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ClaimerID},
			Data: payloads.MatchClaimedEvent{
				MatchID:      match.ID,
				FoundItemID:  item.ID,
				FoundOwnerID: item.OwnerID,
				ClaimerID:    input.ClaimerID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// Get returns a match to any of its participants.
func (s *service) Get(ctx context.Context, matchID, actorUserID uuid.UUID) (*models.Match, error) {
	if actorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	m, err := s.repo.FindMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "match not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load match")
	}
	if !isParticipant(m, actorUserID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "match involves other users")
	}
	return m, nil
}

func (s *service) ListForLostItem(ctx context.Context, lostItemID, actorUserID uuid.UUID) ([]models.Match, error) {
	if actorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	item, err := s.repo.FindLostItem(ctx, lostItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lost item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load lost item")
	}
	if item.OwnerID != actorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "lost item belongs to another user")
	}
	rows, err := s.repo.ListForLostItem(ctx, lostItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list matches")
	}
	return rows, nil
}

func (s *service) ListForFoundItem(ctx context.Context, foundItemID, actorUserID uuid.UUID) ([]models.Match, error) {
	if actorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	item, err := s.repo.FindFoundItem(ctx, foundItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "found item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load found item")
	}
	if item.OwnerID != actorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "found item belongs to another user")
	}
	rows, err := s.repo.ListForFoundItem(ctx, foundItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list matches")
	}
	return rows, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Match, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list matches")
	}
	return rows, nil
}

func isParticipant(m *models.Match, userID uuid.UUID) bool {
	if m.ClaimerID != nil && *m.ClaimerID == userID {
		return true
	}
	if m.LostItem != nil && m.LostItem.OwnerID == userID {
		return true
	}
	if m.FoundItem != nil && m.FoundItem.OwnerID == userID {
		return true
	}
	return false
}
