package matching

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/pkg/config"
	dbpkg "github.com/campusfind/campusfind-backend/pkg/db"
	"github.com/campusfind/campusfind-backend/pkg/db/models"
	"github.com/campusfind/campusfind-backend/pkg/enums"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/logger"
	"github.com/campusfind/campusfind-backend/pkg/outbox"
	"github.com/campusfind/campusfind-backend/pkg/outbox/payloads"
)

// Service scans for counterpart reports and persists pending matches.
type Service interface {
	FindForLostItem(ctx context.Context, lostItemID uuid.UUID) (*ScanResult, error)
	FindForFoundItem(ctx context.Context, foundItemID uuid.UUID) (*ScanResult, error)
}

// ScanResult summarizes a single finder invocation.
type ScanResult struct {
	CandidatesConsidered int
	MatchesCreated       int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	db      txRunner
	repo    Repository
	emitter eventEmitter
	logg    *logger.Logger
	cfg     config.MatchingConfig
}

// NewService wires the match finder.
func NewService(db txRunner, repo Repository, emitter eventEmitter, logg *logger.Logger, cfg config.MatchingConfig) (Service, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "matching service requires a database client")
	}
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "matching service requires a repository")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "matching service requires an outbox emitter")
	}
	if cfg.CandidateWindowDays <= 0 {
		cfg.CandidateWindowDays = 7
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 5
	}
	return &service{db: db, repo: repo, emitter: emitter, logg: logg, cfg: cfg}, nil
}

// FindForLostItem scans active found reports for counterparts of the lost
// report. A missing or non-active report is a quiet no-op so that stale
// scan events never poison the queue.
func (s *service) FindForLostItem(ctx context.Context, lostItemID uuid.UUID) (*ScanResult, error) {
	lost, err := s.repo.GetLostItem(ctx, lostItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading lost item for scan")
	}
	if lost == nil || lost.Status != enums.LostItemStatusActive {
		s.logSkip(ctx, "lost_item_id", lostItemID)
		return &ScanResult{}, nil
	}

	rows, err := s.repo.ActiveFoundCandidates(ctx, CandidateParams{
		ItemType:   lost.ItemType,
		Date:       lost.LostDate,
		WindowDays: s.cfg.CandidateWindowDays,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading found candidates")
	}

	candidates := make([]candidate, 0, len(rows))
	for i := range rows {
		candidates = append(candidates, foundCandidate(&rows[i]))
	}

	subject := ScoreInput{
		ItemType:    lost.ItemType,
		Location:    lost.Location,
		Description: lost.Description,
		Date:        lost.LostDate,
	}
	return s.scan(ctx, subject, lost.LostDate, candidates, func(cand candidate, score float64) pendingMatch {
		return pendingMatch{
			lostItemID:   lost.ID,
			lostOwnerID:  lost.OwnerID,
			foundItemID:  cand.id,
			foundOwnerID: cand.ownerID,
			score:        score,
		}
	})
}

// FindForFoundItem is the mirror scan, triggered by a new found report.
func (s *service) FindForFoundItem(ctx context.Context, foundItemID uuid.UUID) (*ScanResult, error) {
	found, err := s.repo.GetFoundItem(ctx, foundItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading found item for scan")
	}
	if found == nil || found.Status != enums.FoundItemStatusActive {
		s.logSkip(ctx, "found_item_id", foundItemID)
		return &ScanResult{}, nil
	}

	rows, err := s.repo.ActiveLostCandidates(ctx, CandidateParams{
		ItemType:   found.ItemType,
		Date:       found.FoundDate,
		WindowDays: s.cfg.CandidateWindowDays,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading lost candidates")
	}

	candidates := make([]candidate, 0, len(rows))
	for i := range rows {
		candidates = append(candidates, lostCandidate(&rows[i]))
	}

	subject := ScoreInput{
		ItemType:    found.ItemType,
		Location:    found.Location,
		Description: found.Description,
		Date:        found.FoundDate,
	}
	return s.scan(ctx, subject, found.FoundDate, candidates, func(cand candidate, score float64) pendingMatch {
		return pendingMatch{
			lostItemID:   cand.id,
			lostOwnerID:  cand.ownerID,
			foundItemID:  found.ID,
			foundOwnerID: found.OwnerID,
			score:        score,
		}
	})
}

type candidate struct {
	id      uuid.UUID
	ownerID uuid.UUID
	date    time.Time
	input   ScoreInput
}

func foundCandidate(item *models.FoundItem) candidate {
	return candidate{
		id:      item.ID,
		ownerID: item.OwnerID,
		date:    item.FoundDate,
		input: ScoreInput{
			ItemType:    item.ItemType,
			Location:    item.Location,
			Description: item.Description,
			Date:        item.FoundDate,
		},
	}
}

func lostCandidate(item *models.LostItem) candidate {
	return candidate{
		id:      item.ID,
		ownerID: item.OwnerID,
		date:    item.LostDate,
		input: ScoreInput{
			ItemType:    item.ItemType,
			Location:    item.Location,
			Description: item.Description,
			Date:        item.LostDate,
		},
	}
}

type pendingMatch struct {
	lostItemID   uuid.UUID
	lostOwnerID  uuid.UUID
	foundItemID  uuid.UUID
	foundOwnerID uuid.UUID
	score        float64
}

// scan orders the candidates by date proximity, caps the batch, scores each
// pair, and persists a pending match for every score at or above the
// threshold. Candidate failures are collected so one bad row never aborts
// the rest of the batch.
func (s *service) scan(ctx context.Context, subject ScoreInput, anchor time.Time, candidates []candidate, build func(candidate, float64) pendingMatch) (*ScanResult, error) {
	sortByProximity(candidates, anchor)
	if len(candidates) > s.cfg.CandidateLimit {
		candidates = candidates[:s.cfg.CandidateLimit]
	}

	result := &ScanResult{CandidatesConsidered: len(candidates)}
	var errs error

	for _, cand := range candidates {
		score := Score(subject, cand.input)
		if score < ScoreThreshold {
			continue
		}
		created, err := s.createPendingMatch(ctx, build(cand, score))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if created {
			result.MatchesCreated++
		}
	}
	return result, errs
}

// createPendingMatch runs one candidate's dedup check, match insert, and
// event emit in its own transaction so a single failure cannot void the
// rest of the scan.
func (s *service) createPendingMatch(ctx context.Context, pm pendingMatch) (bool, error) {
	exists, err := s.repo.MatchExists(ctx, pm.lostItemID, pm.foundItemID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking existing match")
	}
	if exists {
		return false, nil
	}

	created := false
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		lostID := pm.lostItemID
		match := &models.Match{
			LostItemID:      &lostID,
			FoundItemID:     pm.foundItemID,
			SimilarityScore: pm.score,
			Status:          enums.MatchStatusPending,
		}
		if err := txRepo.CreateMatch(ctx, match); err != nil {
			return err
		}
		created = true
		return s.emitter.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventMatchSuggested,
			AggregateType: enums.AggregateMatch,
			AggregateID:   match.ID,
			Version:       1,
			Data: payloads.MatchSuggestedEvent{
				MatchID:         match.ID,
				LostItemID:      pm.lostItemID,
				FoundItemID:     pm.foundItemID,
				LostOwnerID:     pm.lostOwnerID,
				FoundOwnerID:    pm.foundOwnerID,
				SimilarityScore: pm.score,
			},
		})
	})
	if err != nil {
		// A concurrent scan can insert the same pair between the dedup
		// check and the insert. The unique index settles the race.
		if dbpkg.IsUniqueViolation(err, "ux_matches_pair") {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating pending match")
	}
	return created, nil
}

// sortByProximity orders candidates by calendar-day distance from the
// anchor date, breaking ties by id for a stable scan order.
func sortByProximity(candidates []candidate, anchor time.Time) {
	sort.Slice(candidates, func(i, j int) bool {
		di := dateDiffDays(candidates[i].date, anchor)
		dj := dateDiffDays(candidates[j].date, anchor)
		if di != dj {
			return di < dj
		}
		return candidates[i].id.String() < candidates[j].id.String()
	})
}

func (s *service) logSkip(ctx context.Context, key string, id uuid.UUID) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithField(ctx, key, id.String())
	s.logg.Info(logCtx, "match scan skipped, item missing or inactive")
}
