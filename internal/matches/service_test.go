package matches

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/pkg/db/models"
	"github.com/campusfind/campusfind-backend/pkg/enums"
	pkgerrors "github.com/campusfind/campusfind-backend/pkg/errors"
	"github.com/campusfind/campusfind-backend/pkg/outbox"
)

type fakeRepo struct {
	lostItems  map[uuid.UUID]*models.LostItem
	foundItems map[uuid.UUID]*models.FoundItem
	matches    map[uuid.UUID]*models.Match
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		lostItems:  map[uuid.UUID]*models.LostItem{},
		foundItems: map[uuid.UUID]*models.FoundItem{},
		matches:    map[uuid.UUID]*models.Match{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *m
	if m.LostItemID != nil {
		if item, ok := f.lostItems[*m.LostItemID]; ok {
			itemCopy := *item
			copied.LostItem = &itemCopy
		}
	}
	if item, ok := f.foundItems[m.FoundItemID]; ok {
		itemCopy := *item
		copied.FoundItem = &itemCopy
	}
	return &copied, nil
}

func (f *fakeRepo) CreateMatch(ctx context.Context, match *models.Match) error {
	match.ID = uuid.New()
	f.matches[match.ID] = match
	return nil
}

func (f *fakeRepo) UpdateMatchStatus(ctx context.Context, id uuid.UUID, from []enums.MatchStatus, to enums.MatchStatus) (bool, error) {
	m, ok := f.matches[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if m.Status == status {
			m.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListForLostItem(ctx context.Context, lostItemID uuid.UUID) ([]models.Match, error) {
	var rows []models.Match
	for _, m := range f.matches {
		if m.LostItemID != nil && *m.LostItemID == lostItemID {
			rows = append(rows, *m)
		}
	}
	return rows, nil
}

func (f *fakeRepo) ListForFoundItem(ctx context.Context, foundItemID uuid.UUID) ([]models.Match, error) {
	var rows []models.Match
	for _, m := range f.matches {
		if m.FoundItemID == foundItemID {
			rows = append(rows, *m)
		}
	}
	return rows, nil
}

func (f *fakeRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Match, error) {
	var rows []models.Match
	for _, m := range f.matches {
		if m.ClaimerID != nil && *m.ClaimerID == userID {
			rows = append(rows, *m)
			continue
		}
		if m.LostItemID != nil {
			if item, ok := f.lostItems[*m.LostItemID]; ok && item.OwnerID == userID {
				rows = append(rows, *m)
				continue
			}
		}
		if item, ok := f.foundItems[m.FoundItemID]; ok && item.OwnerID == userID {
			rows = append(rows, *m)
		}
	}
	return rows, nil
}

func (f *fakeRepo) PendingMatchesForLostItem(ctx context.Context, lostItemID uuid.UUID) ([]models.Match, error) {
	var rows []models.Match
	for _, m := range f.matches {
		if m.LostItemID != nil && *m.LostItemID == lostItemID && m.Status == enums.MatchStatusPending {
			rows = append(rows, *m)
		}
	}
	return rows, nil
}

func (f *fakeRepo) PendingMatchesForFoundItem(ctx context.Context, foundItemID uuid.UUID) ([]models.Match, error) {
	var rows []models.Match
	for _, m := range f.matches {
		if m.FoundItemID == foundItemID && m.Status == enums.MatchStatusPending {
			rows = append(rows, *m)
		}
	}
	return rows, nil
}

func (f *fakeRepo) ActiveClaimExists(ctx context.Context, foundItemID, claimerID uuid.UUID) (bool, error) {
	for _, m := range f.matches {
		if m.FoundItemID != foundItemID || m.ClaimerID == nil || *m.ClaimerID != claimerID {
			continue
		}
		if m.Status == enums.MatchStatusPending || m.Status == enums.MatchStatusMatched || m.Status == enums.MatchStatusClaimed {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) FindLostItem(ctx context.Context, id uuid.UUID) (*models.LostItem, error) {
	item, ok := f.lostItems[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeRepo) FindFoundItem(ctx context.Context, id uuid.UUID) (*models.FoundItem, error) {
	item, ok := f.foundItems[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeRepo) UpdateLostItemStatus(ctx context.Context, id uuid.UUID, from, to enums.LostItemStatus) (bool, error) {
	item, ok := f.lostItems[id]
	if !ok || item.Status != from {
		return false, nil
	}
	item.Status = to
	return true, nil
}

func (f *fakeRepo) UpdateFoundItemStatus(ctx context.Context, id uuid.UUID, from, to enums.FoundItemStatus) (bool, error) {
	item, ok := f.foundItems[id]
	if !ok || item.Status != from {
		return false, nil
	}
	item.Status = to
	return true, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEmitter) countByType(eventType enums.OutboxEventType) int {
	count := 0
	for _, e := range f.events {
		if e.EventType == eventType {
			count++
		}
	}
	return count
}

type fakeReputation struct {
	awards map[uuid.UUID]int
}

func (f *fakeReputation) AwardReputation(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int, reason string) (int, error) {
	if f.awards == nil {
		f.awards = map[uuid.UUID]int{}
	}
	f.awards[userID] += delta
	return f.awards[userID], nil
}

type matchFixture struct {
	repo       *fakeRepo
	emitter    *fakeEmitter
	reputation *fakeReputation
	svc        Service
}

func newMatchFixture(t *testing.T) *matchFixture {
	t.Helper()
	repo := newFakeRepo()
	emitter := &fakeEmitter{}
	reputation := &fakeReputation{}

	svc, err := NewService(repo, fakeTxRunner{}, emitter, reputation)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &matchFixture{repo: repo, emitter: emitter, reputation: reputation, svc: svc}
}

func (f *matchFixture) seedLost(ownerID uuid.UUID) *models.LostItem {
	item := &models.LostItem{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		ItemType: enums.ItemTypeKeys,
		Status:   enums.LostItemStatusActive,
	}
	f.repo.lostItems[item.ID] = item
	return item
}

func (f *matchFixture) seedFound(ownerID uuid.UUID) *models.FoundItem {
	item := &models.FoundItem{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		ItemType: enums.ItemTypeKeys,
		Status:   enums.FoundItemStatusActive,
	}
	f.repo.foundItems[item.ID] = item
	return item
}

func (f *matchFixture) seedPending(lostID, foundID uuid.UUID) *models.Match {
	id := lostID
	m := &models.Match{
		ID:              uuid.New(),
		LostItemID:      &id,
		FoundItemID:     foundID,
		SimilarityScore: 0.8,
		Status:          enums.MatchStatusPending,
	}
	f.repo.matches[m.ID] = m
	return m
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s", code, appErr.Code())
	}
}

func TestApproveRunsRecoveryCascade(t *testing.T) {
	f := newMatchFixture(t)
	seeker := uuid.New()
	finder := uuid.New()
	lost := f.seedLost(seeker)
	found := f.seedFound(finder)
	match := f.seedPending(lost.ID, found.ID)
	other := f.seedPending(lost.ID, f.seedFound(uuid.New()).ID)

	approved, err := f.svc.Approve(context.Background(), match.ID, finder)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != enums.MatchStatusApproved {
		t.Fatalf("expected approved status, got %s", approved.Status)
	}
	if lost.Status != enums.LostItemStatusFound {
		t.Fatalf("expected lost item found, got %s", lost.Status)
	}
	if found.Status != enums.FoundItemStatusReturned {
		t.Fatalf("expected found item returned, got %s", found.Status)
	}
	if f.repo.matches[other.ID].Status != enums.MatchStatusCancelled {
		t.Fatalf("expected competing match cancelled, got %s", f.repo.matches[other.ID].Status)
	}
	if got := f.reputation.awards[finder]; got != ReturnReputationDelta {
		t.Fatalf("expected finder to earn %d reputation, got %d", ReturnReputationDelta, got)
	}
	if f.emitter.countByType(enums.EventMatchApproved) != 1 {
		t.Fatalf("expected match_approved event")
	}
	if f.emitter.countByType(enums.EventLostItemFound) != 1 {
		t.Fatalf("expected lost_item_found event")
	}
	if f.emitter.countByType(enums.EventFoundItemReturned) != 1 {
		t.Fatalf("expected found_item_returned event")
	}
}

func TestApproveIsFoundOwnerOnly(t *testing.T) {
	f := newMatchFixture(t)
	lost := f.seedLost(uuid.New())
	found := f.seedFound(uuid.New())
	match := f.seedPending(lost.ID, found.ID)

	_, err := f.svc.Approve(context.Background(), match.ID, lost.OwnerID)
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestApproveDecidedMatchConflicts(t *testing.T) {
	f := newMatchFixture(t)
	finder := uuid.New()
	lost := f.seedLost(uuid.New())
	found := f.seedFound(finder)
	match := f.seedPending(lost.ID, found.ID)
	match.Status = enums.MatchStatusRejected

	_, err := f.svc.Approve(context.Background(), match.ID, finder)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestRejectLeavesItemsUntouched(t *testing.T) {
	f := newMatchFixture(t)
	finder := uuid.New()
	lost := f.seedLost(uuid.New())
	found := f.seedFound(finder)
	match := f.seedPending(lost.ID, found.ID)

	rejected, err := f.svc.Reject(context.Background(), match.ID, finder)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != enums.MatchStatusRejected {
		t.Fatalf("expected rejected status, got %s", rejected.Status)
	}
	if lost.Status != enums.LostItemStatusActive || found.Status != enums.FoundItemStatusActive {
		t.Fatalf("reject must not touch either report")
	}
	if len(f.reputation.awards) != 0 {
		t.Fatalf("reject must not award reputation")
	}
	if f.emitter.countByType(enums.EventMatchRejected) != 1 {
		t.Fatalf("expected match_rejected event")
	}
}

func TestClaimCreatesMatchedRow(t *testing.T) {
	f := newMatchFixture(t)
	claimer := uuid.New()
	found := f.seedFound(uuid.New())

	match, err := f.svc.Claim(context.Background(), ClaimInput{
		FoundItemID: found.ID,
		ClaimerID:   claimer,
		Answers:     map[string]string{"color": "red"},
	})
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if match.Status != enums.MatchStatusMatched {
		t.Fatalf("expected matched status, got %s", match.Status)
	}
	if match.SimilarityScore != ClaimSimilarityScore {
		t.Fatalf("expected claim similarity %f, got %f", ClaimSimilarityScore, match.SimilarityScore)
	}
	if match.ClaimerID == nil || *match.ClaimerID != claimer {
		t.Fatalf("claimer not recorded")
	}
	if match.LostItemID != nil {
		t.Fatalf("direct claims carry no lost item reference")
	}
	if f.emitter.countByType(enums.EventMatchClaimed) != 1 {
		t.Fatalf("expected match_claimed event")
	}
}

func TestClaimOwnItemRejected(t *testing.T) {
	f := newMatchFixture(t)
	finder := uuid.New()
	found := f.seedFound(finder)

	_, err := f.svc.Claim(context.Background(), ClaimInput{FoundItemID: found.ID, ClaimerID: finder})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestClaimInactiveItemConflicts(t *testing.T) {
	f := newMatchFixture(t)
	found := f.seedFound(uuid.New())
	found.Status = enums.FoundItemStatusReturned

	_, err := f.svc.Claim(context.Background(), ClaimInput{FoundItemID: found.ID, ClaimerID: uuid.New()})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestClaimTwiceConflicts(t *testing.T) {
	f := newMatchFixture(t)
	claimer := uuid.New()
	found := f.seedFound(uuid.New())

	if _, err := f.svc.Claim(context.Background(), ClaimInput{FoundItemID: found.ID, ClaimerID: claimer}); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	_, err := f.svc.Claim(context.Background(), ClaimInput{FoundItemID: found.ID, ClaimerID: claimer})
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestApproveClaimReturnsItemWithoutLostReport(t *testing.T) {
	f := newMatchFixture(t)
	finder := uuid.New()
	claimer := uuid.New()
	found := f.seedFound(finder)

	claim, err := f.svc.Claim(context.Background(), ClaimInput{FoundItemID: found.ID, ClaimerID: claimer})
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	approved, err := f.svc.Approve(context.Background(), claim.ID, finder)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != enums.MatchStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if found.Status != enums.FoundItemStatusReturned {
		t.Fatalf("expected found item returned, got %s", found.Status)
	}
	if got := f.reputation.awards[finder]; got != ReturnReputationDelta {
		t.Fatalf("expected reputation award, got %d", got)
	}
}

func TestGetIsParticipantOnly(t *testing.T) {
	f := newMatchFixture(t)
	lost := f.seedLost(uuid.New())
	found := f.seedFound(uuid.New())
	match := f.seedPending(lost.ID, found.ID)

	if _, err := f.svc.Get(context.Background(), match.ID, lost.OwnerID); err != nil {
		t.Fatalf("lost owner should see the match: %v", err)
	}
	_, err := f.svc.Get(context.Background(), match.ID, uuid.New())
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestListForUserSpansRoles(t *testing.T) {
	f := newMatchFixture(t)
	user := uuid.New()

	lost := f.seedLost(user)
	foundA := f.seedFound(uuid.New())
	f.seedPending(lost.ID, foundA.ID)

	foundB := f.seedFound(user)
	otherLost := f.seedLost(uuid.New())
	f.seedPending(otherLost.ID, foundB.ID)

	rows, err := f.svc.ListForUser(context.Background(), user)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected matches from both roles, got %d", len(rows))
	}
}
