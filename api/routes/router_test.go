package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/internal/auth"
	"github.com/campusfind/campusfind-backend/internal/dashboard"
	"github.com/campusfind/campusfind-backend/internal/items"
	"github.com/campusfind/campusfind-backend/internal/matches"
	"github.com/campusfind/campusfind-backend/internal/notifications"
	"github.com/campusfind/campusfind-backend/internal/users"
	pkgAuth "github.com/campusfind/campusfind-backend/pkg/auth"
	"github.com/campusfind/campusfind-backend/pkg/config"
	"github.com/campusfind/campusfind-backend/pkg/db/models"
	"github.com/campusfind/campusfind-backend/pkg/logger"
	"github.com/campusfind/campusfind-backend/pkg/pagination"
	"github.com/campusfind/campusfind-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResponse, error) {
	return &auth.RegisterResponse{}, nil
}

type stubLostService struct {
	listFn func(ctx context.Context, ownerID uuid.UUID, params pagination.Params, status string) (*items.LostItemPage, error)
}

func (s stubLostService) Report(ctx context.Context, input items.ReportLostItemInput) (*models.LostItem, error) {
	return &models.LostItem{}, nil
}

func (s stubLostService) Get(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.LostItem, error) {
	return &models.LostItem{}, nil
}

func (s stubLostService) ListByOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params, status string) (*items.LostItemPage, error) {
	if s.listFn != nil {
		return s.listFn(ctx, ownerID, params, status)
	}
	return &items.LostItemPage{}, nil
}

func (s stubLostService) MarkAsFound(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.LostItem, error) {
	return &models.LostItem{}, nil
}

func (s stubLostService) Close(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.LostItem, error) {
	return &models.LostItem{}, nil
}

func (s stubLostService) Delete(ctx context.Context, itemID, actorUserID uuid.UUID) error {
	return nil
}

type stubFoundService struct{}

func (stubFoundService) Report(ctx context.Context, input items.ReportFoundItemInput) (*models.FoundItem, error) {
	return &models.FoundItem{}, nil
}

func (stubFoundService) Get(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.FoundItem, error) {
	return &models.FoundItem{}, nil
}

func (stubFoundService) ListByOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params, status string) (*items.FoundItemPage, error) {
	return &items.FoundItemPage{}, nil
}

func (stubFoundService) MarkAsReturned(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.FoundItem, error) {
	return &models.FoundItem{}, nil
}

func (stubFoundService) Close(ctx context.Context, itemID, actorUserID uuid.UUID) (*models.FoundItem, error) {
	return &models.FoundItem{}, nil
}

func (stubFoundService) Delete(ctx context.Context, itemID, actorUserID uuid.UUID) error {
	return nil
}

type stubMatchService struct{}

func (stubMatchService) Approve(ctx context.Context, matchID, actorUserID uuid.UUID) (*models.Match, error) {
	return &models.Match{}, nil
}

func (stubMatchService) Reject(ctx context.Context, matchID, actorUserID uuid.UUID) (*models.Match, error) {
	return &models.Match{}, nil
}

func (stubMatchService) Claim(ctx context.Context, input matches.ClaimInput) (*models.Match, error) {
	return &models.Match{}, nil
}

func (stubMatchService) Get(ctx context.Context, matchID, actorUserID uuid.UUID) (*models.Match, error) {
	return &models.Match{}, nil
}

func (stubMatchService) ListForLostItem(ctx context.Context, lostItemID, actorUserID uuid.UUID) ([]models.Match, error) {
	return nil, nil
}

func (stubMatchService) ListForFoundItem(ctx context.Context, foundItemID, actorUserID uuid.UUID) ([]models.Match, error) {
	return nil, nil
}

func (stubMatchService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Match, error) {
	return nil, nil
}

type stubDashboardService struct{}

func (stubDashboardService) Summary(ctx context.Context, userID uuid.UUID) (*dashboard.Summary, error) {
	return &dashboard.Summary{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubUsersService struct{}

func (stubUsersService) GetProfile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

func (stubUsersService) AwardReputation(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int, reason string) (int, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubPinger{},
		stubAuthService{},
		stubRegisterService{},
		stubLostService{},
		stubFoundService{},
		stubMatchService{},
		stubDashboardService{},
		stubNotificationsService{},
		stubUsersService{},
	)
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestPublicPingNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public ping got %d", resp.Code)
	}
}

func TestHealthLiveNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestLostItemListRequiresToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	anonymous := httptest.NewRequest(http.MethodGet, "/api/v1/lost-items", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anonymous)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodGet, "/api/v1/lost-items", nil)
	authed.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestLostItemCreateRejectsBadJSON(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lost-items", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestDashboardRequiresToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for dashboard got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:     uuid.New(),
		Email:      "ab1234@columbia.edu",
		University: "columbia",
		JTI:        uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
