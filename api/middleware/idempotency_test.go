package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type fakeIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]string
	ttls    map[string]time.Duration
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{
		records: map[string]string{},
		ttls:    map[string]time.Duration{},
	}
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.records[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[key]; ok {
		return false, nil
	}
	f.records[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "cf:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.records, key)
		delete(f.ttls, key)
	}
	return nil
}

func requestWithPattern(method, pattern, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestRouteTTLSelection(t *testing.T) {
	cases := []struct {
		name    string
		method  string
		pattern string
		wantTTL time.Duration
		wantOK  bool
	}{
		{"lost item create", http.MethodPost, "/api/v1/lost-items", defaultIdempotencyTTL, true},
		{"lost item create trailing slash", http.MethodPost, "/api/v1/lost-items/", defaultIdempotencyTTL, true},
		{"lost item mark found", http.MethodPost, "/api/v1/lost-items/{itemId}/found", defaultIdempotencyTTL, true},
		{"found item claim", http.MethodPost, "/api/v1/found-items/{itemId}/claim", criticalIdempotencyTTL, true},
		{"match approve", http.MethodPost, "/api/v1/matches/{matchId}/approve", criticalIdempotencyTTL, true},
		{"match reject", http.MethodPost, "/api/v1/matches/{matchId}/reject", criticalIdempotencyTTL, true},
		{"notification read-all", http.MethodPost, "/api/v1/notifications/read-all", defaultIdempotencyTTL, true},
		{"list is not idempotent-guarded", http.MethodGet, "/api/v1/lost-items", 0, false},
		{"unknown route", http.MethodPost, "/api/v1/unknown", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ttl, ok := routeTTL(tc.method, tc.pattern)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v got %v", tc.wantOK, ok)
			}
			if ttl != tc.wantTTL {
				t.Fatalf("expected ttl %s got %s", tc.wantTTL, ttl)
			}
		})
	}
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	store := newFakeIdempotencyStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := requestWithPattern(http.MethodPost, "/api/v1/lost-items", "/api/v1/lost-items", `{"a":1}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"abc"}}`))
	}))

	body := `{"item_type":"electronics"}`

	first := requestWithPattern(http.MethodPost, "/api/v1/lost-items", "/api/v1/lost-items", body)
	first.Header.Set("Idempotency-Key", "key-1")
	firstResp := httptest.NewRecorder()
	handler.ServeHTTP(firstResp, first)
	if firstResp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", firstResp.Code)
	}

	second := requestWithPattern(http.MethodPost, "/api/v1/lost-items", "/api/v1/lost-items", body)
	second.Header.Set("Idempotency-Key", "key-1")
	secondResp := httptest.NewRecorder()
	handler.ServeHTTP(secondResp, second)

	if calls != 1 {
		t.Fatalf("handler should run once, ran %d times", calls)
	}
	if secondResp.Code != http.StatusCreated {
		t.Fatalf("replay should return stored status, got %d", secondResp.Code)
	}
	if secondResp.Body.String() != firstResp.Body.String() {
		t.Fatalf("replay body mismatch: %s vs %s", secondResp.Body.String(), firstResp.Body.String())
	}
	if got := secondResp.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected replayed content type, got %q", got)
	}
}

func TestIdempotencyRejectsBodyChange(t *testing.T) {
	store := newFakeIdempotencyStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	first := requestWithPattern(http.MethodPost, "/api/v1/lost-items", "/api/v1/lost-items", `{"item_type":"electronics"}`)
	first.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := requestWithPattern(http.MethodPost, "/api/v1/lost-items", "/api/v1/lost-items", `{"item_type":"keys"}`)
	second.Header.Set("Idempotency-Key", "key-1")
	secondResp := httptest.NewRecorder()
	handler.ServeHTTP(secondResp, second)

	if secondResp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", secondResp.Code)
	}
}

func TestIdempotencyStoresCriticalTTL(t *testing.T) {
	store := newFakeIdempotencyStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := requestWithPattern(http.MethodPost, "/api/v1/matches/{matchId}/approve", "/api/v1/matches/abc/approve", `{}`)
	req.Header.Set("Idempotency-Key", "key-critical")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.ttls) != 1 {
		t.Fatalf("expected one stored record, got %d", len(store.ttls))
	}
	for _, ttl := range store.ttls {
		if ttl != criticalIdempotencyTTL {
			t.Fatalf("expected critical ttl, got %s", ttl)
		}
	}
}
