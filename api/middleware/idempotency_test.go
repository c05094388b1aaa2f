package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	str, _ := value.(string)
	f.data[key] = str
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func checkoutRequest(body, key string) *http.Request {
	req := requestWithPattern(http.MethodPost, checkoutRoute, checkoutRoute, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req.WithContext(WithUserID(req.Context(), "user-1"))
}

func TestGuardedRoutes(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    bool
	}{
		{"checkout", http.MethodPost, "/api/v1/checkout", true},
		{"checkout get", http.MethodGet, "/api/v1/checkout", false},
		{"webhook", http.MethodPost, "/api/v1/payments/webhook", false},
		{"admin status", http.MethodPatch, "/api/v1/admin/orders/{orderId}/status", false},
		{"empty", http.MethodPost, "", false},
	}

	for _, tt := range tests {
		if got := guarded(tt.method, tt.pattern); got != tt.want {
			t.Fatalf("%s: expected %v got %v", tt.name, tt.want, got)
		}
	}
}

func TestIdempotencyMiddlewarePassesThroughWithoutHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, checkoutRequest(`{"cart":[]}`, ""))
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d", resp.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("nothing should be stored without a key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, 2*time.Hour, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"orderId":"abc"}}`))
	})

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, checkoutRequest(`{"cart":[1]}`, "abc"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", resp.Code)
	}

	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, checkoutRequest(`{"cart":[1]}`, "abc"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"data":{"orderId":"abc"}}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
	for _, ttl := range store.ttls {
		if ttl != 2*time.Hour {
			t.Fatalf("expected configured ttl, got %v", ttl)
		}
	}
}

func TestIdempotencyMiddlewareDoesNotStoreFailures(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusConflict)
	})

	mw(handler).ServeHTTP(httptest.NewRecorder(), checkoutRequest(`{}`, "k1"))
	mw(handler).ServeHTTP(httptest.NewRecorder(), checkoutRequest(`{}`, "k1"))
	if calls != 2 {
		t.Fatalf("failed responses must not be replayed, handler ran %d times", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("failed response must release the key, store has %v", store.data)
	}
}

func TestIdempotencyMiddlewareRunsConcurrentDuplicateOnce(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"orderId":"o-1"}}`))
	})

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := httptest.NewRecorder()
			mw(handler).ServeHTTP(resp, checkoutRequest(`{"cart":[1]}`, "same-key"))
			codes[i] = resp.Code
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected checkout to run once for one key, ran %d times", got)
	}
	for _, code := range codes {
		if code != http.StatusCreated && code != http.StatusConflict {
			t.Fatalf("unexpected status %d, codes %v", code, codes)
		}
	}
	if codes[0] == codes[1] && codes[0] == http.StatusConflict {
		t.Fatalf("one request must succeed, codes %v", codes)
	}
}

func TestIdempotencyMiddlewareRejectsInFlightDuplicate(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	entered := make(chan struct{})
	finish := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-finish
		w.WriteHeader(http.StatusCreated)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		mw(handler).ServeHTTP(httptest.NewRecorder(), checkoutRequest(`{"cart":[1]}`, "busy"))
	}()
	<-entered

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, checkoutRequest(`{"cart":[1]}`, "busy"))
	close(finish)
	<-done

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for in-flight duplicate, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), string(pkgerrors.CodeIdempotency)) {
		t.Fatalf("expected %s in body, got %s", pkgerrors.CodeIdempotency, resp.Body.String())
	}
}

func TestIdempotencyMiddlewareReleasesKeyOnPanic(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		mw(handler).ServeHTTP(httptest.NewRecorder(), checkoutRequest(`{}`, "p1"))
	}()

	if len(store.data) != 0 {
		t.Fatalf("panicking handler must release the key, store has %v", store.data)
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	mw(handler).ServeHTTP(httptest.NewRecorder(), checkoutRequest(`{"foo":"bar"}`, "xyz"))

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, checkoutRequest(`{"foo":"diff"}`, "xyz"))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}
