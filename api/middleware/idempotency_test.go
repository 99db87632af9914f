package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/kynkyro/shaderstore-backend/pkg/errors"
	"github.com/kynkyro/shaderstore-backend/pkg/logger"
	"github.com/kynkyro/shaderstore-backend/pkg/types"
)

type fakeIdempotencyStore struct {
	records map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{records: map[string]string{}}
}

func (s *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.records[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.records[key]; ok {
		return false, nil
	}
	s.records[key] = fmt.Sprint(value)
	return true, nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "ks:idem:" + scope + ":" + id
}

func idemTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newIdempotencyRouter(store IdempotencyStore, calls *int) http.Handler {
	r := chi.NewRouter()
	r.With(Idempotency(store, time.Hour, idemTestLogger())).
		Post("/api/v1/checkout/submit", func(w http.ResponseWriter, _ *http.Request) {
			*calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"data":{"order_ref":"ord_%d"}}`, *calls)
		})
	return r
}

func postSubmit(t *testing.T, handler http.Handler, shopperID, key, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/submit", bytes.NewBufferString(body))
	if shopperID != "" {
		r = r.WithContext(WithShopperID(r.Context(), shopperID))
	}
	if key != "" {
		r.Header.Set("Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	var calls int
	handler := newIdempotencyRouter(newFakeIdempotencyStore(), &calls)

	w := postSubmit(t, handler, "shopper-1", "", `{"payment_reference":"tok_visa"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if calls != 0 {
		t.Fatal("handler must not run without an idempotency key")
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	var calls int
	handler := newIdempotencyRouter(newFakeIdempotencyStore(), &calls)
	body := `{"payment_reference":"tok_visa"}`

	first := postSubmit(t, handler, "shopper-1", "key-1", body)
	second := postSubmit(t, handler, "shopper-1", "key-1", body)

	if calls != 1 {
		t.Fatalf("expected exactly one real submission, got %d", calls)
	}
	if second.Code != first.Code {
		t.Fatalf("replay status %d differs from original %d", second.Code, first.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replay body %q differs from original %q", second.Body.String(), first.Body.String())
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("replay should carry the stored content type, got %q", ct)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	var calls int
	handler := newIdempotencyRouter(newFakeIdempotencyStore(), &calls)

	postSubmit(t, handler, "shopper-1", "key-1", `{"payment_reference":"tok_visa"}`)
	w := postSubmit(t, handler, "shopper-1", "key-1", `{"payment_reference":"tok_mastercard"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
	if calls != 1 {
		t.Fatalf("second request must not reach the handler, got %d calls", calls)
	}
}

func TestIdempotencyScopesKeysToShopper(t *testing.T) {
	var calls int
	handler := newIdempotencyRouter(newFakeIdempotencyStore(), &calls)
	body := `{"payment_reference":"tok_visa"}`

	postSubmit(t, handler, "shopper-1", "key-1", body)
	postSubmit(t, handler, "shopper-2", "key-1", body)

	if calls != 2 {
		t.Fatalf("different shoppers must not share idempotency records, got %d calls", calls)
	}
}

func TestIdempotencyIgnoresUnprotectedRoutes(t *testing.T) {
	var calls int
	r := chi.NewRouter()
	r.With(Idempotency(newFakeIdempotencyStore(), time.Hour, idemTestLogger())).
		Get("/api/v1/cart", func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(http.StatusOK)
		})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || calls != 1 {
		t.Fatalf("unprotected route must pass through, status %d calls %d", w.Code, calls)
	}
}
