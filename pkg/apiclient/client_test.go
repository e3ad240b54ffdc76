package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mserebryaakov/aggregator-client-service/pkg/storage"
	"github.com/sirupsen/logrus"
)

func newTestClient(baseURL string, store storage.Storage) *Client {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewClient(Config{
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
		RetryCount: 3,
		RetryDelay: time.Millisecond,
	}, store, logrus.NewEntry(log))
}

func TestGetDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("missing accept header")
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "order-1"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, storage.NewMemoryStorage())

	var out struct {
		ID string `json:"id"`
	}
	if err := client.Get(context.Background(), "/orders/order-1", &out, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.ID != "order-1" {
		t.Errorf("decoded id = %q", out.ID)
	}
}

func TestServerErrorRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, storage.NewMemoryStorage())

	err := client.Get(context.Background(), "/orders", nil, nil)
	apiErr, ok := err.(*Error)
	if !ok || apiErr.Type != ServerError {
		t.Fatalf("err = %v, want SERVER_ERROR", err)
	}

	// initial attempt plus three retries
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Errorf("calls = %d, want 4", got)
	}
}

func TestRetrySucceedsMidway(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "order-1"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, storage.NewMemoryStorage())

	var out struct {
		ID string `json:"id"`
	}
	if err := client.Get(context.Background(), "/orders/order-1", &out, nil); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestValidationErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "Телефон обязателен"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, storage.NewMemoryStorage())

	err := client.Post(context.Background(), "/orders", map[string]string{}, nil, nil)
	apiErr, ok := err.(*Error)
	if !ok || apiErr.Type != ValidationError {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
	if apiErr.Message != "Телефон обязателен" {
		t.Errorf("server message not preferred: %q", apiErr.Message)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestUnauthorizedClearsAuthAndSignalsOnce(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := storage.NewMemoryStorage()
	store.Save(storage.KeyAuthStore, []byte(`{"user":{"token":"stale"}}`))
	store.Save(storage.KeyAuthToken, []byte("stale"))

	client := newTestClient(server.URL, store)

	var signals []string
	client.SetUnauthorizedHandler(func(message string) {
		signals = append(signals, message)
	})

	err := client.Get(context.Background(), "/orders", nil, nil)
	apiErr, ok := err.(*Error)
	if !ok || apiErr.Type != AuthenticationError {
		t.Fatalf("err = %v, want AUTHENTICATION_ERROR", err)
	}
	if apiErr.Message != authRequiredMessage {
		t.Errorf("message = %q, want rewritten auth message", apiErr.Message)
	}

	// never retried
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
	if len(signals) != 1 {
		t.Errorf("unauthorized signals = %d, want 1", len(signals))
	}

	for _, key := range []string{storage.KeyAuthStore, storage.KeyAuthToken} {
		if _, ok, _ := store.Load(key); ok {
			t.Errorf("key %s should be cleared after 401", key)
		}
	}
}

func TestAuthorizationHeaderFromStore(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	tests := []struct {
		name  string
		setup func(store storage.Storage)
		want  string
	}{
		{
			name: "structured record preferred",
			setup: func(store storage.Storage) {
				store.Save(storage.KeyAuthStore, []byte(`{"user":{"token":"record-token"}}`))
				store.Save(storage.KeyAuthToken, []byte("plain-token"))
			},
			want: "Bearer record-token",
		},
		{
			name: "plain token fallback",
			setup: func(store storage.Storage) {
				store.Save(storage.KeyAuthToken, []byte("plain-token"))
			},
			want: "Bearer plain-token",
		},
		{
			name:  "no token",
			setup: func(store storage.Storage) {},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStorage()
			tt.setup(store)
			gotAuth = ""

			client := newTestClient(server.URL, store)
			if err := client.Get(context.Background(), "/orders", nil, nil); err != nil {
				t.Fatalf("get: %v", err)
			}
			if gotAuth != tt.want {
				t.Errorf("authorization = %q, want %q", gotAuth, tt.want)
			}
		})
	}
}

func TestNetworkErrorClassification(t *testing.T) {
	// closed server: connection refused
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL, storage.NewMemoryStorage())

	err := client.Get(context.Background(), "/orders", nil, nil)
	apiErr, ok := err.(*Error)
	if !ok || apiErr.Type != NetworkError {
		t.Fatalf("err = %v, want NETWORK_ERROR", err)
	}
}

func TestContextCancellationStopsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, storage.NewMemoryStorage())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Get(ctx, "/orders", nil, nil)
	if err == nil {
		t.Fatalf("expected error with cancelled context")
	}
	if got := atomic.LoadInt32(&calls); got > 1 {
		t.Errorf("calls = %d, cancelled context must not retry", got)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{http.StatusBadRequest, ValidationError},
		{http.StatusUnauthorized, AuthenticationError},
		{http.StatusForbidden, AuthorizationError},
		{http.StatusNotFound, NotFoundError},
		{http.StatusUnprocessableEntity, ValidationError},
		{http.StatusInternalServerError, ServerError},
		{http.StatusServiceUnavailable, ServerError},
		{http.StatusTeapot, UnknownError},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status, nil).Type; got != tt.want {
			t.Errorf("classifyStatus(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestRequestHeaders(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Idempotence-Key")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL, storage.NewMemoryStorage())

	opts := &RequestOptions{Headers: map[string]string{"Idempotence-Key": "key-1"}}
	if err := client.Post(context.Background(), "/payments", nil, nil, opts); err != nil {
		t.Fatalf("post: %v", err)
	}
	if gotHeader != "key-1" {
		t.Errorf("idempotence key = %q", gotHeader)
	}
}
