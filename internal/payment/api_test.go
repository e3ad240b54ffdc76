package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mserebryaakov/aggregator-client-service/pkg/apiclient"
	"github.com/mserebryaakov/aggregator-client-service/pkg/storage"
	"github.com/sirupsen/logrus"
)

func newTestAdapter(baseURL string) *paymentAdapter {
	log := logrus.New()
	log.SetOutput(io.Discard)

	client := apiclient.NewClient(apiclient.Config{
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
		RetryCount: 0,
		RetryDelay: time.Millisecond,
	}, storage.NewMemoryStorage(), logrus.NewEntry(log))

	return NewPaymentAdapter(client, logrus.NewEntry(log))
}

func TestConfirmAndReject(t *testing.T) {
	tests := []struct {
		name     string
		call     func(a *paymentAdapter) error
		wantPath string
	}{
		{
			name:     "confirm",
			call:     func(a *paymentAdapter) error { return a.Confirm(context.Background(), "order-1") },
			wantPath: "/payments/order-1/confirm",
		},
		{
			name:     "reject",
			call:     func(a *paymentAdapter) error { return a.Reject(context.Background(), "order-1") },
			wantPath: "/payments/order-1/reject",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMethod, gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			if err := tt.call(newTestAdapter(server.URL)); err != nil {
				t.Fatalf("call: %v", err)
			}
			if gotMethod != http.MethodPost || gotPath != tt.wantPath {
				t.Errorf("request = %s %s, want POST %s", gotMethod, gotPath, tt.wantPath)
			}
		})
	}
}

func TestCreateSendsIdempotenceKey(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotence-Key")
		w.Write([]byte(`{"id":"pay-1","orderId":"order-1","status":"pending"}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	result, err := adapter.Create(context.Background(), CreatePayment{OrderID: "order-1", Method: "card", Amount: 1300})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.ID != "pay-1" {
		t.Errorf("result = %+v", result)
	}
	if gotKey == "" {
		t.Errorf("idempotence key header missing")
	}
}

func TestConfirmError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	err := newTestAdapter(server.URL).Confirm(context.Background(), "order-1")
	apiErr, ok := err.(*apiclient.Error)
	if !ok || apiErr.Type != apiclient.AuthorizationError {
		t.Errorf("err = %v, want AUTHORIZATION_ERROR", err)
	}
}
