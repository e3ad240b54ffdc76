package order

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mserebryaakov/aggregator-client-service/pkg/apiclient"
	"github.com/mserebryaakov/aggregator-client-service/pkg/storage"
	"github.com/sirupsen/logrus"
)

func newTestApiClient(baseURL string) *apiclient.Client {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return apiclient.NewClient(apiclient.Config{
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
		RetryCount: 0,
		RetryDelay: time.Millisecond,
	}, storage.NewMemoryStorage(), logrus.NewEntry(log))
}

func newTestAdapter(baseURL string) *orderAdapter {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewOrderAdapter(newTestApiClient(baseURL), logrus.NewEntry(log))
}

func TestFetchOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/orders/order-1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(Order{ID: "order-1", Status: StatusCreated, TotalPrice: 1300})
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	order, err := adapter.Fetch(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if order.ID != "order-1" || order.Status != StatusCreated {
		t.Errorf("order = %+v", order)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	var gotMethod, gotPath, gotStatus string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path

		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotStatus = body["status"]

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	if err := adapter.UpdateStatus(context.Background(), "order-1", StatusRejected); err != nil {
		t.Fatalf("update status: %v", err)
	}

	if gotMethod != http.MethodPatch || gotPath != "/orders/order-1/status" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
	if gotStatus != StatusRejected {
		t.Errorf("status = %q, want %q", gotStatus, StatusRejected)
	}
}

func TestUpdateOrderStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := newTestAdapter(server.URL)

	err := adapter.UpdateStatus(context.Background(), "missing", StatusPaid)
	apiErr, ok := err.(*apiclient.Error)
	if !ok || apiErr.Type != apiclient.NotFoundError {
		t.Errorf("err = %v, want NOT_FOUND_ERROR", err)
	}
}
