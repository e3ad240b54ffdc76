package auth

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

func newTestService(baseURL string, store storage.Storage) *authService {
	log := logrus.New()
	log.SetOutput(io.Discard)

	client := apiclient.NewClient(apiclient.Config{
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
		RetryCount: 0,
		RetryDelay: time.Millisecond,
	}, store, logrus.NewEntry(log))

	return NewService(client, store, logrus.NewEntry(log))
}

func TestFetchUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/user/42" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(User{TelegramUserID: "42", Name: "Иван"})
	}))
	defer server.Close()

	service := newTestService(server.URL, storage.NewMemoryStorage())

	user, err := service.FetchUser(context.Background(), "42")
	if err != nil {
		t.Fatalf("fetch user: %v", err)
	}
	if user.TelegramUserID != "42" || user.Name != "Иван" {
		t.Errorf("user = %+v", user)
	}
}

func TestLoginPersistsAuthRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(User{TelegramUserID: "42", Name: "Иван", Token: "token-1"})
	}))
	defer server.Close()

	store := storage.NewMemoryStorage()
	service := newTestService(server.URL, store)

	user, err := service.Login(context.Background(), LoginRequest{TelegramUserID: "42", PhoneNumber: "+79990001122"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Token != "token-1" {
		t.Errorf("user = %+v", user)
	}

	value, ok, _ := store.Load(storage.KeyAuthStore)
	if !ok {
		t.Fatalf("auth record not persisted")
	}
	var record authRecord
	if err := json.Unmarshal(value, &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record.User.Token != "token-1" {
		t.Errorf("record = %+v", record)
	}

	if value, ok, _ := store.Load(storage.KeyAuthToken); !ok || string(value) != "token-1" {
		t.Errorf("token fallback = %q, ok = %v", value, ok)
	}

	current, err := service.CurrentUser()
	if err != nil || current == nil || current.Name != "Иван" {
		t.Errorf("current user = %+v, err = %v", current, err)
	}
}

func TestClearUserData(t *testing.T) {
	store := storage.NewMemoryStorage()
	store.Save(storage.KeyAuthStore, []byte(`{"user":{"token":"token-1"}}`))
	store.Save(storage.KeyAuthToken, []byte("token-1"))

	service := newTestService("http://localhost", store)
	service.ClearUserData()

	for _, key := range []string{storage.KeyAuthStore, storage.KeyAuthToken} {
		if _, ok, _ := store.Load(key); ok {
			t.Errorf("key %s should be cleared", key)
		}
	}
}
