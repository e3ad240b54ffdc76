package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mserebryaakov/aggregator-client-service/pkg/apiclient"
	"github.com/mserebryaakov/aggregator-client-service/pkg/storage"
	"github.com/sirupsen/logrus"
)

type AuthLogHook struct{}

func (h *AuthLogHook) Fire(entry *logrus.Entry) error {
	entry.Message = "Auth: " + entry.Message
	return nil
}

func (h *AuthLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

type User struct {
	TelegramUserID string `json:"telegramUserId"`
	Name           string `json:"name"`
	PhoneNumber    string `json:"phoneNumber"`
	Token          string `json:"token"`
}

type LoginRequest struct {
	TelegramUserID string `json:"telegramUserId"`
	PhoneNumber    string `json:"phoneNumber"`
}

type RegisterRequest struct {
	TelegramUserID string `json:"telegramUserId"`
	PhoneNumber    string `json:"phoneNumber"`
	Name           string `json:"name"`
}

// authRecord is the structured auth state persisted under the auth-store
// key; the token duplicate under auth-token is the fallback location.
type authRecord struct {
	User User `json:"user"`
}

type authService struct {
	client *apiclient.Client
	store  storage.Storage
	log    *logrus.Entry
}

func NewService(client *apiclient.Client, store storage.Storage, log *logrus.Entry) *authService {
	return &authService{
		client: client,
		store:  store,
		log:    log,
	}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*User, error) {
	var user User
	err := s.client.Post(ctx, "/user/login", req, &user, nil)
	if err != nil {
		s.log.Errorf("login failed - %v", err)
		return nil, err
	}

	if err := s.persistUser(user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	err := s.client.Post(ctx, "/user/register", req, &user, nil)
	if err != nil {
		s.log.Errorf("register failed - %v", err)
		return nil, err
	}

	if err := s.persistUser(user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *authService) FetchUser(ctx context.Context, telegramUserID string) (*User, error) {
	var user User
	err := s.client.Get(ctx, fmt.Sprintf("/user/%s", telegramUserID), &user, nil)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser returns the persisted auth record, or nil when logged out.
func (s *authService) CurrentUser() (*User, error) {
	value, ok, err := s.store.Load(storage.KeyAuthStore)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth store - %v", err)
	}
	if !ok {
		return nil, nil
	}

	var record authRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return nil, fmt.Errorf("failed to decode auth store - %v", err)
	}
	return &record.User, nil
}

// ClearUserData wipes both auth locations.
func (s *authService) ClearUserData() {
	if err := s.store.Clear(storage.KeyAuthStore); err != nil {
		s.log.Errorf("failed to clear auth store - %v", err)
	}
	if err := s.store.Clear(storage.KeyAuthToken); err != nil {
		s.log.Errorf("failed to clear auth token - %v", err)
	}
}

func (s *authService) persistUser(user User) error {
	value, err := json.Marshal(authRecord{User: user})
	if err != nil {
		return fmt.Errorf("failed to encode auth record - %v", err)
	}
	if err := s.store.Save(storage.KeyAuthStore, value); err != nil {
		s.log.Errorf("failed to persist auth record - %v", err)
		return err
	}
	if err := s.store.Save(storage.KeyAuthToken, []byte(user.Token)); err != nil {
		s.log.Errorf("failed to persist auth token - %v", err)
		return err
	}
	return nil
}
