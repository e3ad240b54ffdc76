package storage

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Well-known state keys. Absence of a key is empty state, not an error.
const (
	KeyBasketItems       = "basketItems"
	KeyEditingCustomDish = "editingCustomDish"
	KeyCurrentOrder      = "currentOrder"
	KeyOrderForPayment   = "orderForPayment"
	KeyPaymentResult     = "paymentResult"
	KeyAuthStore         = "auth-store"
	KeyAuthToken         = "auth-token"
)

type Storage interface {
	Load(key string) ([]byte, bool, error)
	Save(key string, value []byte) error
	Clear(key string) error
}

type ClientState struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

type clientStateStorage struct {
	db *gorm.DB
}

func NewStorage(db *gorm.DB) Storage {
	return &clientStateStorage{
		db: db,
	}
}

func (s *clientStateStorage) Load(key string) ([]byte, bool, error) {
	var state ClientState
	err := s.db.Where("key = ?", key).First(&state).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load state %s - %s", key, err)
	}
	return state.Value, true, nil
}

func (s *clientStateStorage) Save(key string, value []byte) error {
	state := ClientState{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	result := s.db.Save(&state)
	if result.Error != nil {
		return fmt.Errorf("failed to save state %s - %s", key, result.Error)
	}
	return nil
}

func (s *clientStateStorage) Clear(key string) error {
	result := s.db.Where("key = ?", key).Delete(&ClientState{})
	if result.Error != nil {
		return fmt.Errorf("failed to clear state %s - %s", key, result.Error)
	}
	return nil
}

func RunMigration(db *gorm.DB) error {
	migrator := db.Migrator()

	if !migrator.HasTable(&ClientState{}) {
		if err := db.AutoMigrate(&ClientState{}); err != nil {
			return err
		}
	}

	return nil
}
