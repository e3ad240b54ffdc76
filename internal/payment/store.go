package payment

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mserebryaakov/aggregator-client-service/pkg/storage"
	"github.com/sirupsen/logrus"
)

// Store drives the four-phase payment machine. Only the payment result is
// persisted; phase and error message always start over at idle after a
// reload, even when a result exists.
type Store struct {
	mu sync.Mutex

	selectedMethod string
	phase          Phase
	result         *PaymentResult
	errorMessage   string

	store storage.Storage
	log   *logrus.Entry
}

func NewStore(store storage.Storage, log *logrus.Entry) (*Store, error) {
	s := &Store{
		phase: PhaseIdle,
		store: store,
		log:   log,
	}

	value, ok, err := store.Load(storage.KeyPaymentResult)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment result - %v", err)
	}
	if ok {
		var result PaymentResult
		if err := json.Unmarshal(value, &result); err != nil {
			return nil, fmt.Errorf("failed to decode saved payment result - %v", err)
		}
		s.result = &result
	}

	return s, nil
}

func (s *Store) SetPaymentMethod(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedMethod = method
}

func (s *Store) SetPhase(phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
}

// SetPaymentResult stores the result and forces the phase to success
// regardless of the current phase.
func (s *Store) SetPaymentResult(result PaymentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.result = &result
	s.phase = PhaseSuccess
	return s.persistResult()
}

// SetErrorMessage records the message and forces the phase to error.
func (s *Store) SetErrorMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errorMessage = message
	s.phase = PhaseError
}

// ClearPaymentData resets method, phase and error message but keeps the
// payment result.
func (s *Store) ClearPaymentData() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectedMethod = ""
	s.phase = PhaseIdle
	s.errorMessage = ""
}

// ClearPaymentResult drops only the result.
func (s *Store) ClearPaymentResult() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.result = nil
	return s.persistResult()
}

func (s *Store) SelectedMethod() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedMethod
}

func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Store) Result() *PaymentResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return nil
	}
	result := *s.result
	return &result
}

func (s *Store) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorMessage
}

func (s *Store) IsLoading() bool {
	return s.Phase() == PhaseLoading
}

func (s *Store) IsSuccess() bool {
	return s.Phase() == PhaseSuccess
}

func (s *Store) IsError() bool {
	return s.Phase() == PhaseError
}

func (s *Store) persistResult() error {
	if s.result == nil {
		if err := s.store.Clear(storage.KeyPaymentResult); err != nil {
			s.log.Errorf("failed to clear payment result - %v", err)
			return err
		}
		return nil
	}

	value, err := json.Marshal(s.result)
	if err != nil {
		return fmt.Errorf("failed to encode payment result - %v", err)
	}
	if err := s.store.Save(storage.KeyPaymentResult, value); err != nil {
		s.log.Errorf("failed to persist payment result - %v", err)
		return err
	}
	return nil
}
