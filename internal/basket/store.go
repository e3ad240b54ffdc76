package basket

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mserebryaakov/aggregator-client-service/pkg/storage"
	"github.com/sirupsen/logrus"
)

// Store holds the basket rows and the single "dish being edited" slot.
// Every mutation writes the full item list (and, independently, the
// editing slot) through to durable storage.
type Store struct {
	mu          sync.Mutex
	items       []BasketItem
	editingDish *CustomDishDraft

	store storage.Storage
	log   *logrus.Entry
}

func NewStore(store storage.Storage, log *logrus.Entry) (*Store, error) {
	s := &Store{
		store: store,
		log:   log,
	}

	if err := s.rehydrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) rehydrate() error {
	value, ok, err := s.store.Load(storage.KeyBasketItems)
	if err != nil {
		return fmt.Errorf("failed to load basket - %v", err)
	}
	if ok {
		if err := json.Unmarshal(value, &s.items); err != nil {
			return fmt.Errorf("failed to decode saved basket - %v", err)
		}
	}

	value, ok, err = s.store.Load(storage.KeyEditingCustomDish)
	if err != nil {
		return fmt.Errorf("failed to load editing dish - %v", err)
	}
	if ok {
		var draft CustomDishDraft
		if err := json.Unmarshal(value, &draft); err != nil {
			return fmt.Errorf("failed to decode saved editing dish - %v", err)
		}
		s.editingDish = &draft
	}

	return nil
}

// AddItem merges the incoming item into an existing row with equal identity
// or appends a new row. Quantity defaults to 1.
func (s *Store) AddItem(item BasketItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if item.IsCustom && item.ID == "" {
		item.ID = uuid.NewString()
	}

	identity := item.identity()
	merged := false
	for i := range s.items {
		if s.items[i].identity() == identity {
			s.items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, item)
	}

	return s.persistItems()
}

// UpdateQuantity sets the row quantity; a value of zero or less removes
// the row entirely.
func (s *Store) UpdateQuantity(id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(id)
		return s.persistItems()
	}

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = quantity
			break
		}
	}

	return s.persistItems()
}

func (s *Store) RemoveItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(id)
	return s.persistItems()
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.persistItems()
}

func (s *Store) removeLocked(id string) {
	filtered := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			filtered = append(filtered, item)
		}
	}
	s.items = filtered
}

// SetEditingDish replaces the editing slot. A prior uncommitted draft is
// discarded without warning and returned so callers may surface it.
func (s *Store) SetEditingDish(draft CustomDishDraft) (*CustomDishDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	discarded := s.editingDish
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	s.editingDish = &draft

	return discarded, s.persistEditingDish()
}

func (s *Store) ClearEditingDish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editingDish = nil
	return s.persistEditingDish()
}

func (s *Store) Items() []BasketItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]BasketItem, len(s.items))
	copy(items, s.items)
	return items
}

func (s *Store) EditingDish() *CustomDishDraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editingDish == nil {
		return nil
	}
	draft := *s.editingDish
	return &draft
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

func (s *Store) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0.0
	for _, item := range s.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (s *Store) ItemQuantity(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == id {
			return item.Quantity
		}
	}
	return 0
}

func (s *Store) persistItems() error {
	items := s.items
	if items == nil {
		items = []BasketItem{}
	}

	value, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode basket - %v", err)
	}
	if err := s.store.Save(storage.KeyBasketItems, value); err != nil {
		s.log.Errorf("failed to persist basket - %v", err)
		return err
	}
	return nil
}

func (s *Store) persistEditingDish() error {
	if s.editingDish == nil {
		if err := s.store.Clear(storage.KeyEditingCustomDish); err != nil {
			s.log.Errorf("failed to clear editing dish - %v", err)
			return err
		}
		return nil
	}

	value, err := json.Marshal(s.editingDish)
	if err != nil {
		return fmt.Errorf("failed to encode editing dish - %v", err)
	}
	if err := s.store.Save(storage.KeyEditingCustomDish, value); err != nil {
		s.log.Errorf("failed to persist editing dish - %v", err)
		return err
	}
	return nil
}
