package order

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mserebryaakov/aggregator-client-service/pkg/storage"
	"github.com/sirupsen/logrus"
)

// Channel is the real-time push capability the store may or may not hold.
type Channel interface {
	Connect() error
	Subscribe(subject string, handler func(msg []byte)) (func(), error)
}

// Notifier is the user-facing message sink for push-driven transitions.
type Notifier interface {
	Success(message string)
	Error(message string)
	Info(message string)
}

// Store holds the in-progress order draft, the submitted order awaiting
// payment, the push-derived payment status and the admin notification log.
// Each region is mutated only through the store's own actions; push events
// go through the reducer under the same lock, so compound effects are
// atomic relative to direct mutations.
type Store struct {
	mu sync.Mutex

	currentOrder       *Order
	orderForPayment    *Order
	paymentStatus      *PaymentStatus
	paymentPhoto       *PaymentPhoto
	adminNotifications []AdminNotification

	store    storage.Storage
	channel  Channel
	subject  string
	notifier Notifier
	log      *logrus.Entry

	connected   bool
	closed      bool
	unsubscribe func()
}

// NewStore rehydrates both order slots from durable storage before the
// store is usable. The real-time channel is not touched here; call
// StartRealtime afterwards.
func NewStore(store storage.Storage, channel Channel, subject string, notifier Notifier, log *logrus.Entry) (*Store, error) {
	s := &Store{
		store:    store,
		channel:  channel,
		subject:  subject,
		notifier: notifier,
		log:      log,
	}

	if err := s.rehydrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) rehydrate() error {
	value, ok, err := s.store.Load(storage.KeyCurrentOrder)
	if err != nil {
		return fmt.Errorf("failed to load current order - %v", err)
	}
	if ok {
		var order Order
		if err := json.Unmarshal(value, &order); err != nil {
			return fmt.Errorf("failed to decode saved current order - %v", err)
		}
		s.currentOrder = &order
	}

	value, ok, err = s.store.Load(storage.KeyOrderForPayment)
	if err != nil {
		return fmt.Errorf("failed to load order for payment - %v", err)
	}
	if ok {
		var order Order
		if err := json.Unmarshal(value, &order); err != nil {
			return fmt.Errorf("failed to decode saved order for payment - %v", err)
		}
		s.orderForPayment = &order
	}

	return nil
}

// StartRealtime establishes the push subscription in the background.
// Connection failure is non-fatal: the store keeps working in local-only
// mode and no real-time field will update.
func (s *Store) StartRealtime() {
	if s.channel == nil {
		s.log.Warnf("no realtime channel configured, continuing without realtime updates")
		return
	}

	go func() {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		if err := s.channel.Connect(); err != nil {
			s.log.Warnf("realtime connection failed, continuing without realtime updates - %v", err)
			return
		}

		unsubscribe, err := s.channel.Subscribe(s.subject, s.handleMessage)
		if err != nil {
			s.log.Warnf("realtime subscription failed, continuing without realtime updates - %v", err)
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			unsubscribe()
			return
		}
		s.unsubscribe = unsubscribe
		s.connected = true
		s.mu.Unlock()

		s.log.Infof("realtime subscription established on %s", s.subject)
	}()
}

// RealtimeConnected reports whether push events are flowing or the store
// degraded to local-only mode.
func (s *Store) RealtimeConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Close releases the channel subscription so a reconnect cannot end up
// with duplicate handlers. A connect still in flight observes the closed
// flag and releases its own subscription instead of attaching it.
func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.connected = false
	s.closed = true
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Store) CreateOrder(order Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentOrder = &order
	return s.persistCurrentOrder()
}

// UpdateUserData sets the draft's user block. Without a draft it is a
// no-op, mirroring the slot lifecycle: the draft exists only after
// CreateOrder.
func (s *Store) UpdateUserData(user UserData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentOrder == nil {
		return nil
	}

	s.currentOrder.User = &user
	return s.persistCurrentOrder()
}

func (s *Store) UpdateDeliveryData(delivery DeliveryData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentOrder == nil {
		return nil
	}

	s.currentOrder.DeliveryMethod = delivery.DeliveryMethod
	s.currentOrder.Address = delivery.Address
	s.currentOrder.SelectedLocation = delivery.SelectedLocation
	s.currentOrder.Comment = delivery.Comment
	s.currentOrder.ApartmentInfo = delivery.ApartmentInfo
	s.currentOrder.Intercom = delivery.Intercom
	s.currentOrder.DeliveryPrice = delivery.DeliveryPrice
	s.currentOrder.TotalWithDelivery = delivery.TotalWithDelivery

	return s.persistCurrentOrder()
}

func (s *Store) SetOrderForPayment(order Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orderForPayment = &order
	return s.persistOrderForPayment()
}

func (s *Store) ClearOrder() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentOrder = nil
	return s.persistCurrentOrder()
}

func (s *Store) ClearOrderForPayment() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orderForPayment = nil
	return s.persistOrderForPayment()
}

func (s *Store) ClearAllOrders() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentOrder = nil
	s.orderForPayment = nil
	s.paymentPhoto = nil

	if err := s.persistCurrentOrder(); err != nil {
		return err
	}
	return s.persistOrderForPayment()
}

// SetPaymentPhoto records the confirmation photo state for the order
// awaiting payment. Like paymentStatus it is ephemeral.
func (s *Store) SetPaymentPhoto(photo PaymentPhoto) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentPhoto = &photo
}

func (s *Store) PaymentPhoto() *PaymentPhoto {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paymentPhoto == nil {
		return nil
	}
	photo := *s.paymentPhoto
	return &photo
}

func (s *Store) CurrentOrder() *Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentOrder == nil {
		return nil
	}
	order := *s.currentOrder
	return &order
}

func (s *Store) OrderForPayment() *Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.orderForPayment == nil {
		return nil
	}
	order := *s.orderForPayment
	return &order
}

func (s *Store) PaymentStatus() *PaymentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paymentStatus == nil {
		return nil
	}
	status := *s.paymentStatus
	return &status
}

func (s *Store) AdminNotifications() []AdminNotification {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := make([]AdminNotification, len(s.adminNotifications))
	copy(notifications, s.adminNotifications)
	return notifications
}

// handleMessage is the channel handler: decode, then apply the reducer.
// Events are applied in delivery order, one at a time.
func (s *Store) handleMessage(msg []byte) {
	action, err := decodeEvent(msg)
	if err != nil {
		s.log.Debugf("dropping push event - %v", err)
		return
	}
	if action == nil {
		s.log.Debugf("unknown push event ignored")
		return
	}

	s.apply(action)
}

// apply is the reducer. It is idempotent: re-delivering the same event does
// not change the outcome beyond the first application, and side effects
// (persistence, notifications) fire only on actual change.
func (s *Store) apply(action pushAction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch a := action.(type) {
	case setPaymentStatusAction:
		if s.paymentStatus != nil && *s.paymentStatus == a.status {
			return
		}
		s.paymentStatus = &a.status
		if a.status.Status == PaymentRejected && s.notifier != nil {
			s.notifier.Error(rejectedMessage(a.status))
		}

	case confirmPaymentAction:
		changed := s.paymentStatus == nil || *s.paymentStatus != a.status
		s.paymentStatus = &a.status
		s.setOrderStatusLocked(StatusPaid)
		if changed && s.notifier != nil {
			s.notifier.Success("Оплата подтверждена")
		}

	case updateOrderStatusAction:
		s.setOrderStatusLocked(a.status)

	case appendAdminNotificationAction:
		last := len(s.adminNotifications) - 1
		if last >= 0 && s.adminNotifications[last] == a.notification {
			return
		}
		s.adminNotifications = append(s.adminNotifications, a.notification)
		if s.notifier != nil {
			s.notifier.Info(a.notification.Message)
		}
	}
}

// setOrderStatusLocked updates both order slots' status fields and persists
// them together, so the compound paymentConfirmed effect stays atomic.
func (s *Store) setOrderStatusLocked(status string) {
	if s.currentOrder != nil && s.currentOrder.Status != status {
		s.currentOrder.Status = status
		if err := s.persistCurrentOrder(); err != nil {
			s.log.Errorf("failed to persist current order status - %v", err)
		}
	}
	if s.orderForPayment != nil && s.orderForPayment.Status != status {
		s.orderForPayment.Status = status
		if err := s.persistOrderForPayment(); err != nil {
			s.log.Errorf("failed to persist order for payment status - %v", err)
		}
	}
}

func rejectedMessage(status PaymentStatus) string {
	if status.Message != "" {
		return status.Message
	}
	return "Оплата отклонена"
}

func (s *Store) persistCurrentOrder() error {
	if s.currentOrder == nil {
		if err := s.store.Clear(storage.KeyCurrentOrder); err != nil {
			s.log.Errorf("failed to clear current order - %v", err)
			return err
		}
		return nil
	}

	value, err := json.Marshal(s.currentOrder)
	if err != nil {
		return fmt.Errorf("failed to encode current order - %v", err)
	}
	if err := s.store.Save(storage.KeyCurrentOrder, value); err != nil {
		s.log.Errorf("failed to persist current order - %v", err)
		return err
	}
	return nil
}

func (s *Store) persistOrderForPayment() error {
	if s.orderForPayment == nil {
		if err := s.store.Clear(storage.KeyOrderForPayment); err != nil {
			s.log.Errorf("failed to clear order for payment - %v", err)
			return err
		}
		return nil
	}

	value, err := json.Marshal(s.orderForPayment)
	if err != nil {
		return fmt.Errorf("failed to encode order for payment - %v", err)
	}
	if err := s.store.Save(storage.KeyOrderForPayment, value); err != nil {
		s.log.Errorf("failed to persist order for payment - %v", err)
		return err
	}
	return nil
}
