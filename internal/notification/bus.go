package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypeWarning = "warning"
	TypeInfo    = "info"
)

const DefaultDuration = 3 * time.Second

type Notification struct {
	ID       string        `json:"id"`
	Message  string        `json:"message"`
	Type     string        `json:"type"`
	Duration time.Duration `json:"duration"`
}

// Bus holds at most one active notification. A new Show replaces whatever
// is currently visible; there is no queue. A positive duration schedules
// automatic dismissal, zero means sticky.
type Bus struct {
	mu      sync.Mutex
	current *Notification
	timer   *time.Timer
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Show(message, notificationType string, duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}

	id := uuid.NewString()
	b.current = &Notification{
		ID:       id,
		Message:  message,
		Type:     notificationType,
		Duration: duration,
	}

	if duration > 0 {
		b.timer = time.AfterFunc(duration, func() {
			b.dismissIf(id)
		})
	}
}

func (b *Bus) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.current = nil
}

// dismissIf drops the notification only when it is still the one the
// expired timer was armed for.
func (b *Bus) dismissIf(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil || b.current.ID != id {
		return
	}
	b.current = nil
	b.timer = nil
}

func (b *Bus) Current() *Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return nil
	}
	notification := *b.current
	return &notification
}

func (b *Bus) HasNotification() bool {
	return b.Current() != nil
}

func (b *Bus) Success(message string) {
	b.Show(message, TypeSuccess, DefaultDuration)
}

func (b *Bus) Error(message string) {
	b.Show(message, TypeError, DefaultDuration)
}

func (b *Bus) Warning(message string) {
	b.Show(message, TypeWarning, DefaultDuration)
}

func (b *Bus) Info(message string) {
	b.Show(message, TypeInfo, DefaultDuration)
}
