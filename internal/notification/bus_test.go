package notification

import (
	"testing"
	"time"
)

func TestShowReplacesCurrent(t *testing.T) {
	bus := NewBus()

	bus.Success("Заказ создан")
	first := bus.Current()
	if first == nil || first.Type != TypeSuccess {
		t.Fatalf("current = %+v", first)
	}

	bus.Error("Оплата не прошла")
	second := bus.Current()
	if second == nil || second.Type != TypeError {
		t.Fatalf("current = %+v", second)
	}
	if second.ID == first.ID {
		t.Errorf("replacement must get a new id")
	}
}

func TestDismiss(t *testing.T) {
	bus := NewBus()

	bus.Info("Курьер выехал")
	bus.Dismiss()

	if bus.HasNotification() {
		t.Errorf("notification should be gone after dismiss")
	}
}

func TestAutoDismiss(t *testing.T) {
	bus := NewBus()

	bus.Show("Заказ создан", TypeSuccess, 20*time.Millisecond)

	deadline := time.After(2 * time.Second)
	for bus.HasNotification() {
		select {
		case <-deadline:
			t.Fatalf("notification was not auto-dismissed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStickyNotification(t *testing.T) {
	bus := NewBus()

	bus.Show("Требуется авторизация", TypeWarning, 0)

	time.Sleep(50 * time.Millisecond)
	if !bus.HasNotification() {
		t.Errorf("zero duration notification must stay until dismissed")
	}
}

func TestExpiredTimerDoesNotDismissReplacement(t *testing.T) {
	bus := NewBus()

	bus.Show("Первое", TypeInfo, 20*time.Millisecond)
	bus.Show("Второе", TypeInfo, 0)

	time.Sleep(60 * time.Millisecond)

	current := bus.Current()
	if current == nil || current.Message != "Второе" {
		t.Errorf("replacement must survive the first notification's timer, got %+v", current)
	}
}
