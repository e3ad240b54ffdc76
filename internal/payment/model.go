package payment

import "time"

// Phase of the payment state machine. Exactly one phase is active.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// PaymentResult is the terminal outcome of a completed payment. It is the
// only piece of payment state that survives a reload.
type PaymentResult struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	Method    string    `json:"method"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
