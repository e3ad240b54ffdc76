package order

import (
	"encoding/json"
	"fmt"
)

// Push event names delivered by the real-time channel.
const (
	EventPaymentConfirmationRequested = "paymentConfirmationRequested"
	EventPaymentConfirmed             = "paymentConfirmed"
	EventPaymentRejected              = "paymentRejected"
	EventOrderStatusUpdated           = "orderStatusUpdated"
	EventAdminNotification            = "adminNotification"
)

type pushEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type eventPayload struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// pushAction is the closed set of reducer actions. Every decoded push event
// maps to exactly one action.
type pushAction interface {
	isPushAction()
}

type setPaymentStatusAction struct {
	status PaymentStatus
}

// confirmPaymentAction is compound: it sets the payment status to confirmed
// and marks both order slots paid in the same reducer application.
type confirmPaymentAction struct {
	status PaymentStatus
}

type updateOrderStatusAction struct {
	status string
}

type appendAdminNotificationAction struct {
	notification AdminNotification
}

func (setPaymentStatusAction) isPushAction()        {}
func (confirmPaymentAction) isPushAction()          {}
func (updateOrderStatusAction) isPushAction()       {}
func (appendAdminNotificationAction) isPushAction() {}

// decodeEvent turns a raw channel message into a reducer action. Unknown
// event names yield a nil action, not an error.
func decodeEvent(msg []byte) (pushAction, error) {
	var envelope pushEnvelope
	if err := json.Unmarshal(msg, &envelope); err != nil {
		return nil, fmt.Errorf("invalid push event - %v", err)
	}

	var payload eventPayload
	if len(envelope.Payload) > 0 {
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, fmt.Errorf("invalid push event payload - %v", err)
		}
	}

	switch envelope.Event {
	case EventPaymentConfirmationRequested:
		return setPaymentStatusAction{status: PaymentStatus{
			Status:  PaymentRequested,
			OrderID: payload.OrderID,
			Message: payload.Message,
		}}, nil
	case EventPaymentConfirmed:
		return confirmPaymentAction{status: PaymentStatus{
			Status:  PaymentConfirmed,
			OrderID: payload.OrderID,
			Message: payload.Message,
		}}, nil
	case EventPaymentRejected:
		return setPaymentStatusAction{status: PaymentStatus{
			Status:  PaymentRejected,
			OrderID: payload.OrderID,
			Message: payload.Message,
		}}, nil
	case EventOrderStatusUpdated:
		return updateOrderStatusAction{status: payload.Status}, nil
	case EventAdminNotification:
		return appendAdminNotificationAction{notification: AdminNotification{
			OrderID: payload.OrderID,
			Message: payload.Message,
		}}, nil
	default:
		return nil, nil
	}
}
