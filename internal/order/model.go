package order

import "time"

// Order statuses assigned by the server and by reducer actions.
const (
	StatusCreated  = "created"
	StatusPaid     = "paid"
	StatusRejected = "rejected"
)

type UserData struct {
	TelegramUserID string `json:"telegramUserId"`
	Name           string `json:"name"`
	PhoneNumber    string `json:"phoneNumber"`
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type DeliveryData struct {
	DeliveryMethod    string    `json:"deliveryMethod"`
	Address           string    `json:"address"`
	SelectedLocation  *GeoPoint `json:"selectedLocation,omitempty"`
	Comment           string    `json:"comment"`
	ApartmentInfo     string    `json:"apartmentInfo"`
	Intercom          string    `json:"intercom"`
	DeliveryPrice     float64   `json:"deliveryPrice"`
	TotalWithDelivery float64   `json:"totalWithDelivery"`
}

type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	IsCustom bool    `json:"isCustom,omitempty"`
}

// Order is both the mutable draft (currentOrder) and, once submitted with a
// server-assigned ID, the immutable snapshot awaiting payment
// (orderForPayment). The Status field of either slot changes only through
// reducer actions.
type Order struct {
	ID                string      `json:"id,omitempty"`
	User              *UserData   `json:"user,omitempty"`
	Items             []OrderItem `json:"items,omitempty"`
	DeliveryMethod    string      `json:"deliveryMethod,omitempty"`
	Address           string      `json:"address,omitempty"`
	SelectedLocation  *GeoPoint   `json:"selectedLocation,omitempty"`
	Comment           string      `json:"comment,omitempty"`
	ApartmentInfo     string      `json:"apartmentInfo,omitempty"`
	Intercom          string      `json:"intercom,omitempty"`
	TotalPrice        float64     `json:"totalPrice"`
	DeliveryPrice     float64     `json:"deliveryPrice"`
	TotalWithDelivery float64     `json:"totalWithDelivery"`
	Status            string      `json:"status,omitempty"`
	CreatedAt         time.Time   `json:"createdAt,omitempty"`
}

// PaymentStatus is the last-known payment state, derived purely from push
// events.
type PaymentStatus struct {
	Status  string `json:"status"`
	OrderID string `json:"orderId"`
	Message string `json:"message,omitempty"`
}

const (
	PaymentRequested = "requested"
	PaymentConfirmed = "confirmed"
	PaymentRejected  = "rejected"
)

type AdminNotification struct {
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}

// PaymentPhoto is the confirmation-photo state for the order awaiting
// payment, set after an upload or a status poll.
type PaymentPhoto struct {
	OrderID  string `json:"orderId"`
	PhotoURL string `json:"photoUrl,omitempty"`
	Status   string `json:"status,omitempty"`
}
