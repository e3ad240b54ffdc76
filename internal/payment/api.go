package payment

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/mserebryaakov/aggregator-client-service/pkg/apiclient"
	"github.com/sirupsen/logrus"
)

type CreatePayment struct {
	OrderID string  `json:"orderId"`
	Method  string  `json:"method"`
	Amount  float64 `json:"amount"`
}

type VerifyPayment struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
}

type PhotoStatus struct {
	OrderID  string `json:"orderId"`
	Status   string `json:"status"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

type paymentAdapter struct {
	client *apiclient.Client
	log    *logrus.Entry
}

func NewPaymentAdapter(client *apiclient.Client, log *logrus.Entry) *paymentAdapter {
	return &paymentAdapter{
		client: client,
		log:    log,
	}
}

func (a *paymentAdapter) Create(ctx context.Context, createPayment CreatePayment) (*PaymentResult, error) {
	opts := &apiclient.RequestOptions{
		Headers: map[string]string{"Idempotence-Key": uuid.NewString()},
	}

	var result PaymentResult
	err := a.client.Post(ctx, "/payments", createPayment, &result, opts)
	if err != nil {
		a.log.Errorf("failed to create payment - %v", err)
		return nil, err
	}
	return &result, nil
}

func (a *paymentAdapter) Verify(ctx context.Context, verify VerifyPayment) (*PaymentResult, error) {
	var result PaymentResult
	err := a.client.Post(ctx, "/payments/verify", verify, &result, nil)
	if err != nil {
		a.log.Errorf("failed to verify payment - %v", err)
		return nil, err
	}
	return &result, nil
}

// UploadPhoto sends the payment confirmation photo as multipart form data.
func (a *paymentAdapter) UploadPhoto(ctx context.Context, orderID, fileName string, photo io.Reader, progress func(transferred int64)) (*PhotoStatus, error) {
	fields := map[string]string{"orderId": orderID}
	opts := &apiclient.RequestOptions{Progress: progress}

	var status PhotoStatus
	err := a.client.Upload(ctx, "/payments/photo", fields, "photo", fileName, photo, &status, opts)
	if err != nil {
		a.log.Errorf("failed to upload payment photo for order %s - %v", orderID, err)
		return nil, err
	}
	return &status, nil
}

func (a *paymentAdapter) PhotoStatus(ctx context.Context, orderID string) (*PhotoStatus, error) {
	var status PhotoStatus
	err := a.client.Get(ctx, fmt.Sprintf("/payments/photo/%s/status", orderID), &status, nil)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (a *paymentAdapter) Confirm(ctx context.Context, orderID string) error {
	err := a.client.Post(ctx, fmt.Sprintf("/payments/%s/confirm", orderID), nil, nil, nil)
	if err != nil {
		a.log.Errorf("failed to confirm payment for order %s - %v", orderID, err)
		return err
	}
	return nil
}

func (a *paymentAdapter) Reject(ctx context.Context, orderID string) error {
	err := a.client.Post(ctx, fmt.Sprintf("/payments/%s/reject", orderID), nil, nil, nil)
	if err != nil {
		a.log.Errorf("failed to reject payment for order %s - %v", orderID, err)
		return err
	}
	return nil
}
