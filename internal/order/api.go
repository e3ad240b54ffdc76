package order

import (
	"context"
	"fmt"

	"github.com/mserebryaakov/aggregator-client-service/pkg/apiclient"
	"github.com/sirupsen/logrus"
)

type orderAdapter struct {
	client *apiclient.Client
	log    *logrus.Entry
}

func NewOrderAdapter(client *apiclient.Client, log *logrus.Entry) *orderAdapter {
	return &orderAdapter{
		client: client,
		log:    log,
	}
}

// Submit sends the draft and returns the server's snapshot with the
// assigned id and initial status.
func (a *orderAdapter) Submit(ctx context.Context, draft Order) (*Order, error) {
	var submitted Order
	err := a.client.Post(ctx, "/orders", draft, &submitted, nil)
	if err != nil {
		a.log.Errorf("failed to submit order - %v", err)
		return nil, err
	}
	return &submitted, nil
}

func (a *orderAdapter) Fetch(ctx context.Context, id string) (*Order, error) {
	var order Order
	err := a.client.Get(ctx, fmt.Sprintf("/orders/%s", id), &order, nil)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (a *orderAdapter) UserOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := a.client.Get(ctx, "/orders/user", &orders, nil)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (a *orderAdapter) UpdateStatus(ctx context.Context, id string, status string) error {
	body := map[string]string{"status": status}
	err := a.client.Patch(ctx, fmt.Sprintf("/orders/%s/status", id), body, nil, nil)
	if err != nil {
		a.log.Errorf("failed to update order %s status - %v", id, err)
		return err
	}
	return nil
}

func (a *orderAdapter) Cancel(ctx context.Context, id string) error {
	err := a.client.Post(ctx, fmt.Sprintf("/orders/%s/cancel", id), nil, nil, nil)
	if err != nil {
		a.log.Errorf("failed to cancel order %s - %v", id, err)
		return err
	}
	return nil
}
