package basket

import (
	"context"
	"fmt"

	"github.com/mserebryaakov/aggregator-client-service/pkg/apiclient"
	"github.com/sirupsen/logrus"
)

// CustomMeal is the server-side representation of a saved custom dish.
type CustomMeal struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Price       float64               `json:"price"`
	Ingredients []IngredientSelection `json:"ingredients"`
}

type customMealAdapter struct {
	client *apiclient.Client
	log    *logrus.Entry
}

func NewCustomMealAdapter(client *apiclient.Client, log *logrus.Entry) *customMealAdapter {
	return &customMealAdapter{
		client: client,
		log:    log,
	}
}

func (a *customMealAdapter) Create(ctx context.Context, draft CustomDishDraft) (*CustomMeal, error) {
	var meal CustomMeal
	err := a.client.Post(ctx, "/custom-meal", draft, &meal, nil)
	if err != nil {
		a.log.Errorf("failed to create custom meal - %v", err)
		return nil, err
	}
	return &meal, nil
}

func (a *customMealAdapter) Get(ctx context.Context, id string) (*CustomMeal, error) {
	var meal CustomMeal
	err := a.client.Get(ctx, fmt.Sprintf("/custom-meal/%s", id), &meal, nil)
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

func (a *customMealAdapter) Update(ctx context.Context, id string, draft CustomDishDraft) (*CustomMeal, error) {
	var meal CustomMeal
	err := a.client.Put(ctx, fmt.Sprintf("/custom-meal/%s", id), draft, &meal, nil)
	if err != nil {
		a.log.Errorf("failed to update custom meal %s - %v", id, err)
		return nil, err
	}
	return &meal, nil
}

func (a *customMealAdapter) Delete(ctx context.Context, id string) error {
	err := a.client.Delete(ctx, fmt.Sprintf("/custom-meal/%s", id), nil, nil)
	if err != nil {
		a.log.Errorf("failed to delete custom meal %s - %v", id, err)
		return err
	}
	return nil
}

func (a *customMealAdapter) UserMeals(ctx context.Context) ([]CustomMeal, error) {
	var meals []CustomMeal
	err := a.client.Get(ctx, "/custom-meal/user", &meals, nil)
	if err != nil {
		return nil, err
	}
	return meals, nil
}
