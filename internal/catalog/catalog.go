package catalog

import (
	"context"

	"github.com/mserebryaakov/aggregator-client-service/pkg/apiclient"
	"github.com/sirupsen/logrus"
)

type CatalogLogHook struct{}

func (h *CatalogLogHook) Fire(entry *logrus.Entry) error {
	entry.Message = "Catalog: " + entry.Message
	return nil
}

func (h *CatalogLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	MenuItems []MenuItem `json:"menuItems"`
}

// catalogAdapter consumes the Menu service read-only; nothing here is
// persisted locally.
type catalogAdapter struct {
	client *apiclient.Client
	log    *logrus.Entry
}

func NewCatalogAdapter(client *apiclient.Client, log *logrus.Entry) *catalogAdapter {
	return &catalogAdapter{
		client: client,
		log:    log,
	}
}

// Categories returns all catalog categories with their nested items.
func (a *catalogAdapter) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := a.client.Get(ctx, "/category", &categories, nil)
	if err != nil {
		a.log.Errorf("failed to fetch categories - %v", err)
		return nil, err
	}
	return categories, nil
}
