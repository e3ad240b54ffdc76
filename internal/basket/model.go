package basket

import "encoding/json"

type IngredientSelection struct {
	IngredientID string `json:"ingredientId"`
	Quantity     int    `json:"quantity"`
}

type BasketItem struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Price       float64               `json:"price"`
	Quantity    int                   `json:"quantity"`
	ImageURL    string                `json:"imageUrl,omitempty"`
	IsCustom    bool                  `json:"isCustom"`
	Ingredients []IngredientSelection `json:"ingredients,omitempty"`
}

// identity is the dedup key: the catalog id for regular items, the
// canonical serialization of the full ordered ingredient selection for
// custom dishes.
func (i BasketItem) identity() string {
	if !i.IsCustom {
		return "catalog:" + i.ID
	}
	bts, err := json.Marshal(i.Ingredients)
	if err != nil {
		return "custom:" + i.ID
	}
	return "custom:" + string(bts)
}

type CustomDishDraft struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Price       float64               `json:"price"`
	Ingredients []IngredientSelection `json:"ingredients"`
}
