package model

import "time"

// Product is a product record keyed by barcode. Every field other than
// Barcode may be empty.
type Product struct {
	Barcode         string             `json:"barcode"`
	Name            string             `json:"product_name,omitempty"`
	Brand           string             `json:"brands,omitempty"`
	ImageURL        string             `json:"image_url,omitempty"`
	Quantity        string             `json:"quantity,omitempty"`
	Ingredients     string             `json:"ingredients,omitempty"`
	Additives       []string           `json:"additives,omitempty"`
	Packaging       string             `json:"packaging,omitempty"`
	CarbonFootprint string             `json:"carbon_footprint,omitempty"`
	Nutrition       map[string]float64 `json:"nutritional_info,omitempty"`
	NutriScore      string             `json:"nutri_score,omitempty"`
	NovaScore       string             `json:"nova_score,omitempty"`
}

type HistoryEntry struct {
	Product
	FetchedAt time.Time `json:"fetched_at"`
}

type Nutrient struct {
	Label string   `json:"label"`
	Key   string   `json:"key"`
	Value *float64 `json:"value"`
}
