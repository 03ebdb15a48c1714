package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Suryadikhit/NutriLens/internal/model"
	"github.com/Suryadikhit/NutriLens/internal/provider"
)

var nutritionRows = []struct {
	label string
	key   string
}{
	{"Energy", "energy-kcal_100g"},
	{"Carbs", "carbohydrates_100g"},
	{"Proteins", "proteins_100g"},
	{"Sugars", "sugars_100g"},
	{"Fat", "fat_100g"},
}

// NutritionFacts returns the per-100g rows in display order. Missing values
// have a nil Value.
func NutritionFacts(p model.Product) []model.Nutrient {
	out := make([]model.Nutrient, 0, len(nutritionRows))
	for _, row := range nutritionRows {
		n := model.Nutrient{Label: row.label, Key: row.key}
		if v, ok := p.Nutrition[row.key]; ok {
			n.Value = &v
		}
		out = append(out, n)
	}
	return out
}

func FormatNutrient(n model.Nutrient) string {
	if n.Value == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*n.Value, 'f', -1, 64)
}

// DisplayMessage turns a lookup error into the text shown to the user.
// Cancellation has no message.
func DisplayMessage(err error) string {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return ""
	case errors.Is(err, provider.ErrNotFound):
		return "Product not found"
	case provider.IsTimeout(err), provider.StatusCode(err) == http.StatusGatewayTimeout:
		return "Request timed out. Try again."
	case provider.StatusCode(err) != 0:
		return fmt.Sprintf("HTTP Error: %d", provider.StatusCode(err))
	case provider.IsTransient(err):
		return "No internet connection."
	default:
		return "Unexpected error: " + err.Error()
	}
}
