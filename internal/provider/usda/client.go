// Package usda looks up branded foods in USDA FoodData Central.
package usda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/Suryadikhit/NutriLens/internal/model"
	"github.com/Suryadikhit/NutriLens/internal/provider"
)

const (
	DefaultBaseURL  = "https://api.nal.usda.gov"
	DemoAPIKey      = "DEMO_KEY"
	defaultPageSize = 20
)

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *retryablehttp.Client
}

// Branded food nutrient values in search results are per 100 g or 100 ml.
var nutrientKeys = []struct {
	name  string
	unit  string
	key   string
	scale float64
}{
	{"energy", "kcal", "energy-kcal_100g", 1},
	{"protein", "g", "proteins_100g", 1},
	{"carbohydrate, by difference", "g", "carbohydrates_100g", 1},
	{"total lipid (fat)", "g", "fat_100g", 1},
	{"fatty acids, total saturated", "g", "saturated-fat_100g", 1},
	{"total sugars", "g", "sugars_100g", 1},
	{"sugars, total including nlea", "g", "sugars_100g", 1},
	{"fiber, total dietary", "g", "fiber_100g", 1},
	{"sodium, na", "mg", "sodium_100g", 0.001},
}

// LookupBarcode searches branded foods for barcode and keeps only a result
// whose GTIN/UPC matches it, ignoring leading zeros.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (model.Product, error) {
	body, err := c.search(ctx, barcode, defaultPageSize)
	if err != nil {
		return model.Product{}, err
	}
	want := strings.TrimLeft(barcode, "0")
	for _, food := range gjson.GetBytes(body, "foods").Array() {
		if strings.TrimLeft(strings.TrimSpace(food.Get("gtinUpc").String()), "0") != want {
			continue
		}
		p := productFromFood(food)
		p.Barcode = barcode
		return p, nil
	}
	return model.Product{}, fmt.Errorf("usda barcode %q: %w", barcode, provider.ErrNotFound)
}

func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	body, err := c.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	foods := gjson.GetBytes(body, "foods").Array()
	out := make([]model.Product, 0, len(foods))
	for _, food := range foods {
		if p := productFromFood(food); p.Name != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, query string, pageSize int) ([]byte, error) {
	apiKey := strings.TrimSpace(c.APIKey)
	if apiKey == "" {
		apiKey = DemoAPIKey
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = provider.NewHTTPClient(provider.HTTPOptions{RetryMax: provider.DefaultRetryMax})
	}

	payload, err := json.Marshal(map[string]any{
		"query":    query,
		"dataType": []string{"Branded"},
		"pageSize": pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal USDA search payload: %w", err)
	}
	u := fmt.Sprintf("%s/fdc/v1/foods/search?api_key=%s", base, url.QueryEscape(apiKey))
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create USDA request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", provider.DefaultUserAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute USDA request: %w", provider.Classify(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read USDA response: %w", provider.Classify(err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &provider.StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode USDA response: invalid json")
	}
	return body, nil
}

func productFromFood(food gjson.Result) model.Product {
	brand := strings.TrimSpace(food.Get("brandName").String())
	if brand == "" {
		brand = strings.TrimSpace(food.Get("brandOwner").String())
	}
	p := model.Product{
		Barcode:     strings.TrimSpace(food.Get("gtinUpc").String()),
		Name:        strings.TrimSpace(food.Get("description").String()),
		Brand:       brand,
		Quantity:    strings.TrimSpace(food.Get("packageWeight").String()),
		Ingredients: strings.TrimSpace(food.Get("ingredients").String()),
	}
	nutrition := map[string]float64{}
	for _, n := range food.Get("foodNutrients").Array() {
		name := strings.ToLower(strings.TrimSpace(n.Get("nutrientName").String()))
		unit := strings.ToLower(strings.TrimSpace(n.Get("unitName").String()))
		value := n.Get("value")
		if value.Type != gjson.Number {
			continue
		}
		for _, k := range nutrientKeys {
			if k.name == name && k.unit == unit {
				nutrition[k.key] = value.Float() * k.scale
				break
			}
		}
	}
	if len(nutrition) > 0 {
		p.Nutrition = nutrition
	}
	return p
}
