package nutrilens

import (
	"context"
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

const DefaultBaseURL = "https://nutrilens-cqs0.onrender.com"

// Client talks to the NutriLens backend API.
type Client struct {
	BaseURL    string
	HTTPClient *retryablehttp.Client
	UserAgent  string
}

func (c *Client) GetProduct(ctx context.Context, barcode string) (model.Product, error) {
	body, err := c.get(ctx, "/product/"+url.PathEscape(barcode))
	if err != nil {
		return model.Product{}, err
	}
	if !gjson.ValidBytes(body) {
		return model.Product{}, fmt.Errorf("decode nutrilens product response: invalid json")
	}
	p := ParseProduct(gjson.ParseBytes(body))
	if p.Barcode == "" {
		return model.Product{}, fmt.Errorf("nutrilens barcode %q: %w", barcode, provider.ErrNotFound)
	}
	return p, nil
}

func (c *Client) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	body, err := c.get(ctx, "/products/search/"+url.PathEscape(query))
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(body)
	if !gjson.ValidBytes(body) || !parsed.IsArray() {
		return nil, fmt.Errorf("decode nutrilens search response: expected json array")
	}
	out := make([]model.Product, 0, len(parsed.Array()))
	for _, item := range parsed.Array() {
		p := ParseProduct(item)
		if p.Barcode == "" && p.Name == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = provider.NewHTTPClient(provider.HTTPOptions{RetryMax: provider.DefaultRetryMax})
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create nutrilens request: %w", err)
	}
	ua := c.UserAgent
	if ua == "" {
		ua = provider.DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute nutrilens request: %w", provider.Classify(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read nutrilens response: %w", provider.Classify(err))
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("nutrilens %s: %w", path, provider.ErrNotFound)
	case resp.StatusCode == http.StatusGatewayTimeout:
		return nil, &provider.TransientError{Err: &provider.StatusError{Code: resp.StatusCode, Body: string(body)}}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &provider.StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// ParseProduct maps one product JSON object onto model.Product. Non-numeric
// nutrition values are skipped.
func ParseProduct(r gjson.Result) model.Product {
	p := model.Product{
		Barcode:         strings.TrimSpace(r.Get("barcode").String()),
		Name:            strings.TrimSpace(r.Get("product_name").String()),
		Brand:           strings.TrimSpace(r.Get("brands").String()),
		ImageURL:        strings.TrimSpace(r.Get("image_url").String()),
		Quantity:        strings.TrimSpace(r.Get("quantity").String()),
		Ingredients:     strings.TrimSpace(r.Get("ingredients").String()),
		Packaging:       strings.TrimSpace(r.Get("packaging").String()),
		CarbonFootprint: strings.TrimSpace(r.Get("carbon_footprint").String()),
		NutriScore:      strings.TrimSpace(r.Get("nutri_score").String()),
		NovaScore:       strings.TrimSpace(r.Get("nova_score").String()),
	}
	if additives := r.Get("additives"); additives.IsArray() {
		for _, a := range additives.Array() {
			if code := strings.TrimSpace(a.String()); code != "" {
				p.Additives = append(p.Additives, code)
			}
		}
	}
	p.Nutrition = provider.NumericMap(r.Get("nutritional_info"))
	return p
}
