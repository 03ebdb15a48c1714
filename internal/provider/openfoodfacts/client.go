package openfoodfacts

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

const (
	DefaultBaseURL    = "https://world.openfoodfacts.org"
	defaultSearchSize = 20
)

type Client struct {
	BaseURL    string
	HTTPClient *retryablehttp.Client
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (model.Product, error) {
	u := fmt.Sprintf("%s/api/v2/product/%s.json", c.base(), url.PathEscape(barcode))
	body, err := c.get(ctx, u)
	if err != nil {
		return model.Product{}, err
	}
	if !gjson.ValidBytes(body) {
		return model.Product{}, fmt.Errorf("decode openfoodfacts response: invalid json")
	}
	parsed := gjson.ParseBytes(body)
	if parsed.Get("status").Int() != 1 || !parsed.Get("product").IsObject() {
		return model.Product{}, fmt.Errorf("openfoodfacts barcode %q: %w", barcode, provider.ErrNotFound)
	}
	p := productFromJSON(parsed.Get("product"))
	p.Barcode = barcode
	return p, nil
}

func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = defaultSearchSize
	}
	u := fmt.Sprintf("%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=%d",
		c.base(),
		url.QueryEscape(query),
		limit,
	)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode openfoodfacts search response: invalid json")
	}
	products := gjson.GetBytes(body, "products").Array()
	out := make([]model.Product, 0, len(products))
	for _, item := range products {
		p := productFromJSON(item)
		if p.Name == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) base() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return DefaultBaseURL
	}
	return base
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = provider.NewHTTPClient(provider.HTTPOptions{RetryMax: provider.DefaultRetryMax})
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create openfoodfacts request: %w", err)
	}
	// Open Food Facts asks clients to send a descriptive User-Agent.
	req.Header.Set("User-Agent", provider.DefaultUserAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute openfoodfacts request: %w", provider.Classify(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openfoodfacts response: %w", provider.Classify(err))
	}
	if resp.StatusCode == http.StatusNotFound {
		// v2 answers unknown barcodes with 404 and a status 0 body.
		return nil, fmt.Errorf("openfoodfacts: %w", provider.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &provider.StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func productFromJSON(r gjson.Result) model.Product {
	image := strings.TrimSpace(r.Get("image_front_url").String())
	if image == "" {
		image = strings.TrimSpace(r.Get("image_url").String())
	}
	p := model.Product{
		Barcode:     strings.TrimSpace(r.Get("code").String()),
		Name:        strings.TrimSpace(r.Get("product_name").String()),
		Brand:       strings.TrimSpace(r.Get("brands").String()),
		ImageURL:    image,
		Quantity:    strings.TrimSpace(r.Get("quantity").String()),
		Ingredients: strings.TrimSpace(r.Get("ingredients_text").String()),
		Packaging:   strings.TrimSpace(r.Get("packaging").String()),
		NutriScore:  nutriScoreGrade(r.Get("nutriscore_grade").String()),
		NovaScore:   strings.TrimSpace(r.Get("nova_group").String()),
		Nutrition:   provider.NumericMap(r.Get("nutriments")),
	}
	if co2 := r.Get("ecoscore_data.agribalyse.co2_total"); co2.Type == gjson.Number {
		p.CarbonFootprint = fmt.Sprintf("%.2f kg CO2e/kg", co2.Float())
	}
	for _, tag := range r.Get("additives_tags").Array() {
		if code := additiveCode(tag.String()); code != "" {
			p.Additives = append(p.Additives, code)
		}
	}
	return p
}

// nutriScoreGrade drops placeholder grades such as "unknown" and
// "not-applicable".
func nutriScoreGrade(raw string) string {
	g := strings.ToUpper(strings.TrimSpace(raw))
	if len(g) == 1 && g >= "A" && g <= "E" {
		return g
	}
	return ""
}

// additiveCode turns a taxonomy tag such as "en:e330" into "E330".
func additiveCode(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.LastIndex(tag, ":"); i >= 0 {
		tag = tag[i+1:]
	}
	return strings.ToUpper(tag)
}
