// Package upcitemdb resolves retail barcodes through the UPCitemdb API. It
// carries product identity only; UPCitemdb has no per-100g nutrition.
package upcitemdb

import (
	"context"
	"errors"
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

const DefaultBaseURL = "https://api.upcitemdb.com"

type Client struct {
	BaseURL string
	// APIKey switches from the free trial endpoints to the paid v1 ones.
	APIKey     string
	KeyType    string
	HTTPClient *retryablehttp.Client
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (model.Product, error) {
	u := fmt.Sprintf("%s/lookup?upc=%s", c.endpoint(), url.QueryEscape(barcode))
	body, err := c.get(ctx, u)
	if err != nil {
		return model.Product{}, err
	}
	items := gjson.GetBytes(body, "items").Array()
	if len(items) == 0 {
		return model.Product{}, fmt.Errorf("upcitemdb barcode %q: %w", barcode, provider.ErrNotFound)
	}
	p := productFromItem(items[0])
	p.Barcode = barcode
	return p, nil
}

func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	u := fmt.Sprintf("%s/search?s=%s&match_mode=0&type=product", c.endpoint(), url.QueryEscape(query))
	body, err := c.get(ctx, u)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			return []model.Product{}, nil
		}
		return nil, err
	}
	items := gjson.GetBytes(body, "items").Array()
	out := make([]model.Product, 0, len(items))
	for _, item := range items {
		if limit > 0 && len(out) >= limit {
			break
		}
		if p := productFromItem(item); p.Name != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *Client) endpoint() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.TrimSpace(c.APIKey) != "" {
		return base + "/prod/v1"
	}
	return base + "/prod/trial"
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = provider.NewHTTPClient(provider.HTTPOptions{RetryMax: provider.DefaultRetryMax})
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create upcitemdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", provider.DefaultUserAgent)
	if key := strings.TrimSpace(c.APIKey); key != "" {
		keyType := strings.TrimSpace(c.KeyType)
		if keyType == "" {
			keyType = "3scale"
		}
		req.Header.Set("user_key", key)
		req.Header.Set("key_type", keyType)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute upcitemdb request: %w", provider.Classify(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upcitemdb response: %w", provider.Classify(err))
	}
	code := strings.ToUpper(gjson.GetBytes(body, "code").String())
	// Unknown or malformed codes come back as 404 or 400 INVALID_UPC.
	if resp.StatusCode == http.StatusNotFound || code == "INVALID_UPC" || code == "NOT_FOUND" {
		return nil, fmt.Errorf("upcitemdb: %w", provider.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &provider.StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode upcitemdb response: invalid json")
	}
	if code != "" && code != "OK" {
		return nil, fmt.Errorf("upcitemdb response code %s: %w", code, provider.ErrNotFound)
	}
	return body, nil
}

func productFromItem(item gjson.Result) model.Product {
	barcode := strings.TrimSpace(item.Get("ean").String())
	if barcode == "" {
		barcode = strings.TrimSpace(item.Get("upc").String())
	}
	return model.Product{
		Barcode:  barcode,
		Name:     strings.TrimSpace(item.Get("title").String()),
		Brand:    strings.TrimSpace(item.Get("brand").String()),
		ImageURL: strings.TrimSpace(item.Get("images.0").String()),
		Quantity: strings.TrimSpace(item.Get("size").String()),
	}
}
