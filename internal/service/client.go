package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Suryadikhit/NutriLens/internal/model"
	"github.com/Suryadikhit/NutriLens/internal/provider"
	"github.com/Suryadikhit/NutriLens/internal/provider/nutrilens"
	"github.com/Suryadikhit/NutriLens/internal/provider/openfoodfacts"
	"github.com/Suryadikhit/NutriLens/internal/provider/upcitemdb"
	"github.com/Suryadikhit/NutriLens/internal/provider/usda"
)

const (
	ProviderNutriLens     = "nutrilens"
	ProviderOpenFoodFacts = "openfoodfacts"
	ProviderUSDA          = "usda"
	ProviderUPCItemDB     = "upcitemdb"
)

// Providers lists the accepted provider names.
var Providers = []string{ProviderNutriLens, ProviderOpenFoodFacts, ProviderUSDA, ProviderUPCItemDB}

// ProductClient is the remote source of truth behind the product cache.
type ProductClient interface {
	GetProduct(ctx context.Context, barcode string) (model.Product, error)
	SearchProducts(ctx context.Context, query string) ([]model.Product, error)
}

type ClientOptions struct {
	Provider string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	RetryMax int
	Logger   *logrus.Logger
}

func NormalizeProvider(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderNutriLens, "api":
		return ProviderNutriLens
	case ProviderOpenFoodFacts, "off":
		return ProviderOpenFoodFacts
	case ProviderUSDA, "fdc":
		return ProviderUSDA
	case ProviderUPCItemDB, "upc":
		return ProviderUPCItemDB
	default:
		return ""
	}
}

func NewProductClient(opts ClientOptions) (ProductClient, error) {
	httpClient := provider.NewHTTPClient(provider.HTTPOptions{
		Timeout:  opts.Timeout,
		RetryMax: opts.RetryMax,
		Logger:   opts.Logger,
	})
	switch NormalizeProvider(opts.Provider) {
	case ProviderNutriLens:
		return &nutrilensAdapter{client: &nutrilens.Client{BaseURL: opts.BaseURL, HTTPClient: httpClient}}, nil
	case ProviderOpenFoodFacts:
		return &lookupAdapter{client: &openfoodfacts.Client{BaseURL: opts.BaseURL, HTTPClient: httpClient}}, nil
	case ProviderUSDA:
		return &lookupAdapter{client: &usda.Client{APIKey: opts.APIKey, BaseURL: opts.BaseURL, HTTPClient: httpClient}}, nil
	case ProviderUPCItemDB:
		return &lookupAdapter{client: &upcitemdb.Client{APIKey: opts.APIKey, BaseURL: opts.BaseURL, HTTPClient: httpClient}}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q (expected one of %s)", opts.Provider, strings.Join(Providers, ", "))
	}
}

type nutrilensAdapter struct {
	client *nutrilens.Client
}

func (a *nutrilensAdapter) GetProduct(ctx context.Context, barcode string) (model.Product, error) {
	p, err := a.client.GetProduct(ctx, barcode)
	return p, err
}

func (a *nutrilensAdapter) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	items, err := a.client.SearchProducts(ctx, query)
	return items, err
}

// barcodeLookup is the shape shared by the third-party database clients.
type barcodeLookup interface {
	LookupBarcode(ctx context.Context, barcode string) (model.Product, error)
	SearchFoods(ctx context.Context, query string, limit int) ([]model.Product, error)
}

type lookupAdapter struct {
	client barcodeLookup
}

func (a *lookupAdapter) GetProduct(ctx context.Context, barcode string) (model.Product, error) {
	p, err := a.client.LookupBarcode(ctx, barcode)
	return p, err
}

func (a *lookupAdapter) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	items, err := a.client.SearchFoods(ctx, query, 0)
	return items, err
}
