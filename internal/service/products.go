package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Suryadikhit/NutriLens/internal/cache"
	"github.com/Suryadikhit/NutriLens/internal/classify"
	"github.com/Suryadikhit/NutriLens/internal/model"
	"github.com/Suryadikhit/NutriLens/internal/store"
)

var ErrInvalidBarcode = errors.New("invalid barcode")

var barcodePattern = regexp.MustCompile(`^\d{4,14}$`)

// NormalizeBarcode trims barcode and checks it is 4 to 14 digits.
func NormalizeBarcode(barcode string) (string, error) {
	barcode = strings.TrimSpace(barcode)
	if !barcodePattern.MatchString(barcode) {
		return "", fmt.Errorf("%w %q (expected 4-14 digits)", ErrInvalidBarcode, barcode)
	}
	return barcode, nil
}

// ProductDetail is everything the detail view renders for one product.
type ProductDetail struct {
	Product     model.Product        `json:"product"`
	Source      cache.Source         `json:"source"`
	Nutrition   []model.Nutrient     `json:"nutrition"`
	Ingredients classify.Categorized `json:"ingredients"`
	Additives   []classify.Highlight `json:"additives"`
	NutriScore  []classify.ScoreCell `json:"nutri_score_scale"`
	NovaColor   classify.Color       `json:"nova_color,omitempty"`
}

type DetailResult struct {
	Detail ProductDetail
	Err    error
}

// Products serves product lookups from the local cache, falling back to the
// remote client and persisting what it returns.
type Products struct {
	store  *store.ProductStore
	client ProductClient
	cache  *cache.ReadThrough[string, model.Product]
	log    *logrus.Logger
}

func NewProducts(db *sql.DB, client ProductClient, log *logrus.Logger) *Products {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Products{store: store.NewProductStore(db, log), client: client, log: log}
	s.cache = cache.NewReadThrough[string, model.Product](s.store, s.fetch, log)
	return s
}

func (s *Products) fetch(ctx context.Context, barcode string) (model.Product, error) {
	if s.client == nil {
		return model.Product{}, fmt.Errorf("no remote client configured")
	}
	p, err := s.client.GetProduct(ctx, barcode)
	if err != nil {
		return model.Product{}, fmt.Errorf("fetch product %s: %w", barcode, err)
	}
	p.Barcode = barcode
	return p, nil
}

func (s *Products) Detail(ctx context.Context, barcode string) (ProductDetail, error) {
	barcode, err := NormalizeBarcode(barcode)
	if err != nil {
		return ProductDetail{}, err
	}
	p, source, err := s.cache.GetOrFetch(ctx, barcode)
	if err != nil {
		return ProductDetail{}, err
	}
	return BuildDetail(p, source), nil
}

// Refresh refetches barcode even when it is cached.
func (s *Products) Refresh(ctx context.Context, barcode string) (ProductDetail, error) {
	barcode, err := NormalizeBarcode(barcode)
	if err != nil {
		return ProductDetail{}, err
	}
	p, err := s.cache.Refresh(ctx, barcode)
	if err != nil {
		return ProductDetail{}, err
	}
	return BuildDetail(p, cache.SourceRemote), nil
}

// LoadDetail runs Detail in the background. The channel yields at most one
// result; if ctx ends first the result is dropped and the channel is closed
// empty.
func (s *Products) LoadDetail(ctx context.Context, barcode string) <-chan DetailResult {
	out := make(chan DetailResult, 1)
	go func() {
		defer close(out)
		d, err := s.Detail(ctx, barcode)
		if ctx.Err() != nil {
			s.log.WithField("barcode", barcode).Debug("discarding load for cancelled request")
			return
		}
		out <- DetailResult{Detail: d, Err: err}
	}()
	return out
}

// Search queries the remote service directly. Results are not cached.
func (s *Products) Search(ctx context.Context, query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if s.client == nil {
		return nil, fmt.Errorf("no remote client configured")
	}
	items, err := s.client.SearchProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return items, nil
}

func (s *Products) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	return s.store.History(ctx, limit)
}

// DeleteHistory removes barcode from the cache and reports whether it was
// present.
func (s *Products) DeleteHistory(ctx context.Context, barcode string) (bool, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return false, fmt.Errorf("barcode is required")
	}
	return s.store.Remove(ctx, barcode)
}

func (s *Products) ClearHistory(ctx context.Context) (int64, error) {
	return s.store.Clear(ctx)
}

// SaveProduct stores a manually entered product, replacing any cached one.
func (s *Products) SaveProduct(ctx context.Context, p model.Product) error {
	barcode, err := NormalizeBarcode(p.Barcode)
	if err != nil {
		return err
	}
	p.Barcode = barcode
	return s.store.Put(ctx, barcode, p)
}

func BuildDetail(p model.Product, source cache.Source) ProductDetail {
	d := ProductDetail{
		Product:     p,
		Source:      source,
		Nutrition:   NutritionFacts(p),
		Ingredients: classify.CategorizeIngredients(p.Ingredients),
		Additives:   classify.HighlightAdditives(p.Additives),
	}
	if p.NutriScore != "" {
		d.NutriScore = classify.NutriScoreScale(p.NutriScore)
	}
	if p.NovaScore != "" {
		d.NovaColor = classify.NovaColor
	}
	return d
}
