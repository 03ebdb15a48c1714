package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Suryadikhit/NutriLens/internal/logging"
	"github.com/Suryadikhit/NutriLens/internal/model"
	"github.com/Suryadikhit/NutriLens/internal/provider"
	"github.com/Suryadikhit/NutriLens/internal/provider/nutrilens"
	"github.com/Suryadikhit/NutriLens/internal/provider/openfoodfacts"
)

type fakeSource struct {
	product model.Product
	items   []model.Product
	err     error
	query   string
}

func (f *fakeSource) LookupBarcode(ctx context.Context, barcode string) (model.Product, error) {
	if f.err != nil {
		return model.Product{}, f.err
	}
	p := f.product
	p.Barcode = barcode
	return p, nil
}

func (f *fakeSource) SearchFoods(ctx context.Context, query string, limit int) ([]model.Product, error) {
	f.query = query
	return f.items, f.err
}

func serve(t *testing.T, src ProductSource, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	New(src, logging.Discard()).Router().ServeHTTP(rec, req)
	return rec
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Detail
}

func TestRootAndHealth(t *testing.T) {
	rec := serve(t, &fakeSource{}, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Welcome to the NutriLens API") {
		t.Fatalf("unexpected root response %d %q", rec.Code, rec.Body.String())
	}
	rec = serve(t, &fakeSource{}, "/health")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "OK" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Fatalf("expected a uuid request id, got %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	New(&fakeSource{}, logging.Discard()).Router().ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != id {
		t.Fatalf("expected request id %s to be echoed, got %s", id, rec.Header().Get(RequestIDHeader))
	}
}

func TestProductFound(t *testing.T) {
	src := &fakeSource{product: model.Product{Name: "Hazelnut Spread", NutriScore: "E"}}
	rec := serve(t, src, "/product/3017620422003")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var p model.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if p.Barcode != "3017620422003" || p.Name != "Hazelnut Spread" || p.NutriScore != "E" {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestProductErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"not found", fmt.Errorf("lookup: %w", provider.ErrNotFound), http.StatusNotFound, "Product not found"},
		{"timeout", &provider.TransientError{Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "Request timed out. Try again later."},
		{"upstream 500", &provider.StatusError{Code: 500}, http.StatusServiceUnavailable, "Error fetching product: "},
	}
	for _, tc := range cases {
		rec := serve(t, &fakeSource{err: tc.err}, "/product/12345678")
		if rec.Code != tc.status {
			t.Errorf("%s: got status %d want %d", tc.name, rec.Code, tc.status)
			continue
		}
		if got := decodeDetail(t, rec); !strings.HasPrefix(got, tc.detail) {
			t.Errorf("%s: got detail %q want prefix %q", tc.name, got, tc.detail)
		}
	}
}

func TestSearch(t *testing.T) {
	src := &fakeSource{items: []model.Product{{Barcode: "1", Name: "A"}, {Barcode: "2", Name: "B"}}}
	rec := serve(t, src, "/products/search/nutella%20spread")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if src.query != "nutella spread" {
		t.Fatalf("expected decoded query, got %q", src.query)
	}
	var items []model.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil || len(items) != 2 {
		t.Fatalf("unexpected search body %q err=%v", rec.Body.String(), err)
	}

	rec = serve(t, &fakeSource{}, "/products/search/nothing")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", rec.Body.String())
	}
}

func TestSearchQueryWithSlash(t *testing.T) {
	src := &fakeSource{items: []model.Product{{Barcode: "1", Name: "Trail Mix"}}}
	rec := serve(t, src, "/products/search/50%2F50%20mix")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %q", rec.Code, rec.Body.String())
	}
	if src.query != "50/50 mix" {
		t.Fatalf("expected slash to survive routing, got %q", src.query)
	}

	// The NutriLens client path-escapes queries; the round trip must match.
	ts := httptest.NewServer(New(src, logging.Discard()).Router())
	defer ts.Close()
	hc := provider.NewHTTPClient(provider.HTTPOptions{RetryMax: 0})
	hc.HTTPClient = ts.Client()
	client := &nutrilens.Client{BaseURL: ts.URL, HTTPClient: hc}
	src.query = ""
	if _, err := client.SearchProducts(context.Background(), "50/50 mix"); err != nil {
		t.Fatalf("client search: %v", err)
	}
	if src.query != "50/50 mix" {
		t.Fatalf("unexpected query from client round trip: %q", src.query)
	}
}

func TestUnknownRouteUsesDetailBody(t *testing.T) {
	rec := serve(t, &fakeSource{}, "/nope")
	if rec.Code != http.StatusNotFound || decodeDetail(t, rec) != "Not Found" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestProductThroughOpenFoodFacts(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/product/5449000000996.json" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":1,"product":{"product_name":"Cola","brands":"Coca-Cola","ingredients_text":"Water, sugar","additives_tags":["en:e150d","en:e338"],"nutriscore_grade":"e","nova_group":4,"nutriments":{"sugars_100g":10.6,"energy_unit":"kcal"}}}`))
	}))
	defer upstream.Close()

	off := &openfoodfacts.Client{
		BaseURL:    upstream.URL,
		HTTPClient: provider.NewHTTPClient(provider.HTTPOptions{RetryMax: 0}),
	}
	rec := serve(t, off, "/product/5449000000996")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %q", rec.Code, rec.Body.String())
	}
	var p model.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Name != "Cola" || p.NutriScore != "E" || p.NovaScore != "4" || len(p.Additives) != 2 || p.Additives[0] != "E150D" {
		t.Fatalf("unexpected mapped product: %+v", p)
	}
	if p.Nutrition["sugars_100g"] != 10.6 {
		t.Fatalf("unexpected nutrition: %v", p.Nutrition)
	}

	rec = serve(t, off, "/product/00000000")
	if rec.Code != http.StatusNotFound || decodeDetail(t, rec) != "Product not found" {
		t.Fatalf("expected 404 from upstream miss, got %d %q", rec.Code, rec.Body.String())
	}
}
