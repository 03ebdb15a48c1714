package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Suryadikhit/NutriLens/internal/model"
)

const defaultHistoryLimit = 100

// ProductStore persists product records keyed by barcode. Every write bumps
// seq, which orders the history most recent first.
type ProductStore struct {
	db  *sql.DB
	log *logrus.Logger
	now func() time.Time
}

func NewProductStore(db *sql.DB, log *logrus.Logger) *ProductStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProductStore{db: db, log: log, now: time.Now}
}

const productColumns = `barcode, IFNULL(name,''), IFNULL(brand,''), IFNULL(image_url,''), IFNULL(quantity,''), IFNULL(ingredients,''), IFNULL(additives,''), IFNULL(packaging,''), IFNULL(carbon_footprint,''), IFNULL(nutrition_json,''), IFNULL(nutri_score,''), IFNULL(nova_score,''), fetched_at`

func (s *ProductStore) Get(ctx context.Context, barcode string) (model.Product, bool, error) {
	barcode = strings.TrimSpace(barcode)
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE barcode = ?`, barcode)
	entry, err := s.scan(row)
	if err == sql.ErrNoRows {
		return model.Product{}, false, nil
	}
	if err != nil {
		return model.Product{}, false, fmt.Errorf("lookup product %q: %w", barcode, err)
	}
	return entry.Product, true, nil
}

func (s *ProductStore) Put(ctx context.Context, barcode string, p model.Product) error {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return fmt.Errorf("barcode is required")
	}
	nutritionJSON := ""
	if len(p.Nutrition) > 0 {
		b, err := json.Marshal(p.Nutrition)
		if err != nil {
			return fmt.Errorf("encode nutrition for %q: %w", barcode, err)
		}
		nutritionJSON = string(b)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO products(barcode, name, brand, image_url, quantity, ingredients, additives, packaging, carbon_footprint, nutrition_json, nutri_score, nova_score, fetched_at, seq)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT IFNULL(MAX(seq), 0) + 1 FROM products))
ON CONFLICT(barcode) DO UPDATE SET
  name=excluded.name,
  brand=excluded.brand,
  image_url=excluded.image_url,
  quantity=excluded.quantity,
  ingredients=excluded.ingredients,
  additives=excluded.additives,
  packaging=excluded.packaging,
  carbon_footprint=excluded.carbon_footprint,
  nutrition_json=excluded.nutrition_json,
  nutri_score=excluded.nutri_score,
  nova_score=excluded.nova_score,
  fetched_at=excluded.fetched_at,
  seq=excluded.seq
`, barcode,
		nullString(p.Name), nullString(p.Brand), nullString(p.ImageURL), nullString(p.Quantity),
		nullString(p.Ingredients), nullString(joinAdditives(p.Additives)), nullString(p.Packaging),
		nullString(p.CarbonFootprint), nullString(nutritionJSON), nullString(p.NutriScore), nullString(p.NovaScore),
		s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", barcode, err)
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, barcode string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE barcode = ?`, strings.TrimSpace(barcode)); err != nil {
		return fmt.Errorf("delete product %q: %w", barcode, err)
	}
	return nil
}

// Remove deletes barcode and reports whether a row existed.
func (s *ProductStore) Remove(ctx context.Context, barcode string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE barcode = ?`, strings.TrimSpace(barcode))
	if err != nil {
		return false, fmt.Errorf("delete product %q: %w", barcode, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete product rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *ProductStore) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products`)
	if err != nil {
		return 0, fmt.Errorf("clear products: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear products rows affected: %w", err)
	}
	return affected, nil
}

// History lists cached products, most recently fetched or saved first.
func (s *ProductStore) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()
	out := make([]model.HistoryEntry, 0)
	for rows.Next() {
		entry, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *ProductStore) scan(row scanner) (model.HistoryEntry, error) {
	var (
		e            model.HistoryEntry
		additivesRaw string
		nutritionRaw string
		fetchedAtRaw string
	)
	if err := row.Scan(
		&e.Barcode, &e.Name, &e.Brand, &e.ImageURL, &e.Quantity, &e.Ingredients,
		&additivesRaw, &e.Packaging, &e.CarbonFootprint, &nutritionRaw,
		&e.NutriScore, &e.NovaScore, &fetchedAtRaw,
	); err != nil {
		return model.HistoryEntry{}, err
	}
	e.Additives = splitAdditives(additivesRaw)
	nutrition, err := DecodeNutrition(nutritionRaw)
	if err != nil {
		s.log.WithFields(logrus.Fields{"barcode": e.Barcode, "error": err}).Warn("ignoring malformed cached nutrition")
	}
	e.Nutrition = nutrition
	if e.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAtRaw); err != nil {
		s.log.WithFields(logrus.Fields{"barcode": e.Barcode, "fetched_at": fetchedAtRaw, "error": err}).Warn("ignoring malformed fetched_at")
	}
	return e, nil
}

// DecodeNutrition parses a stored nutrition map. Malformed input yields an
// empty map together with the parse error.
func DecodeNutrition(raw string) (map[string]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out map[string]float64
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode nutrition json: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func joinAdditives(codes []string) string {
	clean := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			clean = append(clean, c)
		}
	}
	return strings.Join(clean, ",")
}

func splitAdditives(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
