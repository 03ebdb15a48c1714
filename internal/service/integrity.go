package service

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Suryadikhit/NutriLens/internal/db"
	"github.com/Suryadikhit/NutriLens/internal/store"
)

const checksumSuffix = ".sha256"

type BackupInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum,omitempty"`
	Products  int       `json:"products,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

type DoctorReport struct {
	Products           int `json:"products"`
	InvalidNutrition   int `json:"invalid_nutrition"`
	InvalidBarcodes    int `json:"invalid_barcodes"`
	InvalidScores      int `json:"invalid_scores"`
	FixedNutritionRows int `json:"fixed_nutrition_rows,omitempty"`
	FixedScoreRows     int `json:"fixed_score_rows,omitempty"`
}

// Clean reports whether nothing needs attention.
func (r DoctorReport) Clean() bool {
	return r.InvalidNutrition == 0 && r.InvalidBarcodes == 0 && r.InvalidScores == 0
}

// CreateBackup writes a consistent snapshot of the open cache to outPath
// with VACUUM INTO, plus a sha256 sidecar. Existing files are never
// overwritten.
func CreateBackup(sqldb *sql.DB, outPath string) (BackupInfo, error) {
	outPath = strings.TrimSpace(outPath)
	if outPath == "" {
		return BackupInfo{}, fmt.Errorf("backup path is required")
	}
	if _, err := os.Stat(outPath); err == nil {
		return BackupInfo{}, fmt.Errorf("refusing to overwrite %s", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup dir: %w", err)
	}

	info := BackupInfo{Path: outPath}
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM products`).Scan(&info.Products); err != nil {
		return BackupInfo{}, fmt.Errorf("count products: %w", err)
	}
	if _, err := sqldb.Exec(`VACUUM INTO ?`, outPath); err != nil {
		return BackupInfo{}, fmt.Errorf("vacuum into %s: %w", outPath, err)
	}

	sum, err := checksumFile(outPath)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := os.WriteFile(outPath+checksumSuffix, []byte(sum+"\n"), 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write %s: %w", checksumSuffix, err)
	}
	st, err := os.Stat(outPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("stat backup: %w", err)
	}
	info.Checksum = sum
	info.CreatedAt = st.ModTime()
	info.SizeBytes = st.Size()
	return info, nil
}

// RestoreBackup replaces dbPath with backupPath. The copy is staged next to
// the target, checked against the sidecar checksum when present and opened
// to make sure it holds a products table before it is renamed into place.
func RestoreBackup(backupPath, dbPath string, force bool) error {
	backupPath, dbPath = strings.TrimSpace(backupPath), strings.TrimSpace(dbPath)
	if backupPath == "" || dbPath == "" {
		return fmt.Errorf("backup path and db path are required")
	}
	if _, err := os.Stat(dbPath); err == nil && !force {
		return fmt.Errorf("%s already exists; use --force to overwrite", dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	staged := dbPath + ".restore"
	sum, err := copyAndHash(backupPath, staged)
	if err != nil {
		_ = os.Remove(staged)
		return err
	}
	if want, err := os.ReadFile(backupPath + checksumSuffix); err == nil && strings.TrimSpace(string(want)) != sum {
		_ = os.Remove(staged)
		return fmt.Errorf("backup checksum mismatch for %s", backupPath)
	}
	if err := verifySnapshot(staged); err != nil {
		_ = os.Remove(staged)
		return err
	}
	if err := os.Rename(staged, dbPath); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("move restored db into place: %w", err)
	}
	return nil
}

func verifySnapshot(path string) error {
	sqldb, err := db.Open(path)
	if err != nil {
		return fmt.Errorf("not a nutrilens database: %w", err)
	}
	defer sqldb.Close()
	var n int
	if err := sqldb.QueryRow(`SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'products'`).Scan(&n); err != nil {
		return fmt.Errorf("not a nutrilens database: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("not a nutrilens database: products table missing")
	}
	return nil
}

// ListBackups returns the snapshots in dir, newest first. A missing dir is
// an empty list.
func ListBackups(dir string) ([]BackupInfo, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.db"))
	if err != nil {
		return nil, fmt.Errorf("list backups in %s: %w", dir, err)
	}
	out := make([]BackupInfo, 0, len(matches))
	for _, path := range matches {
		st, err := os.Stat(path)
		if err != nil || !st.Mode().IsRegular() {
			continue
		}
		info := BackupInfo{Path: path, CreatedAt: st.ModTime(), SizeBytes: st.Size()}
		if b, err := os.ReadFile(path + checksumSuffix); err == nil {
			info.Checksum = strings.TrimSpace(string(b))
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type doctorRow struct {
	barcode    string
	nutrition  string
	nutriScore string
}

// RunDoctor scans the cache for rows the lookup path would have to degrade:
// unreadable nutrition JSON, barcodes outside the accepted format and
// Nutri-Score grades other than A-E. With fix, nutrition is reset to an
// empty object and bad grades are cleared; barcodes are only reported.
func RunDoctor(sqldb *sql.DB, fix bool) (DoctorReport, error) {
	rows, err := loadDoctorRows(sqldb)
	if err != nil {
		return DoctorReport{}, err
	}

	report := DoctorReport{Products: len(rows)}
	var badNutrition, badScores []string
	for _, r := range rows {
		if _, err := NormalizeBarcode(r.barcode); err != nil {
			report.InvalidBarcodes++
		}
		if _, err := store.DecodeNutrition(r.nutrition); err != nil {
			report.InvalidNutrition++
			badNutrition = append(badNutrition, r.barcode)
		}
		if r.nutriScore != "" && !validGrade(r.nutriScore) {
			report.InvalidScores++
			badScores = append(badScores, r.barcode)
		}
	}
	if !fix || (len(badNutrition) == 0 && len(badScores) == 0) {
		return report, nil
	}

	tx, err := sqldb.Begin()
	if err != nil {
		return report, fmt.Errorf("doctor: begin fix: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, code := range badNutrition {
		if _, err := tx.Exec(`UPDATE products SET nutrition_json = '{}' WHERE barcode = ?`, code); err != nil {
			return report, fmt.Errorf("doctor: reset nutrition for %q: %w", code, err)
		}
		report.FixedNutritionRows++
	}
	for _, code := range badScores {
		if _, err := tx.Exec(`UPDATE products SET nutri_score = NULL WHERE barcode = ?`, code); err != nil {
			return report, fmt.Errorf("doctor: clear nutri-score for %q: %w", code, err)
		}
		report.FixedScoreRows++
	}
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("doctor: commit fix: %w", err)
	}
	return report, nil
}

func loadDoctorRows(sqldb *sql.DB) ([]doctorRow, error) {
	rs, err := sqldb.Query(`SELECT barcode, IFNULL(nutrition_json,''), IFNULL(nutri_score,'') FROM products ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("doctor: query products: %w", err)
	}
	defer rs.Close()
	var out []doctorRow
	for rs.Next() {
		var r doctorRow
		if err := rs.Scan(&r.barcode, &r.nutrition, &r.nutriScore); err != nil {
			return nil, fmt.Errorf("doctor: scan product: %w", err)
		}
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("doctor: iterate products: %w", err)
	}
	return out, nil
}

func validGrade(g string) bool {
	return len(g) == 1 && strings.Contains("ABCDE", strings.ToUpper(g))
}

// copyAndHash copies src to dst and returns the sha256 of the bytes copied.
func copyAndHash(src, dst string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open backup: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()
	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, h), in); err != nil {
		return "", fmt.Errorf("copy backup: %w", err)
	}
	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("sync %s: %w", dst, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s for checksum: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
