package app

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDirName = "nutrilens"
	dbFileName = "nutrilens.db"
)

// DefaultDBPath is the product cache location under the user config dir.
func DefaultDBPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDirName, dbFileName), nil
}

func EnsureDBDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return nil
}

// DefaultBackupPath names a timestamped backup next to the database.
func DefaultBackupPath(dbPath, stamp string) string {
	return filepath.Join(filepath.Dir(dbPath), "backups", fmt.Sprintf("nutrilens-%s.db", stamp))
}
