package service

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Suryadikhit/NutriLens/internal/config"
)

// Keys persisted in app_config. They share names with the config file keys
// so a stored value can act as a fallback for any of them.
const (
	ConfigProvider   = config.KeyProvider
	ConfigBaseURL    = config.KeyBaseURL
	ConfigTimeout    = config.KeyTimeout
	ConfigRetries    = config.KeyRetries
	ConfigServerAddr = config.KeyServerAddr
	ConfigLogLevel   = config.KeyLogLevel
)

var configValidators = map[string]func(string) error{
	ConfigProvider: func(v string) error {
		if NormalizeProvider(v) == "" {
			return fmt.Errorf("unsupported provider %q", v)
		}
		return nil
	},
	ConfigBaseURL: func(v string) error {
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return fmt.Errorf("base url must start with http:// or https://")
		}
		return nil
	},
	ConfigTimeout: func(v string) error {
		if _, err := config.ParseDuration(v); err != nil {
			return fmt.Errorf("timeout must be a positive duration such as 10s")
		}
		return nil
	},
	ConfigRetries: func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("retries must be a non-negative integer")
		}
		return nil
	},
	ConfigServerAddr: func(v string) error { return nil },
	ConfigLogLevel: func(v string) error {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "warning", "error", "fatal":
			return nil
		}
		return fmt.Errorf("unknown log level %q", v)
	},
}

func ConfigKeys() []string {
	keys := make([]string, 0, len(configValidators))
	for k := range configValidators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	value = strings.TrimSpace(value)
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	validate, ok := configValidators[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(ConfigKeys(), ", "))
	}
	if err := validate(value); err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	_, err := db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value)
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}
