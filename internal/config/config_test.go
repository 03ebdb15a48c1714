package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	v := viper.New()
	if err := Init(v, "", filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := Resolve(v, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Provider != DefaultProvider || cfg.Timeout != DefaultTimeout || cfg.Retries != DefaultRetries {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ServerAddr != ":8000" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !strings.HasSuffix(cfg.DB, filepath.Join("nutrilens", "nutrilens.db")) {
		t.Fatalf("unexpected default db path %q", cfg.DB)
	}
}

func TestResolvePrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "nutrilens.yaml")
	writeFile(t, cfgPath, "provider: openfoodfacts\napi:\n  timeout: 30s\n  retries: 4\nserver:\n  addr: \":9000\"\n")

	t.Setenv("NUTRILENS_API_RETRIES", "1")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	if err := flags.Parse([]string{"--db", filepath.Join(dir, "flag.db")}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	v := viper.New()
	if err := v.BindPFlag(KeyDB, flags.Lookup("db")); err != nil {
		t.Fatalf("bind flag: %v", err)
	}
	if err := Init(v, cfgPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("init: %v", err)
	}
	stored := map[string]string{
		KeyProvider: "nutrilens",
		KeyBaseURL:  "http://stored.example",
		KeyLogLevel: "debug",
	}
	cfg, err := Resolve(v, stored)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.DB != filepath.Join(dir, "flag.db") {
		t.Fatalf("flag should win for db, got %q", cfg.DB)
	}
	if cfg.Retries != 1 {
		t.Fatalf("env should win over file for retries, got %d", cfg.Retries)
	}
	if cfg.Provider != "openfoodfacts" || cfg.Timeout != 30*time.Second || cfg.ServerAddr != ":9000" {
		t.Fatalf("file should win over stored values: %+v", cfg)
	}
	if cfg.BaseURL != "http://stored.example" || cfg.LogLevel != "debug" {
		t.Fatalf("stored values should fill gaps: %+v", cfg)
	}
}

func TestInitLoadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	writeFile(t, envPath, "NUTRILENS_API_BASE_URL=http://dotenv.example\n")
	cfgPath := filepath.Join(dir, "empty.yaml")
	writeFile(t, cfgPath, "{}\n")
	t.Setenv("NUTRILENS_API_BASE_URL", "")
	os.Unsetenv("NUTRILENS_API_BASE_URL")

	v := viper.New()
	if err := Init(v, cfgPath, envPath); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := Resolve(v, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.BaseURL != "http://dotenv.example" {
		t.Fatalf("expected base url from .env, got %q", cfg.BaseURL)
	}
}

func TestInitMissingExplicitConfig(t *testing.T) {
	v := viper.New()
	if err := Init(v, filepath.Join(t.TempDir(), "nope.yaml"), filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected missing explicit config file to fail")
	}
}

func TestResolveRejectsBadValues(t *testing.T) {
	v := viper.New()
	if _, err := Resolve(v, map[string]string{KeyDB: "x.db", KeyTimeout: "never"}); err == nil {
		t.Fatalf("expected bad timeout to fail")
	}
	if _, err := Resolve(v, map[string]string{KeyDB: "x.db", KeyRetries: "-3"}); err == nil {
		t.Fatalf("expected negative retries to fail")
	}
	cfg, err := Resolve(v, map[string]string{KeyDB: "x.db", KeyTimeout: "7"})
	if err != nil || cfg.Timeout != 7*time.Second {
		t.Fatalf("expected bare seconds to parse, got %v err=%v", cfg.Timeout, err)
	}
}

func TestAPIKeyIgnoresStoredValue(t *testing.T) {
	v := viper.New()
	cfg, err := Resolve(v, map[string]string{KeyDB: "x.db", KeyAPIKey: "from-db"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.APIKey != "" {
		t.Fatalf("stored api key should be ignored, got %q", cfg.APIKey)
	}

	v.Set(KeyAPIKey, " from-env ")
	cfg, err = Resolve(v, map[string]string{KeyDB: "x.db"})
	if err != nil || cfg.APIKey != "from-env" {
		t.Fatalf("expected api key from viper, got %q err=%v", cfg.APIKey, err)
	}
}
