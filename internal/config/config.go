// Package config resolves runtime settings from flags, NUTRILENS_* environment
// variables, an optional .env file, the YAML config file and values stored
// in the database, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/Suryadikhit/NutriLens/internal/app"
)

const (
	EnvPrefix      = "NUTRILENS"
	configBaseName = ".nutrilens"
)

const (
	KeyDB         = "db"
	KeyProvider   = "provider"
	KeyBaseURL    = "api.base_url"
	KeyAPIKey     = "api.key"
	KeyTimeout    = "api.timeout"
	KeyRetries    = "api.retries"
	KeyServerAddr = "server.addr"
	KeyLogLevel   = "log.level"
)

const (
	DefaultProvider   = "nutrilens"
	DefaultTimeout    = 12 * time.Second
	DefaultRetries    = 2
	DefaultServerAddr = ":8000"
	DefaultLogLevel   = "info"
)

type Config struct {
	DB         string        `json:"db"`
	Provider   string        `json:"provider"`
	BaseURL    string        `json:"base_url,omitempty"`
	APIKey     string        `json:"-"`
	Timeout    time.Duration `json:"timeout"`
	Retries    int           `json:"retries"`
	ServerAddr string        `json:"server_addr"`
	LogLevel   string        `json:"log_level"`
}

// Init loads envFiles (default .env) into the process environment, wires
// the NUTRILENS_ prefix and reads cfgFile, or $HOME/.nutrilens.yaml when
// cfgFile is empty. Missing default files are not an error.
func Init(v *viper.Viper, cfgFile string, envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return fmt.Errorf("resolve home dir: %w", err)
	}
	v.AddConfigPath(home)
	v.SetConfigName(configBaseName)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Resolve builds the effective Config. Keys viper knows about (changed
// flags, env, config file) win over stored, which wins over the defaults.
func Resolve(v *viper.Viper, stored map[string]string) (Config, error) {
	lookup := func(key string) (string, bool) {
		if v.IsSet(key) {
			return strings.TrimSpace(v.GetString(key)), true
		}
		if s, ok := stored[key]; ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
		return "", false
	}

	cfg := Config{
		Provider:   DefaultProvider,
		Timeout:    DefaultTimeout,
		Retries:    DefaultRetries,
		ServerAddr: DefaultServerAddr,
		LogLevel:   DefaultLogLevel,
	}
	if s, ok := lookup(KeyDB); ok && s != "" {
		cfg.DB = s
	} else {
		path, err := app.DefaultDBPath()
		if err != nil {
			return Config{}, err
		}
		cfg.DB = path
	}
	if s, ok := lookup(KeyProvider); ok && s != "" {
		cfg.Provider = strings.ToLower(s)
	}
	if s, ok := lookup(KeyBaseURL); ok {
		cfg.BaseURL = s
	}
	// Secrets never come from the database.
	if v.IsSet(KeyAPIKey) {
		cfg.APIKey = strings.TrimSpace(v.GetString(KeyAPIKey))
	}
	if s, ok := lookup(KeyTimeout); ok && s != "" {
		d, err := ParseDuration(s)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", KeyTimeout, err)
		}
		cfg.Timeout = d
	}
	if s, ok := lookup(KeyRetries); ok && s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("%s: expected a non-negative integer, got %q", KeyRetries, s)
		}
		cfg.Retries = n
	}
	if s, ok := lookup(KeyServerAddr); ok && s != "" {
		cfg.ServerAddr = s
	}
	if s, ok := lookup(KeyLogLevel); ok && s != "" {
		cfg.LogLevel = strings.ToLower(s)
	}
	return cfg, nil
}

// ParseDuration accepts Go durations and bare seconds.
func ParseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("expected a positive duration, got %q", s)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("expected a positive duration, got %q", s)
	}
	return d, nil
}
