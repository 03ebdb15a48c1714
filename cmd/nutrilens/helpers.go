package nutrilens

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Suryadikhit/NutriLens/internal/app"
	"github.com/Suryadikhit/NutriLens/internal/config"
	"github.com/Suryadikhit/NutriLens/internal/db"
	"github.com/Suryadikhit/NutriLens/internal/logging"
	"github.com/Suryadikhit/NutriLens/internal/service"
)

var settings = viper.New()

// commandKeys maps command flags onto config keys so a changed flag takes
// precedence over every other source.
var commandKeys = map[string]string{
	"provider": config.KeyProvider,
	"base-url": config.KeyBaseURL,
	"addr":     config.KeyServerAddr,
}

func loadSettings(cmd *cobra.Command) error {
	settings = viper.New()
	bind := func(key string, f *pflag.Flag) error {
		if f == nil {
			return nil
		}
		if err := settings.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", f.Name, err)
		}
		return nil
	}
	if err := bind(config.KeyDB, rootCmd.PersistentFlags().Lookup("db")); err != nil {
		return err
	}
	if err := bind(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("loglevel")); err != nil {
		return err
	}
	for name, key := range commandKeys {
		if err := bind(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	if err := config.Init(settings, cfgFile); err != nil {
		return err
	}
	cfg, err := config.Resolve(settings, nil)
	if err != nil {
		return err
	}
	logging.SetJSON(logJSON)
	return logging.SetLogLevel(cfg.LogLevel)
}

// resolveConfig layers values saved with `config set` under the flag, env
// and file settings.
func resolveConfig(sqldb *sql.DB) (config.Config, error) {
	stored, err := service.ListConfig(sqldb)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Resolve(settings, stored)
	if err != nil {
		return config.Config{}, err
	}
	if err := logging.SetLogLevel(cfg.LogLevel); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func resolveDBPath() (string, error) {
	cfg, err := config.Resolve(settings, nil)
	if err != nil {
		return "", err
	}
	return cfg.DB, nil
}

func withDB(run func(*sql.DB) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		return err
	}
	return run(sqldb)
}

func newProducts(sqldb *sql.DB) (*service.Products, error) {
	cfg, err := resolveConfig(sqldb)
	if err != nil {
		return nil, err
	}
	client, err := service.NewProductClient(service.ClientOptions{
		Provider: cfg.Provider,
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.Timeout,
		RetryMax: cfg.Retries,
		Logger:   logging.Log,
	})
	if err != nil {
		return nil, err
	}
	logging.Log.WithField("provider", service.NormalizeProvider(cfg.Provider)).Debug("using product provider")
	return service.NewProducts(sqldb, client, logging.Log), nil
}

// lookupError replaces remote lookup failures with their display message.
func lookupError(err error) error {
	if err == nil || errors.Is(err, service.ErrInvalidBarcode) {
		return err
	}
	logging.Log.WithError(err).Debug("lookup failed")
	if msg := service.DisplayMessage(err); msg != "" {
		return errors.New(msg)
	}
	return err
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// localProducts serves commands that only touch the cache.
func localProducts(sqldb *sql.DB) *service.Products {
	return service.NewProducts(sqldb, nil, logging.Log)
}
