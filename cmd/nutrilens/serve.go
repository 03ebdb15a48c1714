package nutrilens

import (
	"github.com/spf13/cobra"

	"github.com/Suryadikhit/NutriLens/internal/config"
	"github.com/Suryadikhit/NutriLens/internal/logging"
	"github.com/Suryadikhit/NutriLens/internal/provider"
	"github.com/Suryadikhit/NutriLens/internal/provider/openfoodfacts"
	"github.com/Suryadikhit/NutriLens/internal/server"
)

var serveUpstream string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the NutriLens HTTP API backed by Open Food Facts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(settings, nil)
		if err != nil {
			return err
		}
		upstream := &openfoodfacts.Client{
			BaseURL: serveUpstream,
			HTTPClient: provider.NewHTTPClient(provider.HTTPOptions{
				Timeout:  cfg.Timeout,
				RetryMax: cfg.Retries,
				Logger:   logging.Log,
			}),
		}
		return server.New(upstream, logging.Log).ListenAndServe(cmd.Context(), cfg.ServerAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", config.DefaultServerAddr, "Listen address")
	serveCmd.Flags().StringVar(&serveUpstream, "upstream", openfoodfacts.DefaultBaseURL, "Open Food Facts base URL")
}
