package nutrilens

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	dbPath   string
	cfgFile  string
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "nutrilens",
	Short: "nutrilens looks up food products by barcode",
	Long: `nutrilens resolves barcodes to product records (scores, nutrition facts,
ingredients and additives) through the NutriLens API, Open Food Facts, USDA
FoodData Central or UPCitemdb and keeps every product it fetches in a local
SQLite cache.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI. Interrupts cancel the command context so in-flight
// lookups are abandoned quietly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here: loadSettings reads rootCmd's own flags.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return loadSettings(cmd)
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.nutrilens.yaml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "loglevel", "l", "", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
}
