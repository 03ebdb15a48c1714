package nutrilens

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Suryadikhit/NutriLens/internal/service"
)

var configShowEffective bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage settings stored in the local database",
	Long: `Stored settings are the last fallback: command flags, NUTRILENS_* environment
variables and the config file all take precedence.`,
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Store a configuration value",
	Args:      cobra.ExactArgs(2),
	ValidArgs: service.ConfigKeys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.SetConfig(sqldb, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])
			return nil
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show stored configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if configShowEffective {
				cfg, err := resolveConfig(sqldb)
				if err != nil {
					return err
				}
				return printJSON(cmd, cfg)
			}
			if len(args) == 1 {
				v, ok, err := service.GetConfig(sqldb, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("config key %q is not set", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}
			cfg, err := service.ListConfig(sqldb)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(cfg))
			for k := range cfg {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(cmd.OutOrStdout(), "KEY\tVALUE")
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, cfg[k])
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd)
	configGetCmd.Flags().BoolVar(&configShowEffective, "effective", false, "Show the merged settings from every source as JSON")
}
