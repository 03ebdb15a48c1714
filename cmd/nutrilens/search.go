package nutrilens

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search products by name on the remote service",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		return withDB(func(sqldb *sql.DB) error {
			products, err := newProducts(sqldb)
			if err != nil {
				return err
			}
			items, err := products.Search(cmd.Context(), query)
			if err != nil {
				return lookupError(err)
			}
			if searchJSON {
				return printJSON(cmd, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No products found")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "BARCODE\tNAME\tBRAND\tNUTRI-SCORE")
			for _, p := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", valueOr(p.Barcode, "-"), p.Name, valueOr(p.Brand, "-"), valueOr(p.NutriScore, "-"))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output JSON")
	addProviderFlags(searchCmd)
}
