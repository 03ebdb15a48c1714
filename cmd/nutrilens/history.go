package nutrilens

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Suryadikhit/NutriLens/internal/model"
	"github.com/Suryadikhit/NutriLens/internal/provider"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage cached products, most recent first",
}

var (
	historyLimit int
	historyJSON  bool

	saveName        string
	saveBrand       string
	saveImageURL    string
	saveQuantity    string
	saveIngredients string
	saveAdditives   []string
	savePackaging   string
	saveCarbon      string
	saveNutriScore  string
	saveNova        string
	saveNutrients   []string
)

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := localProducts(sqldb).History(cmd.Context(), historyLimit)
			if err != nil {
				return err
			}
			if historyJSON {
				return printJSON(cmd, items)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "BARCODE\tNAME\tBRAND\tFETCHED")
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", it.Barcode, valueOr(it.Name, "-"), valueOr(it.Brand, "-"), it.FetchedAt.Local().Format(time.RFC3339))
			}
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <barcode>",
	Short: "Remove a product from the cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			removed, err := localProducts(sqldb).DeleteHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("barcode %s is not in history", strings.TrimSpace(args[0]))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", strings.TrimSpace(args[0]))
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached product",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			n, err := localProducts(sqldb).ClearHistory(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d product(s)\n", n)
			return nil
		})
	},
}

var historySaveCmd = &cobra.Command{
	Use:   "save <barcode>",
	Short: "Save a product entered by hand, replacing any cached copy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nutrition, err := parseNutrients(saveNutrients)
		if err != nil {
			return err
		}
		p := model.Product{
			Barcode:         args[0],
			Name:            saveName,
			Brand:           saveBrand,
			ImageURL:        saveImageURL,
			Quantity:        saveQuantity,
			Ingredients:     saveIngredients,
			Additives:       saveAdditives,
			Packaging:       savePackaging,
			CarbonFootprint: saveCarbon,
			Nutrition:       nutrition,
			NutriScore:      strings.ToUpper(strings.TrimSpace(saveNutriScore)),
			NovaScore:       strings.TrimSpace(saveNova),
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := localProducts(sqldb).SaveProduct(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", strings.TrimSpace(p.Barcode))
			return nil
		})
	},
}

// parseNutrients reads key=value pairs such as energy-kcal_100g=539.
func parseNutrients(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --nutrient %q (expected key=value)", pair)
		}
		v, ok := provider.ParseNumber(raw)
		if !ok {
			return nil, fmt.Errorf("invalid --nutrient %q: value must be a finite number", pair)
		}
		out[key] = v
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyDeleteCmd, historyClearCmd, historySaveCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 100, "Maximum number of products to list")
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "Output JSON")

	historySaveCmd.Flags().StringVar(&saveName, "name", "", "Product name")
	historySaveCmd.Flags().StringVar(&saveBrand, "brand", "", "Brand")
	historySaveCmd.Flags().StringVar(&saveImageURL, "image-url", "", "Image URL")
	historySaveCmd.Flags().StringVar(&saveQuantity, "quantity", "", "Quantity, e.g. 400 g")
	historySaveCmd.Flags().StringVar(&saveIngredients, "ingredients", "", "Comma-separated ingredient list")
	historySaveCmd.Flags().StringSliceVar(&saveAdditives, "additives", nil, "Additive codes, e.g. E330,E322")
	historySaveCmd.Flags().StringVar(&savePackaging, "packaging", "", "Packaging")
	historySaveCmd.Flags().StringVar(&saveCarbon, "carbon-footprint", "", "Carbon footprint text")
	historySaveCmd.Flags().StringVar(&saveNutriScore, "nutri-score", "", "Nutri-Score letter (A-E)")
	historySaveCmd.Flags().StringVar(&saveNova, "nova", "", "NOVA group (1-4)")
	historySaveCmd.Flags().StringArrayVar(&saveNutrients, "nutrient", nil, "Nutrient per 100g as key=value (repeatable)")
}
