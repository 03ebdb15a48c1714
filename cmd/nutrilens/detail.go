package nutrilens

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Suryadikhit/NutriLens/internal/classify"
	"github.com/Suryadikhit/NutriLens/internal/service"
)

var (
	detailJSON    bool
	detailRefresh bool
)

var detailCmd = &cobra.Command{
	Use:   "detail <barcode>",
	Short: "Show a product by barcode, from the cache when possible",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			products, err := newProducts(sqldb)
			if err != nil {
				return err
			}
			var d service.ProductDetail
			if detailRefresh {
				d, err = products.Refresh(cmd.Context(), args[0])
			} else {
				d, err = products.Detail(cmd.Context(), args[0])
			}
			if err != nil {
				return lookupError(err)
			}
			if detailJSON {
				return printJSON(cmd, d)
			}
			printDetail(cmd.OutOrStdout(), d)
			return nil
		})
	},
}

func printDetail(out io.Writer, d service.ProductDetail) {
	p := d.Product
	fmt.Fprintf(out, "Barcode: %s (%s)\n", p.Barcode, d.Source)
	fmt.Fprintf(out, "Name: %s\n", valueOr(p.Name, "Unknown"))
	fmt.Fprintf(out, "Brand: %s\n", valueOr(p.Brand, "Unknown"))
	if p.Quantity != "" {
		fmt.Fprintf(out, "Quantity: %s\n", p.Quantity)
	}
	if len(d.NutriScore) > 0 {
		cells := make([]string, 0, len(d.NutriScore))
		for _, c := range d.NutriScore {
			if c.Selected {
				cells = append(cells, fmt.Sprintf("[%s %s]", c.Letter, c.Color))
				continue
			}
			cells = append(cells, c.Letter)
		}
		fmt.Fprintf(out, "Nutri-Score: %s\n", strings.Join(cells, " "))
	}
	if p.NovaScore != "" {
		fmt.Fprintf(out, "NOVA: %s (%s)\n", p.NovaScore, d.NovaColor)
	}
	if p.Packaging != "" {
		fmt.Fprintf(out, "Packaging: %s\n", p.Packaging)
	}
	if p.CarbonFootprint != "" {
		fmt.Fprintf(out, "Carbon footprint: %s\n", p.CarbonFootprint)
	}

	fmt.Fprintln(out, "\nNutrition (per 100g)")
	for _, n := range d.Nutrition {
		fmt.Fprintf(out, "  %-10s %s\n", n.Label, service.FormatNutrient(n))
	}

	if len(d.Ingredients) > 0 {
		fmt.Fprintln(out, "\nIngredients")
		printCategories(out, d.Ingredients)
	}
	if len(d.Additives) > 0 {
		fmt.Fprintln(out, "\nAdditives")
		printHighlights(out, d.Additives)
	}
}

func printCategories(out io.Writer, groups classify.Categorized) {
	for _, g := range groups {
		fmt.Fprintf(out, "  %s: %s\n", g.Category, strings.Join(g.Ingredients, ", "))
	}
}

func printHighlights(out io.Writer, items []classify.Highlight) {
	for _, h := range items {
		fmt.Fprintf(out, "  %s\t%s\n", h.Code, h.Color)
	}
}

func init() {
	rootCmd.AddCommand(detailCmd)
	detailCmd.Flags().BoolVar(&detailJSON, "json", false, "Output JSON")
	detailCmd.Flags().BoolVar(&detailRefresh, "refresh", false, "Fetch from the remote service even if cached")
	addProviderFlags(detailCmd)
}

func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "Lookup provider: "+strings.Join(service.Providers, ", "))
	cmd.Flags().String("base-url", "", "Override the provider base URL")
}
