package nutrilens

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Suryadikhit/NutriLens/internal/classify"
)

var classifyJSON bool

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Run the ingredient and additive tables on arbitrary input",
}

var classifyIngredientsCmd = &cobra.Command{
	Use:   "ingredients <text>",
	Short: "Group a comma-separated ingredient list by category",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		groups := classify.CategorizeIngredients(strings.Join(args, " "))
		if classifyJSON {
			return printJSON(cmd, groups)
		}
		printCategories(cmd.OutOrStdout(), groups)
		return nil
	},
}

var classifyAdditivesCmd = &cobra.Command{
	Use:   "additives <code>...",
	Short: "Show the display color for each additive code",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items := classify.HighlightAdditives(args)
		if classifyJSON {
			return printJSON(cmd, items)
		}
		printHighlights(cmd.OutOrStdout(), items)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.AddCommand(classifyIngredientsCmd, classifyAdditivesCmd)
	classifyCmd.PersistentFlags().BoolVar(&classifyJSON, "json", false, "Output JSON")
}
