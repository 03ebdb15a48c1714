package nutrilens

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Suryadikhit/NutriLens/internal/service"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the product cache for unreadable rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cached products: %d\n", report.Products)
			fmt.Fprintf(cmd.OutOrStdout(), "Unreadable nutrition rows: %d\n", report.InvalidNutrition)
			fmt.Fprintf(cmd.OutOrStdout(), "Malformed barcodes: %d\n", report.InvalidBarcodes)
			fmt.Fprintf(cmd.OutOrStdout(), "Invalid Nutri-Score grades: %d\n", report.InvalidScores)
			if doctorFix {
				fmt.Fprintf(cmd.OutOrStdout(), "Fixed nutrition rows: %d\n", report.FixedNutritionRows)
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared grades: %d\n", report.FixedScoreRows)
				// Re-check after fixes so exit status reflects final state.
				report, err = service.RunDoctor(sqldb, false)
				if err != nil {
					return err
				}
			}
			if !report.Clean() {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "reset unreadable nutrition and clear invalid grades")
}
