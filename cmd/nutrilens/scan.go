package nutrilens

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Look up barcodes read from stdin, one per line",
	Long: `scan reads barcodes from stdin (a keyboard wedge scanner or manual entry),
looks each one up and prints a one-line summary. Enter q to stop. Interrupting
discards the lookup in progress.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			products, err := newProducts(sqldb)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			out := cmd.OutOrStdout()

			lines := make(chan string)
			readErr := make(chan error, 1)
			go func() {
				defer close(lines)
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					select {
					case lines <- sc.Text():
					case <-ctx.Done():
						return
					}
				}
				readErr <- sc.Err()
			}()

			for {
				var line string
				select {
				case <-ctx.Done():
					return nil
				case l, ok := <-lines:
					if !ok {
						select {
						case err := <-readErr:
							if err != nil {
								return fmt.Errorf("read barcodes: %w", err)
							}
						default:
						}
						return nil
					}
					line = strings.TrimSpace(l)
				}
				if line == "" {
					continue
				}
				if line == "q" || line == "quit" {
					return nil
				}
				res, ok := <-products.LoadDetail(ctx, line)
				if !ok {
					return nil
				}
				if res.Err != nil {
					if err := lookupError(res.Err); err != nil {
						fmt.Fprintf(out, "%s\t%s\n", line, err)
					}
					continue
				}
				p := res.Detail.Product
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n", p.Barcode, valueOr(p.Name, "Unknown"), valueOr(p.Brand, "-"), valueOr(p.NutriScore, "-"), res.Detail.Source)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	addProviderFlags(scanCmd)
}
