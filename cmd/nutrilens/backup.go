package nutrilens

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Suryadikhit/NutriLens/internal/app"
	"github.com/Suryadikhit/NutriLens/internal/service"
)

var (
	backupDir     string
	backupOut     string
	backupJSON    bool
	restoreSource string
	restoreForce  bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot and restore the product cache",
}

// backupTarget picks where a new snapshot goes: --out, else a timestamped
// file under --dir or the default backups folder next to the database.
func backupTarget(dbPath string, now time.Time) string {
	if backupOut != "" {
		return backupOut
	}
	def := app.DefaultBackupPath(dbPath, now.Format("20060102-150405"))
	if backupDir == "" {
		return def
	}
	return filepath.Join(backupDir, filepath.Base(def))
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a consistent copy of the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath()
		if err != nil {
			return err
		}
		target := backupTarget(dbPath, time.Now())
		return withDB(func(sqldb *sql.DB) error {
			info, err := service.CreateBackup(sqldb, target)
			if err != nil {
				return err
			}
			if backupJSON {
				return printJSON(cmd, info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s (sha256 %s)\n", info.Path, info.Checksum)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath()
		if err != nil {
			return err
		}
		dir := backupDir
		if dir == "" {
			dir = filepath.Dir(app.DefaultBackupPath(dbPath, ""))
		}
		items, err := service.ListBackups(dir)
		if err != nil {
			return err
		}
		if backupJSON {
			return printJSON(cmd, items)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "PATH\tBYTES\tCREATED\tSHA256")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", it.Path, it.SizeBytes, it.CreatedAt.Format(time.RFC3339), valueOr(it.Checksum, "-"))
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [backup.db]",
	Short: "Replace the database with a verified snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := restoreSource
		if len(args) == 1 {
			src = args[0]
		}
		if src == "" {
			return fmt.Errorf("a backup file is required (argument or --file)")
		}
		dbPath, err := resolveDBPath()
		if err != nil {
			return err
		}
		if err := service.RestoreBackup(src, dbPath, restoreForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from %s\n", dbPath, src)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd)

	backupCmd.PersistentFlags().StringVar(&backupDir, "dir", "", "backup directory (default: backups/ next to the database)")
	backupCmd.PersistentFlags().BoolVar(&backupJSON, "json", false, "print JSON")
	backupCreateCmd.Flags().StringVar(&backupOut, "out", "", "exact output path for the snapshot")
	backupRestoreCmd.Flags().StringVar(&restoreSource, "file", "", "snapshot to restore")
	backupRestoreCmd.Flags().BoolVar(&restoreForce, "force", false, "overwrite an existing database")
}
