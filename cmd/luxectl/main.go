// Command luxectl is the operator CLI for the storefront database:
// apply migrations, load the demo fixtures, create or promote an admin.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalp9197/luxe-ecommerce-site/database"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath string

	rootCmd := &cobra.Command{
		Use:           "luxectl",
		Short:         "luxectl - storefront database operations",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "SQLite database file (env DATABASE_PATH)")

	open := func() (*database.DB, error) {
		db, err := database.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", dbPath, err)
		}
		return db, nil
	}

	rootCmd.AddCommand(migrateCmd(open))
	rootCmd.AddCommand(seedCmd(open))
	rootCmd.AddCommand(createAdminCmd(open))

	return rootCmd
}

func defaultDBPath() string {
	if p := os.Getenv("DATABASE_PATH"); p != "" {
		return p
	}
	return "./data/luxe.db"
}

type opener func() (*database.DB, error)
