package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kalp9197/luxe-ecommerce-site/repository"
	"github.com/kalp9197/luxe-ecommerce-site/seed"
	"github.com/kalp9197/luxe-ecommerce-site/services"
)

func migrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the database applies the embedded migrations.
			db, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func seedCmd(open opener) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo users, catalog and reviews",
		Long: `Load the demo fixtures compiled into the binary.

Existing rows are matched by email (users) and name (categories, products)
and left untouched, so seeding twice is safe.

This is DEMO data with well-known passwords. Do not seed production.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := seed.Default()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "would seed %d users, %d categories, %d products, %d reviews\n",
					len(fixtures.Users), len(fixtures.Categories), len(fixtures.Products), len(fixtures.Reviews))
				return nil
			}

			db, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := seed.Apply(cmd.Context(), db.Conn, fixtures)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "created %d users, %d categories, %d products, %d reviews\n",
				result.CreatedUsers, result.CreatedCategories, result.CreatedProducts, result.CreatedReviews)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be seeded without touching the database")

	return cmd
}

func createAdminCmd(open opener) *cobra.Command {
	var name, password string

	cmd := &cobra.Command{
		Use:   "create-admin [email]",
		Short: "Promote a user to ADMIN, creating the account if needed",
		Example: `  luxectl create-admin owner@example.com --name "Shop Owner" --password s3cret!
  luxectl create-admin existing@example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			// Tokens are never issued here, so the issuer needs no secret.
			auth := services.NewAuthService(
				repository.NewSQLiteUserRepo(db.Conn),
				repository.NewSQLiteResetTokenRepo(db.Conn),
				services.NewTokenIssuer("", 0, nil),
				nil,
				nil,
			)

			admin, err := auth.EnsureAdmin(cmd.Context(), name, args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", admin.Email, admin.ID, admin.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Administrator", "display name for a new account")
	cmd.Flags().StringVar(&password, "password", "", "password for a new account (ignored when promoting)")

	return cmd
}
