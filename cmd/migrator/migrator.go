package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/NordCoder/Tgrelay/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrator",
		Short:         "Manage the relay_settings schema for the postgres store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("dsn", os.Getenv("DB_DSN"), "Postgres DSN (default $DB_DSN)")
	root.AddCommand(
		migrateCmd("up", "Apply all pending migrations", migrations.Up),
		migrateCmd("down", "Roll back the latest migration", migrations.Down),
		migrateCmd("status", "Print applied and pending migrations", migrations.Status),
	)
	return root
}

func migrateCmd(use, short string, run func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, _ := cmd.Flags().GetString("dsn")
			if dsn == "" {
				return errors.New("DB_DSN is empty")
			}
			db, err := goose.OpenDBWithDriver("pgx", dsn)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			if err := run(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			cmd.Printf("migrations: %s OK\n", use)
			return nil
		},
	}
}
