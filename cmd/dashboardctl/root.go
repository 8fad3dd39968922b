package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/rl1809/invoice-dashboard/internal/adapter/identity"
	"github.com/rl1809/invoice-dashboard/internal/adapter/storage"
	"github.com/rl1809/invoice-dashboard/internal/config"
)

type dbFlags struct {
	configPath string
	driver     string
	url        string
}

func newRootCmd() *cobra.Command {
	flags := &dbFlags{}

	cmd := &cobra.Command{
		Use:           "dashboardctl",
		Short:         "Administer the invoice dashboard database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&flags.driver, "driver", "", "database driver (mysql or postgres), overrides config")
	cmd.PersistentFlags().StringVar(&flags.url, "database-url", "", "database DSN, overrides config")

	cmd.AddCommand(newSchemaCmd(flags))
	cmd.AddCommand(newSeedCmd(flags))
	cmd.AddCommand(newHashPasswordCmd())
	return cmd
}

func newSchemaCmd(flags *dbFlags) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create the users, customers and invoices tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				dialect, err := flags.dialect()
				if err != nil {
					return err
				}
				for _, stmt := range storage.Schema(dialect) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s;\n\n", stmt)
				}
				return nil
			}

			adapter, closeDB, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := adapter.ApplySchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the DDL instead of applying it")
	return cmd
}

func newSeedCmd(flags *dbFlags) *cobra.Command {
	var withSchema bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo user, customers and invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, closeDB, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if withSchema {
				if err := adapter.ApplySchema(cmd.Context()); err != nil {
					return err
				}
			}

			data, err := demoData()
			if err != nil {
				return err
			}
			if err := adapter.Seed(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d customers, %d invoices\n",
				len(data.Users), len(data.Customers), len(data.Invoices))
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSchema, "schema", true, "apply the schema before seeding")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash stored for a user password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := identity.HashPassword(args[0])
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func (f *dbFlags) load() (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if f.driver != "" {
		cfg.Database.Driver = f.driver
	}
	if f.url != "" {
		cfg.Database.URL = f.url
	}
	return cfg, nil
}

func (f *dbFlags) dialect() (storage.Dialect, error) {
	cfg, err := f.load()
	if err != nil {
		return "", err
	}
	return storage.ParseDialect(cfg.Database.Driver)
}

func (f *dbFlags) open(ctx context.Context) (*storage.SQLAdapter, func(), error) {
	cfg, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	dialect, err := storage.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(dialect.DriverName(), cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connecting to %s: %w", dialect, err)
	}

	return storage.NewSQLAdapter(db, dialect), func() { db.Close() }, nil
}
