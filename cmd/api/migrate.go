package main

import (
	"storefront/internal/config"
	"storefront/internal/infra/db"

	"github.com/spf13/cobra"
)

// postgresはAutoMigrate、mongoはインデックス作成
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables (postgres) or indexes (mongo)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		switch cfg.DBDriver {
		case config.DBDriverPostgres:
			gdb, err := db.ConnectPostgres(cfg.PostgresDSN())
			if err != nil {
				return err
			}
			defer db.ClosePostgres(gdb)
			if err := db.MigratePostgres(gdb); err != nil {
				return err
			}
		default:
			client, err := db.ConnectMongo(ctx, cfg.MongoURI)
			if err != nil {
				return err
			}
			defer client.Disconnect(ctx)
			if err := db.EnsureMongoIndexes(ctx, client.Database(cfg.MongoDB)); err != nil {
				return err
			}
		}
		cmd.Printf("migrated (%s)\n", cfg.DBDriver)
		return nil
	},
}
