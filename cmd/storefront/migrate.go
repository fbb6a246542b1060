package main

import (
	"fmt"

	"github.com/fjod/skincare-cart/internal/catalog"
	"github.com/fjod/skincare-cart/internal/config"
	"github.com/fjod/skincare-cart/internal/logger"
	"github.com/fjod/skincare-cart/internal/orders"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply catalog and orders schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		defer func() { _ = log.Sync() }()

		return migrate(cfg, log)
	},
}

func migrate(cfg *config.Config, log *zap.Logger) error {
	products, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer products.Close()
	if err := products.RunMigrations(cfg.Catalog.MigrationsPath); err != nil {
		return fmt.Errorf("catalog migrations: %w", err)
	}
	log.Info("catalog migrations applied", zap.String("path", cfg.Catalog.DBPath))

	cred := postgresCredentials(cfg)
	repo, err := orders.NewPostgresRepository(cred, log)
	if err != nil {
		return fmt.Errorf("open orders database: %w", err)
	}
	defer repo.Close()
	if err := repo.RunMigrations(cred); err != nil {
		return fmt.Errorf("orders migrations: %w", err)
	}
	log.Info("orders migrations applied", zap.String("db", cred.DBName))
	return nil
}

func newLogger(cfg *config.Config) *zap.Logger {
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	zap.ReplaceGlobals(log)
	return log.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))
}

func postgresCredentials(cfg *config.Config) *orders.Credentials {
	return &orders.Credentials{
		Host:              cfg.Postgres.Host,
		Port:              cfg.Postgres.Port,
		User:              cfg.Postgres.User,
		Password:          cfg.Postgres.Password,
		DBName:            cfg.Postgres.DBName,
		MigrationsDirPath: cfg.Postgres.MigrationsPath,
	}
}
