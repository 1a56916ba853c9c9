package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the order store and catalog migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			orders, err := openOrders(cfg, true)
			if err != nil {
				return err
			}
			defer orders.Close()
			log.Info("order migrations applied", zap.String("database", cfg.Database.DBName))

			products, err := openCatalog(cfg, true)
			if err != nil {
				return err
			}
			defer products.Close()
			log.Info("catalog migrations applied", zap.String("path", cfg.Catalog.DBPath))
			return nil
		},
	}
}
