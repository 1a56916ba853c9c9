package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fjod/printshop/internal/cache"
	"github.com/fjod/printshop/internal/service"
	"github.com/spf13/cobra"
)

func orderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order [order_id]",
		Short: "Print the status of an order as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			timeout, _ := cmd.Flags().GetDuration("timeout")
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			orders, err := openOrders(cfg, false)
			if err != nil {
				return err
			}
			defer orders.Close()

			redisClient, err := openRedis(ctx, cfg)
			if err != nil {
				return err
			}
			defer redisClient.Close()

			projector := service.NewStatusProjector(orders, cache.NewRedisOrderCache(redisClient), log)
			view, err := projector.GetStatus(ctx, args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}

	cmd.Flags().Duration("timeout", 10*time.Second, "lookup timeout")
	return cmd
}
