package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newProvisionCmd(a *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the cache TTL index (mongo) or apply migrations (postgres)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			be, err := openBackend(ctx, a.cfg, a.log, true)
			if err != nil {
				return fmt.Errorf("provisioning %s cache: %w", a.cfg.Cache.Backend, err)
			}
			be.close()

			a.log.Info("cache provisioned", zap.String("backend", a.cfg.Cache.Backend))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall provisioning deadline")
	return cmd
}
