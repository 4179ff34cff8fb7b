package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func MigrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the history tables for the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config load error: %w", err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.DB.Close()
			if err := st.Migrate(ctx, st.DB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			klog.Infof("migrated %s database", cfg.Database.Driver)
			return nil
		},
	}
}
