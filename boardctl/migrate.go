package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, s, closeFn, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := s.backend.Store.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			return s.emit(
				map[string]string{"status": "migrated", "driver": s.backend.Driver},
				fmt.Sprintf("migrated (%s)", s.backend.Driver),
			)
		},
	}
}
