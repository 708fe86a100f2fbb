package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eventdeck/eventdeck-go/internal/service/cards"
)

func newRepairCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repair <event_id>",
		Short: "Renumber an event's card ranks to 0..n-1",
		Long: `Renumber an event's card ranks to 0..n-1, keeping their current order.

Ties are broken by creation time, then card id. The event is locked for
the duration of the rewrite.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, s, closeFn, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer closeFn()

			eventID := args[0]
			changed, err := cards.New(s.backend.Store).Repair(ctx, eventID)
			if err != nil {
				return fmt.Errorf("repair %s: %w", eventID, err)
			}
			s.logger.Debug("event repaired", "event_id", eventID, "changed", changed)
			return s.emit(
				map[string]any{"event_id": eventID, "changed": changed},
				fmt.Sprintf("repaired %s: %d card(s) renumbered", eventID, changed),
			)
		},
	}
}
