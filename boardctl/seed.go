package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eventdeck/eventdeck-go/internal/seed"
	"github.com/eventdeck/eventdeck-go/internal/service/cards"
	"github.com/eventdeck/eventdeck-go/internal/service/layouts"
)

type seedOptions struct {
	*rootOptions
	File    string
	Migrate bool
}

type seededJSON struct {
	EventID string   `json:"event_id"`
	Title   string   `json:"title"`
	CardIDs []string `json:"card_ids"`
	Layouts int      `json:"layouts"`
}

func newSeedCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &seedOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load board fixtures from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "fixtures file (required)")
	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "apply the schema before seeding")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *seedOptions) error {
	if strings.TrimSpace(opts.File) == "" {
		return withCode(exitCommandError, errors.New("--file is required"))
	}
	fixtures, err := seed.Load(opts.File)
	if err != nil {
		return withCode(exitCommandError, err)
	}

	ctx, s, closeFn, err := openSession(cmd, opts.rootOptions)
	if err != nil {
		return err
	}
	defer closeFn()

	if opts.Migrate {
		if err := s.backend.Store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	seeded, applyErr := seed.Apply(ctx, cards.New(s.backend.Store), layouts.New(s.backend.Store), fixtures)

	out := make([]seededJSON, 0, len(seeded))
	lines := make([]string, 0, len(seeded))
	for _, item := range seeded {
		ids := make([]string, 0, len(item.Cards))
		for _, card := range item.Cards {
			ids = append(ids, card.ID)
		}
		out = append(out, seededJSON{EventID: item.Event.ID, Title: item.Event.Title, CardIDs: ids, Layouts: len(item.Layouts)})
		lines = append(lines, fmt.Sprintf("seeded %s %q: %d card(s), %d layout(s)", item.Event.ID, item.Event.Title, len(ids), len(item.Layouts)))
		s.logger.Debug("event seeded", "event_id", item.Event.ID, "cards", len(ids))
	}
	if err := s.emit(out, lines...); err != nil {
		return err
	}
	if applyErr != nil {
		return fmt.Errorf("seed: %w", applyErr)
	}
	return nil
}
