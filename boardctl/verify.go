package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eventdeck/eventdeck-go/internal/domain"
	"github.com/eventdeck/eventdeck-go/internal/service/cards"
)

type verifyOptions struct {
	*rootOptions
	Limit int
}

type violationJSON struct {
	Position int    `json:"position"`
	CardID   string `json:"card_id"`
	Rank     int    `json:"rank"`
}

type verifyResultJSON struct {
	EventID    string          `json:"event_id"`
	OK         bool            `json:"ok"`
	Violations []violationJSON `json:"violations"`
}

func newVerifyCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &verifyOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify [event_id...]",
		Short: "Check that card ranks are dense",
		Long: `Check that every event's card ranks are exactly 0..n-1.

Without arguments all events are checked, up to --limit. Exits 1 when any
event has violations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts, args)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 1000, "maximum events to check when none are named")

	return cmd
}

func runVerify(cmd *cobra.Command, opts *verifyOptions, eventIDs []string) error {
	if opts.Limit < 1 {
		return withCode(exitCommandError, errors.New("--limit must be >= 1"))
	}

	ctx, s, closeFn, err := openSession(cmd, opts.rootOptions)
	if err != nil {
		return err
	}
	defer closeFn()

	if len(eventIDs) == 0 {
		eventIDs, err = s.backend.Store.ListEventIDs(ctx, opts.Limit)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
	}

	svc := cards.New(s.backend.Store)
	results := make([]verifyResultJSON, 0, len(eventIDs))
	var lines []string
	failed := 0
	for _, eventID := range eventIDs {
		violations, err := svc.Verify(ctx, eventID)
		if err != nil {
			return fmt.Errorf("verify %s: %w", eventID, err)
		}
		result := verifyResultJSON{EventID: eventID, OK: len(violations) == 0, Violations: toViolationJSON(violations)}
		results = append(results, result)
		if result.OK {
			lines = append(lines, "ok "+eventID)
			continue
		}
		failed++
		for _, v := range violations {
			lines = append(lines, fmt.Sprintf("violation %s: position %d holds card %s with rank %d", eventID, v.Position, v.CardID, v.Rank))
		}
	}

	if err := s.emit(results, lines...); err != nil {
		return err
	}
	if failed > 0 {
		return withCode(exitFailure, fmt.Errorf("rank violations in %d of %d event(s)", failed, len(eventIDs)))
	}
	return nil
}

func toViolationJSON(in []domain.RankViolation) []violationJSON {
	out := make([]violationJSON, 0, len(in))
	for _, v := range in {
		out = append(out, violationJSON{Position: v.Position, CardID: v.CardID, Rank: v.Rank})
	}
	return out
}
