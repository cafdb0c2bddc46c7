package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/your-org/photospotter/internal/matching"
	"github.com/your-org/photospotter/internal/queue"
	"github.com/your-org/photospotter/internal/service"
)

var reconcileGuest string

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run match reconciliation for one guest",
	Long: `Searches the face collection for the guest's face, persists any new
matches within the guest's event and prints every match of the guest. Safe to
run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		guestID, err := uuid.Parse(reconcileGuest)
		if err != nil {
			return fmt.Errorf("invalid --guest: %w", err)
		}

		ctx := cmd.Context()
		b, err := connect(ctx)
		if err != nil {
			return err
		}
		defer b.Close()

		var observer matching.Observer
		if producer, err := queue.NewProducer(cfg.NATS.URL); err == nil {
			defer producer.Close()
			observer = service.NewMatchAnnouncer(b.db, producer, cfg.Matching.NotifyGuests, nil)
		}

		engine := matching.NewEngine(b.db, b.collection, observer, matching.Config{
			Threshold:          float32(cfg.Matching.SimilarityThreshold),
			MaxCandidates:      cfg.Matching.MaxCandidates,
			ProbeThreshold:     float32(cfg.Matching.ProbeThreshold),
			ProbeMaxCandidates: cfg.Matching.ProbeMaxCandidates,
			ResolveConcurrency: cfg.Matching.ResolveConcurrency,
		}, nil)

		matches, err := engine.FindMatchesForGuest(ctx, guestID)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(matches)
		}
		fmt.Printf("%d matches for guest %s\n", len(matches), guestID)
		for _, m := range matches {
			fmt.Printf("  %s  %5.1f%%  %s\n", m.PhotoID, m.Confidence, m.Photo.URL)
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileGuest, "guest", "", "guest id")
	_ = reconcileCmd.MarkFlagRequired("guest")
	rootCmd.AddCommand(reconcileCmd)
}
