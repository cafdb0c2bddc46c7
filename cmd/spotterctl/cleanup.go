package main

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/your-org/photospotter/internal/service"
	"github.com/your-org/photospotter/internal/storage"
)

var (
	cleanupFacesOnly bool
	cleanupYes       bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete every stored image, indexed face and catalog row",
	Long: `Wipes the object store originals, empties the face collection in batches
and truncates the catalog. With --faces-only just the face collection is
emptied.`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupFacesOnly, "faces-only", false, "only empty the face collection")
	cleanupCmd.Flags().BoolVar(&cleanupYes, "yes", false, "confirm the deletion")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	if !cleanupYes {
		return errors.New("refusing to delete data without --yes")
	}

	ctx := cmd.Context()
	b, err := connect(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	objects, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		return fmt.Errorf("connect to minio: %w", err)
	}

	svc := service.NewCleanupService(b.db, objects, b.collection, nil)

	var bar *progressbar.ProgressBar
	progress := func(stage string, done, total int) {
		if jsonOutput || stage != "faces" {
			return
		}
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Deleting faces"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("faces"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionFullWidth(),
			)
		}
		_ = bar.Set(done)
	}

	var report service.CleanupReport
	if cleanupFacesOnly {
		report.Faces, err = svc.Faces(ctx, progress)
	} else {
		report, err = svc.All(ctx, progress)
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(report)
	}
	fmt.Printf("deleted %d objects and %d faces\n", report.Objects, report.Faces)
	return nil
}
