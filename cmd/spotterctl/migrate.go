package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the catalog tables and the face collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := connect(ctx)
		if err != nil {
			return err
		}
		defer b.Close()

		if err := b.db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate catalog: %w", err)
		}
		if err := b.collection.EnsureSchema(ctx, cfg.FaceDirectory.Dimension); err != nil {
			return fmt.Errorf("prepare face collection: %w", err)
		}
		fmt.Println("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
