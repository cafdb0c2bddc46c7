package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/your-org/photospotter/internal/config"
	"github.com/your-org/photospotter/internal/observability"
)

var (
	configPath string
	jsonOutput bool
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "spotterctl",
	Short: "Administer a PhotoSpotter deployment",
	Long: `spotterctl runs maintenance tasks against the PhotoSpotter catalog,
face collection and object store: schema migration, bulk cleanup, match
reconciliation for a single guest and organizer token issuing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		observability.SetupLogger(cfg.Logging.Level, "text")
		return nil
	},
}

func init() {
	cobra.OnInitialize(func() {
		// .env is optional
		_ = godotenv.Load()
	})
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
