package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/your-org/photospotter/internal/auth"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an organizer bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := auth.IssueToken(cfg.Server.JWTSecret, tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "owner", "", "organizer id (token subject)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(tokenCmd)
}
