package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JustinTDCT/CineSweep/internal/auth"
	"github.com/JustinTDCT/CineSweep/internal/config"
)

var (
	flagTokenSubject string
	flagTokenRole    string
	flagTokenLife    time.Duration
)

var keyCmd = &cobra.Command{
	Use:   "gen-key",
	Short: "Generate an API key and the hash to put in API_KEY_HASH",
	RunE: func(cmd *cobra.Command, _ []string) error {
		key, err := auth.GenerateKey()
		if err != nil {
			return err
		}
		hash, err := auth.HashAPIKey(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "key:  %s\nhash: %s\n", key, hash)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if flagTokenRole != auth.RoleAdmin && flagTokenRole != auth.RoleViewer {
			return fmt.Errorf("role must be %q or %q", auth.RoleAdmin, auth.RoleViewer)
		}
		cfg := config.Load()
		if err := cfg.CheckJWTSecret(); err != nil {
			return err
		}
		token, err := auth.New(cfg.JWTSecret, "", flagTokenLife).IssueToken(flagTokenSubject, flagTokenRole)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&flagTokenSubject, "subject", "operator", "token subject")
	tokenCmd.Flags().StringVar(&flagTokenRole, "role", auth.RoleViewer, "admin or viewer")
	tokenCmd.Flags().DurationVar(&flagTokenLife, "ttl", 24*time.Hour, "token lifetime")
}
