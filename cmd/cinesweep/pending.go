package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JustinTDCT/CineSweep/internal/repository"
	"github.com/JustinTDCT/CineSweep/internal/retention"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Print the items staged for deletion in manually reviewed libraries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		configs, err := repository.NewRetentionConfigRepository(a.db.DB).List(ctx)
		if err != nil {
			return err
		}
		reviewer := retention.NewReviewer(repository.NewMediaRepository(a.db.DB),
			repository.NewCollectionRepository(a.db.DB), a.log)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reviewer.PendingDeletions(ctx, configs))
	},
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}
