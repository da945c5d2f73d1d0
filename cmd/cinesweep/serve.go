package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JustinTDCT/CineSweep/internal/api"
	"github.com/JustinTDCT/CineSweep/internal/auth"
	"github.com/JustinTDCT/CineSweep/internal/config"
	"github.com/JustinTDCT/CineSweep/internal/jobs"
	"github.com/JustinTDCT/CineSweep/internal/repository"
	"github.com/JustinTDCT/CineSweep/internal/retention"
	"github.com/JustinTDCT/CineSweep/internal/scheduler"
	"github.com/JustinTDCT/CineSweep/internal/status"
)

var flagTokenTTL time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server, job worker and retention schedule",
	RunE:  serve,
}

func init() {
	serveCmd.Flags().DurationVar(&flagTokenTTL, "token-ttl", 24*time.Hour, "lifetime of issued tokens")
}

func serve(cmd *cobra.Command, _ []string) error {
	if err := config.Load().CheckJWTSecret(); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	log := a.log
	log.Info("CineSweep starting", zap.String("version", a.ver.Version))

	rdb := status.NewClient(a.cfg.RedisAddr)
	defer rdb.Close()
	statusStore := status.NewStore(rdb, a.cfg.StatusTTL)

	mediaRepo := repository.NewMediaRepository(a.db.DB)
	collectionRepo := repository.NewCollectionRepository(a.db.DB)
	userRepo := repository.NewUserRepository(a.db.DB)
	libraryRepo := repository.NewLibraryRepository(a.db.DB)
	configRepo := repository.NewRetentionConfigRepository(a.db.DB)
	settingsRepo := repository.NewSettingsRepository(a.db.DB)

	orchestrator := retention.NewOrchestrator(mediaRepo, userRepo, collectionRepo, log.Named("retention"))
	reviewer := retention.NewReviewer(mediaRepo, collectionRepo, log.Named("review"))
	hub := api.NewWSHub(log.Named("ws"))

	queue := jobs.NewQueue(a.cfg.RedisAddr, log.Named("jobs"))
	jobs.RegisterHandlers(queue, jobs.NewRetentionHandler(orchestrator, configRepo, statusStore, hub, log.Named("jobs")).
		WithLock(repository.NewRunLock(a.db.DB)))
	if err := queue.Start(); err != nil {
		return fmt.Errorf("start job worker: %w", err)
	}
	defer queue.Stop()

	sched, err := scheduler.New(a.cfg.RetentionSchedule, queue, log.Named("scheduler"))
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := api.NewServer(api.Deps{
		Reviewer:  reviewer,
		Configs:   configRepo,
		Libraries: libraryRepo,
		Queue:     queue,
		Status:    statusStore,
		Settings:  settingsRepo,
		Auth:      auth.New(a.cfg.JWTSecret, a.cfg.APIKeyHash, flagTokenTTL),
		Hub:       hub,
		Health: map[string]api.Pinger{
			"postgres": a.db.PingContext,
			"redis":    statusStore.Ping,
		},
		MetricsPath:      a.cfg.MetricsPath,
		DeleteRatePerMin: a.cfg.DeleteRatePerMin,
		Version:          a.ver.Version,
		Log:              log.Named("api"),
	})

	httpServer := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
