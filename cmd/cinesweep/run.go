package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JustinTDCT/CineSweep/internal/config"
	"github.com/JustinTDCT/CineSweep/internal/jobs"
	"github.com/JustinTDCT/CineSweep/internal/repository"
	"github.com/JustinTDCT/CineSweep/internal/retention"
)

var flagConfigsFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one retention pass in the foreground and print the report",
	Long: `Run executes a single retention pass without the job queue.
Per-library rules come from the database unless --configs names a YAML file.
Interrupting the command cancels the run between items.`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringVar(&flagConfigsFile, "configs", "", "YAML file with retention rules (overrides the database)")
}

func runOnce(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var source jobs.ConfigSource = repository.NewRetentionConfigRepository(a.db.DB)
	if flagConfigsFile != "" {
		configs, err := config.LoadRetentionFile(flagConfigsFile)
		if err != nil {
			return err
		}
		a.log.Info("using retention rules from file",
			zap.String("path", flagConfigsFile), zap.Int("libraries", len(configs)))
		source = jobs.StaticConfigs(configs)
	}

	mediaRepo := repository.NewMediaRepository(a.db.DB)
	orchestrator := retention.NewOrchestrator(mediaRepo,
		repository.NewUserRepository(a.db.DB),
		repository.NewCollectionRepository(a.db.DB),
		a.log.Named("retention"))

	progress := progressPrinter{w: cmd.ErrOrStderr()}
	handler := jobs.NewRetentionHandler(orchestrator, source, nil, progress, a.log).
		WithLock(repository.NewRunLock(a.db.DB))
	report, runErr := handler.Run(ctx, "cli")
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
	return runErr
}

// progressPrinter writes task updates as single lines.
type progressPrinter struct {
	w io.Writer
}

func (p progressPrinter) Broadcast(_ string, data interface{}) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return
	}
	fmt.Fprintf(p.w, "%v %v%%\n", m["status"], m["progress"])
}
