package jobs

import (
	"context"
	"errors"

	"github.com/JustinTDCT/CineSweep/internal/models"
	"github.com/JustinTDCT/CineSweep/internal/retention"
	"github.com/JustinTDCT/CineSweep/internal/status"
)

// ──────── Payloads ────────

type RetentionPayload struct {
	Trigger string `json:"trigger"`
}

// ──────── Collaborators ────────

type EventNotifier interface {
	Broadcast(event string, data interface{})
}

type ConfigSource interface {
	List(ctx context.Context) ([]*models.RetentionConfig, error)
}

// StaticConfigs serves a fixed set of configs, e.g. read from a file.
type StaticConfigs []*models.RetentionConfig

func (s StaticConfigs) List(context.Context) ([]*models.RetentionConfig, error) {
	return s, nil
}

type Runner interface {
	Run(ctx context.Context, configs []*models.RetentionConfig, progress retention.ProgressFunc) (*retention.Report, error)
}

// RunLocker serialises retention runs across processes, so a CLI run and a
// worker run never overlap.
type RunLocker interface {
	// TryLock returns ok=false without waiting when another run holds the lock.
	TryLock(ctx context.Context) (unlock func(), ok bool, err error)
}

var ErrRunInProgress = errors.New("another retention run is in progress")

type StatusStore interface {
	Save(ctx context.Context, st *status.RunStatus) error
	SetProgress(ctx context.Context, percent int) error
}

// ──────── Register all handlers ────────

func RegisterHandlers(q *Queue, retentionHandler *RetentionHandler) {
	q.RegisterHandler(TaskRetentionRun, retentionHandler)
}
