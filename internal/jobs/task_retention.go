package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JustinTDCT/CineSweep/internal/metrics"
	"github.com/JustinTDCT/CineSweep/internal/retention"
	"github.com/JustinTDCT/CineSweep/internal/status"
)

const retentionDesc = "Media retention"

type RetentionHandler struct {
	runner   Runner
	configs  ConfigSource
	status   StatusStore
	notifier EventNotifier
	lock     RunLocker
	log      *zap.Logger
	now      func() time.Time
}

// NewRetentionHandler wires a retention run. status and notifier may be nil.
func NewRetentionHandler(runner Runner, configs ConfigSource, st StatusStore, notifier EventNotifier, log *zap.Logger) *RetentionHandler {
	return &RetentionHandler{
		runner:   runner,
		configs:  configs,
		status:   st,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// WithLock makes Run refuse to start while another run holds l.
func (h *RetentionHandler) WithLock(l RunLocker) *RetentionHandler {
	h.lock = l
	return h
}

func (h *RetentionHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p RetentionPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("unmarshal: %v: %w", err, asynq.SkipRetry)
		}
	}
	if _, err := h.Run(ctx, p.Trigger); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return nil
}

// Run executes one retention pass, keeping the status store, the websocket
// hub and metrics in step with its progress. The terminal 100 is reported
// here once the engine returns.
func (h *RetentionHandler) Run(ctx context.Context, trigger string) (*retention.Report, error) {
	if h.lock != nil {
		unlock, ok, err := h.lock.TryLock(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			metrics.RunsTotal.WithLabelValues("skipped").Inc()
			h.log.Warn("retention run refused, another run holds the lock", zap.String("trigger", trigger))
			return nil, ErrRunInProgress
		}
		defer unlock()
	}

	started := h.now().UTC()
	st := &status.RunStatus{
		TaskID:    RetentionTaskID,
		State:     status.StateRunning,
		Trigger:   trigger,
		StartedAt: &started,
	}
	h.saveStatus(ctx, st)
	h.broadcast("running", 0)
	h.log.Info("retention run started", zap.String("trigger", trigger))

	configs, err := h.configs.List(ctx)
	if err != nil {
		err = fmt.Errorf("load retention configs: %w", err)
		h.finish(ctx, st, nil, err)
		return nil, err
	}

	timer := prometheus.NewTimer(metrics.RunDuration)
	report, err := h.runner.Run(ctx, configs, func(pct int) {
		st.Progress = pct
		if h.status != nil {
			if err := h.status.SetProgress(context.WithoutCancel(ctx), pct); err != nil {
				h.log.Warn("progress not stored", zap.Error(err))
			}
		}
		h.broadcast("running", pct)
	})
	timer.ObserveDuration()

	h.finish(ctx, st, report, err)
	return report, err
}

func (h *RetentionHandler) finish(ctx context.Context, st *status.RunStatus, report *retention.Report, runErr error) {
	finished := h.now().UTC()
	st.FinishedAt = &finished
	st.Report = report

	var result string
	switch {
	case runErr != nil && (errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)):
		st.State = status.StateCancelled
		st.Error = runErr.Error()
		result = "cancelled"
		h.log.Warn("retention run cancelled", zap.Int("progress", st.Progress))
	case runErr != nil:
		st.State = status.StateFailed
		st.Error = runErr.Error()
		result = "failed"
		h.log.Error("retention run failed", zap.Error(runErr))
	default:
		st.State = status.StateComplete
		st.Progress = 100
		switch {
		case report == nil || len(report.Libraries) == 0:
			result = "empty"
		case report.Failed() > 0:
			result = "partial"
		default:
			result = "ok"
		}
		h.log.Info("retention run complete",
			zap.String("result", result),
			zap.Duration("took", finished.Sub(*st.StartedAt)))
	}
	metrics.RunsTotal.WithLabelValues(result).Inc()

	h.saveStatus(ctx, st)
	h.broadcast(string(st.State), st.Progress)
}

func (h *RetentionHandler) saveStatus(ctx context.Context, st *status.RunStatus) {
	if h.status == nil {
		return
	}
	if err := h.status.Save(context.WithoutCancel(ctx), st); err != nil {
		h.log.Warn("run status not stored", zap.String("state", string(st.State)), zap.Error(err))
	}
}

func (h *RetentionHandler) broadcast(state string, pct int) {
	if h.notifier == nil {
		return
	}
	h.notifier.Broadcast("task:update", map[string]interface{}{
		"task_id": RetentionTaskID, "task_type": TaskRetentionRun,
		"status": state, "progress": pct, "description": retentionDesc,
	})
}
