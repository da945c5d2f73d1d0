package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JustinTDCT/CineSweep/internal/models"
	"github.com/JustinTDCT/CineSweep/internal/retention"
	"github.com/JustinTDCT/CineSweep/internal/status"
)

type fakeRunner struct {
	steps  []int
	report *retention.Report
	err    error
	got    []*models.RetentionConfig
}

func (f *fakeRunner) Run(_ context.Context, configs []*models.RetentionConfig, progress retention.ProgressFunc) (*retention.Report, error) {
	f.got = configs
	for _, s := range f.steps {
		progress(s)
	}
	return f.report, f.err
}

type fakeStatus struct {
	saved    []status.RunStatus
	progress []int
}

func (f *fakeStatus) Save(_ context.Context, st *status.RunStatus) error {
	f.saved = append(f.saved, *st)
	return nil
}

func (f *fakeStatus) SetProgress(_ context.Context, pct int) error {
	f.progress = append(f.progress, pct)
	return nil
}

func (f *fakeStatus) last() status.RunStatus { return f.saved[len(f.saved)-1] }

type fakeNotifier struct {
	mu     sync.Mutex
	events []map[string]interface{}
}

func (f *fakeNotifier) Broadcast(event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event == "task:update" {
		f.events = append(f.events, data.(map[string]interface{}))
	}
}

func (f *fakeNotifier) progress() []int {
	var out []int
	for _, e := range f.events {
		out = append(out, e["progress"].(int))
	}
	return out
}

type failingConfigs struct{}

func (failingConfigs) List(context.Context) ([]*models.RetentionConfig, error) {
	return nil, errors.New("db unavailable")
}

func newTestHandler(r Runner, c ConfigSource) (*RetentionHandler, *fakeStatus, *fakeNotifier) {
	st, n := &fakeStatus{}, &fakeNotifier{}
	h := NewRetentionHandler(r, c, st, n, zap.NewNop())
	h.now = func() time.Time { return time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC) }
	return h, st, n
}

func TestRetentionHandler_Complete(t *testing.T) {
	cfg := &models.RetentionConfig{LibraryID: uuid.New(), Enabled: true}
	runner := &fakeRunner{
		steps:  []int{0, 50},
		report: &retention.Report{Libraries: []*retention.LibraryReport{{LibraryName: "Movies"}, {LibraryName: "TV"}}},
	}
	h, st, n := newTestHandler(runner, StaticConfigs{cfg})

	report, err := h.Run(context.Background(), "schedule")
	require.NoError(t, err)
	assert.Same(t, runner.report, report)
	assert.Equal(t, []*models.RetentionConfig{cfg}, runner.got)

	assert.Equal(t, []int{0, 50}, st.progress)
	final := st.last()
	assert.Equal(t, status.StateComplete, final.State)
	assert.Equal(t, 100, final.Progress)
	assert.Equal(t, "schedule", final.Trigger)
	require.NotNil(t, final.FinishedAt)

	assert.Equal(t, []int{0, 0, 50, 100}, n.progress())
	assert.Equal(t, "complete", n.events[len(n.events)-1]["status"])
}

func TestRetentionHandler_Cancelled(t *testing.T) {
	runner := &fakeRunner{steps: []int{0}, report: &retention.Report{Cancelled: true}, err: context.Canceled}
	h, st, n := newTestHandler(runner, StaticConfigs{})

	_, err := h.Run(context.Background(), "manual")
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, status.StateCancelled, st.last().State)
	assert.Equal(t, 0, st.last().Progress, "no terminal 100 after cancellation")
	assert.Equal(t, "cancelled", n.events[len(n.events)-1]["status"])
}

func TestRetentionHandler_ConfigSourceFailure(t *testing.T) {
	runner := &fakeRunner{}
	h, st, _ := newTestHandler(runner, failingConfigs{})

	_, err := h.Run(context.Background(), "schedule")
	require.Error(t, err)
	assert.Nil(t, runner.got, "engine not invoked")
	assert.Equal(t, status.StateFailed, st.last().State)
	assert.Contains(t, st.last().Error, "db unavailable")
}

func TestRetentionHandler_ProcessTask(t *testing.T) {
	runner := &fakeRunner{report: &retention.Report{}}
	h, st, _ := newTestHandler(runner, StaticConfigs{})

	payload, _ := json.Marshal(RetentionPayload{Trigger: "manual"})
	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(TaskRetentionRun, payload)))
	assert.Equal(t, "manual", st.last().Trigger)

	runner.err = errors.New("boom")
	err := h.ProcessTask(context.Background(), asynq.NewTask(TaskRetentionRun, payload))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.ProcessTask(context.Background(), asynq.NewTask(TaskRetentionRun, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestRetentionHandler_NilCollaborators(t *testing.T) {
	h := NewRetentionHandler(&fakeRunner{steps: []int{0}, report: &retention.Report{}}, StaticConfigs{}, nil, nil, zap.NewNop())
	_, err := h.Run(context.Background(), "cli")
	assert.NoError(t, err)
}

func TestIsTaskConflict(t *testing.T) {
	assert.True(t, isTaskConflict(asynq.ErrTaskIDConflict))
	assert.True(t, isTaskConflict(errors.New("task ID conflicts with another task")))
	assert.False(t, isTaskConflict(errors.New("connection refused")))
}

type fakeLock struct {
	held     bool
	err      error
	released int
}

func (l *fakeLock) TryLock(context.Context) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func() { l.held = false; l.released++ }, true, nil
}

func TestRetentionHandler_RefusesWhileAnotherRunHoldsLock(t *testing.T) {
	runner := &fakeRunner{report: &retention.Report{}}
	h, st, n := newTestHandler(runner, StaticConfigs{})
	lock := &fakeLock{held: true}
	h.WithLock(lock)

	_, err := h.Run(context.Background(), "cli")
	require.ErrorIs(t, err, ErrRunInProgress)
	assert.Nil(t, runner.got, "engine not invoked")
	assert.Empty(t, st.saved, "status of the running run is left alone")
	assert.Empty(t, n.events)

	lock.held = false
	_, err = h.Run(context.Background(), "cli")
	require.NoError(t, err)
	assert.Equal(t, 1, lock.released)
	assert.False(t, lock.held)
}

func TestRetentionHandler_LockFailure(t *testing.T) {
	runner := &fakeRunner{report: &retention.Report{}}
	h, _, _ := newTestHandler(runner, StaticConfigs{})
	h.WithLock(&fakeLock{err: errors.New("too many connections")})

	_, err := h.Run(context.Background(), "schedule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many connections")
	assert.Nil(t, runner.got)
}
