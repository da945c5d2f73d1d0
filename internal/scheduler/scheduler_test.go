package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeEnqueuer struct {
	triggers []string
	queued   bool
	err      error
}

func (f *fakeEnqueuer) EnqueueRetention(trigger string) (bool, error) {
	f.triggers = append(f.triggers, trigger)
	return f.queued, f.err
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	_, err := New("every tuesday", &fakeEnqueuer{}, zap.NewNop())
	assert.Error(t, err)
}

func TestNew_AcceptsCommonForms(t *testing.T) {
	for _, schedule := range []string{"0 3 * * *", "*/30 * * * * *", "@daily", "@every 6h"} {
		t.Run(schedule, func(t *testing.T) {
			_, err := New(schedule, &fakeEnqueuer{}, zap.NewNop())
			assert.NoError(t, err)
		})
	}
}

func TestStartStop_ReportsNext(t *testing.T) {
	s, err := New("@hourly", &fakeEnqueuer{}, zap.NewNop())
	require.NoError(t, err)

	s.Start()
	defer s.Stop()
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), s.Next(), 31*time.Minute)
}

func TestTrigger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	enq := &fakeEnqueuer{queued: true}
	s, err := New("@daily", enq, zap.New(core))
	require.NoError(t, err)

	s.trigger()
	enq.queued = false
	s.trigger()
	enq.err = errors.New("redis down")
	s.trigger()

	assert.Equal(t, []string{"schedule", "schedule", "schedule"}, enq.triggers)
	assert.Equal(t, 1, logs.FilterMessageSnippet("already pending").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("error enqueueing").Len())
	assert.Equal(t, "retention run enqueued", logs.All()[0].Message)
	assert.Zero(t, logs.FilterMessageSnippet("[scheduler]").Len())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("*/15 * * * *"))
	assert.NoError(t, Validate("@weekly"))
	assert.Error(t, Validate("every night"))
	assert.Error(t, Validate("61 * * * *"))
	assert.Error(t, Validate(""))
}
