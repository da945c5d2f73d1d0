// Package status keeps the state of the current and recent retention runs in
// redis so every process (API, worker, CLI) sees the same view.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JustinTDCT/CineSweep/internal/retention"
)

type State string

const (
	StateIdle      State = "idle"
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateComplete  State = "complete"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed || s == StateCancelled
}

type RunStatus struct {
	TaskID     string            `json:"task_id,omitempty"`
	State      State             `json:"state"`
	Progress   int               `json:"progress"`
	Trigger    string            `json:"trigger,omitempty"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	Error      string            `json:"error,omitempty"`
	Report     *retention.Report `json:"report,omitempty"`
}

const (
	currentKey = "cinesweep:retention:status"
	historyKey = "cinesweep:retention:history"
	historyLen = 20
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Current returns the latest run, or an idle status when none is recorded.
func (s *Store) Current(ctx context.Context) (*RunStatus, error) {
	data, err := s.rdb.Get(ctx, currentKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return &RunStatus{State: StateIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read run status: %w", err)
	}
	var st RunStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode run status: %w", err)
	}
	return &st, nil
}

// Save replaces the current status. Terminal states are also pushed onto
// the bounded history list.
func (s *Store) Save(ctx context.Context, st *RunStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode run status: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, currentKey, data, s.ttl)
	if st.State.Terminal() {
		pipe.LPush(ctx, historyKey, data)
		pipe.LTrim(ctx, historyKey, 0, historyLen-1)
		pipe.Expire(ctx, historyKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save run status: %w", err)
	}
	return nil
}

// SetProgress updates the progress of the current run in place.
func (s *Store) SetProgress(ctx context.Context, percent int) error {
	st, err := s.Current(ctx)
	if err != nil {
		return err
	}
	st.Progress = percent
	if st.State == StateIdle || st.State == StateQueued {
		st.State = StateRunning
	}
	return s.Save(ctx, st)
}

// History returns up to n finished runs, newest first.
func (s *Store) History(ctx context.Context, n int) ([]*RunStatus, error) {
	if n <= 0 || n > historyLen {
		n = historyLen
	}
	raw, err := s.rdb.LRange(ctx, historyKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read run history: %w", err)
	}
	out := make([]*RunStatus, 0, len(raw))
	for _, r := range raw {
		var st RunStatus
		if err := json.Unmarshal([]byte(r), &st); err != nil {
			continue
		}
		out = append(out, &st)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
