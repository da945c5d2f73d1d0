package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Enqueuer hands a retention run to the job queue.
type Enqueuer interface {
	EnqueueRetention(trigger string) (bool, error)
}

// Scheduler enqueues a retention run on a cron schedule. Overlap is handled
// by the queue: a trigger while a run is pending or active is dropped.
type Scheduler struct {
	cron     *cron.Cron
	enqueuer Enqueuer
	schedule string
	log      *zap.Logger
}

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New validates schedule and registers the retention trigger.
func New(schedule string, enq Enqueuer, log *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithParser(parser)),
		enqueuer: enq,
		schedule: schedule,
		log:      log,
	}
	if _, err := s.cron.AddFunc(schedule, s.trigger); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Validate reports whether schedule parses in the dialect New accepts.
func Validate(schedule string) error {
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	return nil
}

// Start begins the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("retention schedule started",
		zap.String("schedule", s.schedule), zap.Time("next", s.Next()))
}

// Stop stops the scheduler and waits for a trigger in flight.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Next is the time of the next scheduled trigger, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) trigger() {
	queued, err := s.enqueuer.EnqueueRetention("schedule")
	if err != nil {
		s.log.Error("error enqueueing retention run", zap.Error(err))
		return
	}
	if !queued {
		s.log.Info("retention run already pending or active, skipping")
		return
	}
	s.log.Info("retention run enqueued")
}
