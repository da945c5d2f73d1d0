package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TaskRetentionRun = "retention:run"

	// RetentionTaskID is shared by scheduled and manual triggers so at most one
	// retention run is pending or active at any time.
	RetentionTaskID = "retention:run"

	retentionTimeout = 6 * time.Hour
)

// taskClient and taskInspector are the parts of asynq.Client and
// asynq.Inspector the queue uses.
type taskClient interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type taskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
	ListActiveTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	CancelProcessing(id string) error
	Close() error
}

var queueNames = []string{"default", "critical"}

type Queue struct {
	client    taskClient
	server    *asynq.Server
	mux       *asynq.ServeMux
	inspector taskInspector
	log       *zap.Logger
}

func NewQueue(redisAddr string, log *zap.Logger) *Queue {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	client := asynq.NewClient(redisOpt)
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
			},
			Logger: newAsynqLogger(log),
		},
	)
	mux := asynq.NewServeMux()
	inspector := asynq.NewInspector(redisOpt)
	return &Queue{client: client, server: server, mux: mux, inspector: inspector, log: log}
}

// isTaskConflict checks whether the error indicates a task ID conflict,
// using errors.Is for unwrapped sentinel values and a string fallback.
func isTaskConflict(err error) bool {
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "task ID conflicts") || strings.Contains(msg, "duplicate task")
}

// EnqueueUnique enqueues a task under a fixed TaskID. If a task with the same
// ID is already pending or active the enqueue is skipped and reported as
// not enqueued. A completed or archived task lingering under that ID is
// deleted first.
func (q *Queue) EnqueueUnique(taskType string, payload interface{}, uniqueID string, opts ...asynq.Option) (bool, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal payload: %w", err)
	}
	opts = append(opts, asynq.TaskID(uniqueID))
	task := asynq.NewTask(taskType, data, opts...)
	_, err = q.client.Enqueue(task)
	if err == nil {
		return true, nil
	}
	if !isTaskConflict(err) {
		return false, fmt.Errorf("enqueue: %w", err)
	}

	if q.clearFinished(uniqueID) {
		if _, err = q.client.Enqueue(task); err == nil {
			return true, nil
		}
	}

	if isTaskConflict(err) {
		q.log.Info("queue: task already pending or active, skipping", zap.String("type", taskType), zap.String("task_id", uniqueID))
		return false, nil
	}
	return false, fmt.Errorf("enqueue: %w", err)
}

// clearFinished deletes the task under id when it has completed or been
// archived. Pending, scheduled and active tasks are left alone.
func (q *Queue) clearFinished(id string) bool {
	for _, queueName := range queueNames {
		info, err := q.inspector.GetTaskInfo(queueName, id)
		if err != nil {
			continue
		}
		if info.State != asynq.TaskStateCompleted && info.State != asynq.TaskStateArchived {
			return false
		}
		if err := q.inspector.DeleteTask(queueName, id); err != nil {
			q.log.Warn("queue: finished task not cleared", zap.String("task_id", id), zap.Error(err))
			return false
		}
		q.log.Info("queue: cleared finished task", zap.String("task_id", id), zap.String("queue", queueName))
		return true
	}
	return false
}

// EnqueueRetention queues a retention run unless one is already pending or
// running. Runs are never retried automatically.
func (q *Queue) EnqueueRetention(trigger string) (bool, error) {
	return q.EnqueueUnique(TaskRetentionRun, RetentionPayload{Trigger: trigger}, RetentionTaskID,
		asynq.MaxRetry(0), asynq.Timeout(retentionTimeout), asynq.Queue("default"))
}

func (q *Queue) RegisterHandler(taskType string, handler asynq.Handler) {
	q.mux.Handle(taskType, handler)
}

// CancelActive asks the worker running the retention task to stop. The
// handler sees its context cancelled and stops between libraries or items.
func (q *Queue) CancelActive() (bool, error) {
	active, err := q.inspector.ListActiveTasks("default")
	if err != nil {
		return false, fmt.Errorf("list active tasks: %w", err)
	}
	for _, t := range active {
		if t.ID == RetentionTaskID {
			if err := q.inspector.CancelProcessing(t.ID); err != nil {
				return false, fmt.Errorf("cancel %s: %w", t.ID, err)
			}
			q.log.Info("queue: cancellation requested", zap.String("task_id", t.ID))
			return true, nil
		}
	}
	return false, nil
}

func (q *Queue) Start() error {
	q.log.Info("job queue worker starting")
	return q.server.Start(q.mux)
}

func (q *Queue) Stop() {
	q.server.Shutdown()
	q.client.Close()
	q.inspector.Close()
}

// asynqLogger routes asynq's internal logging through zap.
type asynqLogger struct {
	s *zap.SugaredLogger
}

func newAsynqLogger(l *zap.Logger) *asynqLogger {
	return &asynqLogger{s: l.Named("asynq").Sugar()}
}

func (a *asynqLogger) Debug(args ...interface{}) { a.s.Debug(args...) }
func (a *asynqLogger) Info(args ...interface{})  { a.s.Info(args...) }
func (a *asynqLogger) Warn(args ...interface{})  { a.s.Warn(args...) }
func (a *asynqLogger) Error(args ...interface{}) { a.s.Error(args...) }
func (a *asynqLogger) Fatal(args ...interface{}) { a.s.Fatal(args...) }
