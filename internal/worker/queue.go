package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/config"
	"github.com/campusvoice/ticket-service/internal/domain"
)

const taskTypePrefix = "ticket:"

// envelope is the task payload stored in Redis.
type envelope struct {
	TargetID  string          `json:"target_id"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// TaskType returns the asynq task type of a job type.
func TaskType(t domain.JobType) string {
	return taskTypePrefix + string(t)
}

// NewTask wraps job into an asynq task routed to the queue of its type.
func NewTask(job domain.Job) (*asynq.Task, error) {
	queue, ok := domain.QueueFor(job.Type)
	if !ok {
		return nil, fmt.Errorf("unknown job type %q", job.Type)
	}
	createdAt := job.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	data, err := json.Marshal(envelope{TargetID: job.TargetID, CreatedAt: createdAt, Payload: job.Payload})
	if err != nil {
		return nil, fmt.Errorf("marshal %s task: %w", job.Type, err)
	}
	return asynq.NewTask(TaskType(job.Type), data, asynq.Queue(string(queue))), nil
}

// DecodeJob reverses NewTask.
func DecodeJob(task *asynq.Task) (domain.Job, error) {
	var env envelope
	if err := json.Unmarshal(task.Payload(), &env); err != nil {
		return domain.Job{}, fmt.Errorf("decode %s task: %w", task.Type(), err)
	}
	return domain.Job{
		Type:      domain.JobType(strings.TrimPrefix(task.Type(), taskTypePrefix)),
		TargetID:  env.TargetID,
		Payload:   env.Payload,
		CreatedAt: env.CreatedAt,
	}, nil
}

// Queue enqueues jobs into Redis through asynq.
type Queue struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
	logger   *zap.Logger
}

// RedisOpt converts the Redis config into asynq connection options.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewQueue creates the producer.
func NewQueue(redisCfg config.RedisConfig, queueCfg config.QueueConfig, logger *zap.Logger) *Queue {
	return &Queue{
		client:   asynq.NewClient(RedisOpt(redisCfg)),
		maxRetry: queueCfg.MaxRetry,
		timeout:  queueCfg.TaskTimeout,
		logger:   logger.With(zap.String("component", "job_queue")),
	}
}

// Enqueue stores job durably. It returns once Redis acknowledged the write
// and never runs the job itself.
func (q *Queue) Enqueue(ctx context.Context, job domain.Job) error {
	task, err := NewTask(job)
	if err != nil {
		return err
	}
	opts := []asynq.Option{
		asynq.MaxRetry(q.maxRetry),
		asynq.TaskID(uuid.NewString()),
	}
	if q.timeout > 0 {
		opts = append(opts, asynq.Timeout(q.timeout))
	}

	info, err := q.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", job.Type, err)
	}
	q.logger.Debug("job enqueued",
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
		zap.String("job_type", string(job.Type)),
		zap.String("target_id", job.TargetID),
	)
	return nil
}

// Close releases the Redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}
