package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/service"
)

// Processor executes decoded jobs. It is implemented by
// service.EnrichmentService.
type Processor interface {
	Classify(ctx context.Context, p domain.TextPayload) error
	Priority(ctx context.Context, p domain.TextPayload) error
	Moderate(ctx context.Context, p domain.TextPayload) error
	Summarize(ctx context.Context, p domain.TextPayload) error
	Embed(ctx context.Context, p domain.TextPayload) error
	OCR(ctx context.Context, p domain.OCRPayload) error
	Notify(ctx context.Context, p domain.NotificationPayload) error
}

// TaskHandler adapts a Processor to asynq.
type TaskHandler struct {
	processor Processor
	logger    *zap.Logger
}

// NewTaskHandler creates the handler set.
func NewTaskHandler(processor Processor, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{processor: processor, logger: logger.With(zap.String("component", "task_handler"))}
}

// Register installs a handler for every job type on mux.
func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskType(domain.JobClassify), handle(h, h.processor.Classify))
	mux.HandleFunc(TaskType(domain.JobPriority), handle(h, h.processor.Priority))
	mux.HandleFunc(TaskType(domain.JobModerate), handle(h, h.processor.Moderate))
	mux.HandleFunc(TaskType(domain.JobSummarize), handle(h, h.processor.Summarize))
	mux.HandleFunc(TaskType(domain.JobEmbed), handle(h, h.processor.Embed))
	mux.HandleFunc(TaskType(domain.JobOCR), handle(h, h.processor.OCR))
	mux.HandleFunc(TaskType(domain.JobNotify), handle(h, h.processor.Notify))
}

func handle[T any](h *TaskHandler, fn func(context.Context, T) error) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		job, err := DecodeJob(task)
		if err != nil {
			return h.skip(task, err)
		}
		var payload T
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return h.skip(task, fmt.Errorf("%w: %v", service.ErrInvalidJobPayload, err))
		}

		err = fn(ctx, payload)
		if errors.Is(err, service.ErrJobTargetMissing) || errors.Is(err, service.ErrInvalidJobPayload) {
			return h.skip(task, err)
		}
		return err
	}
}

// skip marks err as permanent so asynq archives the task without retrying.
func (h *TaskHandler) skip(task *asynq.Task, err error) error {
	h.logger.Warn("dropping job that cannot succeed",
		zap.String("task_type", task.Type()),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
}
