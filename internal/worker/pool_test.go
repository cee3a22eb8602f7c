package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/observability"
)

func TestRetryDelayIsBoundedExponential(t *testing.T) {
	delay := RetryDelay(10*time.Second, 10*time.Minute)

	want := []time.Duration{
		10 * time.Second,
		20 * time.Second,
		40 * time.Second,
		80 * time.Second,
		160 * time.Second,
		320 * time.Second,
		10 * time.Minute,
		10 * time.Minute,
	}
	for retried, expected := range want {
		assert.Equal(t, expected, delay(retried, nil, nil), "retry %d", retried)
	}
	assert.Equal(t, 10*time.Minute, delay(500, nil, nil))
}

func TestRetryDelayDefaults(t *testing.T) {
	delay := RetryDelay(0, 0)
	assert.Equal(t, 10*time.Second, delay(0, nil, nil))
	assert.Equal(t, 10*time.Second, delay(3, nil, nil))
}

func TestDeadLettered(t *testing.T) {
	transient := errors.New("gateway down")

	assert.False(t, deadLettered(transient, 0, 5))
	assert.False(t, deadLettered(transient, 4, 5))
	assert.True(t, deadLettered(transient, 5, 5))
	assert.True(t, deadLettered(fmt.Errorf("bad payload: %w", asynq.SkipRetry), 0, 5))
}

func TestInstrumentPassesResultThrough(t *testing.T) {
	failure := errors.New("boom")
	handler := instrument(observability.NewMetrics(), zap.NewNop())(asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return failure
	}))

	err := handler.ProcessTask(context.Background(), asynq.NewTask(TaskType("embed"), nil))
	assert.ErrorIs(t, err, failure)
}
