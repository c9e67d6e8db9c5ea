package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/utilityprofit/moveout-tracker/internal/activity"
	"github.com/utilityprofit/moveout-tracker/internal/records"
	"github.com/utilityprofit/moveout-tracker/pkg/queue"
)

// JobSource is the part of the job queue the processor consumes.
type JobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// ActivityProcessor drains queued activity entries into the activity table.
type ActivityProcessor struct {
	sink    activity.Sink
	queue   JobSource
	logger  *zap.Logger
	backoff time.Duration
}

// NewActivityProcessor creates an activity processor.
func NewActivityProcessor(sink activity.Sink, q JobSource, logger *zap.Logger) *ActivityProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityProcessor{sink: sink, queue: q, logger: logger, backoff: queue.RetryBackoff}
}

// Process writes one queued entry.
func (p *ActivityProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeActivity {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ActivityPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	err := p.sink.Append(ctx, records.ActivityCreate{
		PropertyID: payload.PropertyID,
		UtilityID:  payload.UtilityID,
		Action:     payload.Action,
		Detail:     payload.Detail,
		Timestamp:  payload.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	p.logger.Debug("activity written", zap.String("job_id", job.ID), zap.String("action", payload.Action))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ActivityProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("activity worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *ActivityProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
