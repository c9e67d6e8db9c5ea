package activity

import (
	"context"

	"github.com/utilityprofit/moveout-tracker/internal/records"
	"github.com/utilityprofit/moveout-tracker/pkg/queue"
)

// QueueSink hands entries to the Redis job queue; cmd/worker writes them to the table.
type QueueSink struct {
	q *queue.Queue
}

// NewQueueSink creates a queue-backed sink.
func NewQueueSink(q *queue.Queue) *QueueSink {
	return &QueueSink{q: q}
}

// Append enqueues e.
func (s *QueueSink) Append(ctx context.Context, e records.ActivityCreate) error {
	return s.q.EnqueueActivity(ctx, queue.ActivityPayload{
		PropertyID: e.PropertyID,
		UtilityID:  e.UtilityID,
		Action:     e.Action,
		Detail:     e.Detail,
		Timestamp:  e.Timestamp,
	})
}
