// Package activity records the audit trail of dashboard mutations.
package activity

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/utilityprofit/moveout-tracker/internal/records"
)

// TimestampLayout is fixed-width so entries sort correctly as strings.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var failuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "activity_log_failures_total",
	Help: "Activity entries that could not be written.",
})

// Sink accepts activity entries for storage.
type Sink interface {
	Append(ctx context.Context, e records.ActivityCreate) error
}

// Entry is what callers report after a successful mutation.
type Entry struct {
	PropertyID string
	UtilityID  string
	Action     string
	Detail     string
}

// Logger appends entries to a sink and never reports failure to the caller.
type Logger struct {
	sink   Sink
	logger *zap.Logger
	now    func() time.Time
}

// NewLogger creates an activity logger writing to sink.
func NewLogger(sink Sink, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{sink: sink, logger: logger, now: time.Now}
}

// Log appends e. Failures are logged and counted, never returned.
// The write is detached from ctx cancellation so a client hang-up does not drop the entry.
func (l *Logger) Log(ctx context.Context, e Entry) {
	if l == nil || l.sink == nil {
		return
	}
	rec := records.ActivityCreate{
		PropertyID: e.PropertyID,
		UtilityID:  e.UtilityID,
		Action:     e.Action,
		Detail:     e.Detail,
		Timestamp:  l.now().UTC().Format(TimestampLayout),
	}
	defer func() {
		if p := recover(); p != nil {
			failuresTotal.Inc()
			l.logger.Error("activity log panic", zap.Any("panic", p), zap.String("action", e.Action))
		}
	}()
	if err := l.sink.Append(context.WithoutCancel(ctx), rec); err != nil {
		failuresTotal.Inc()
		l.logger.Error("activity log error",
			zap.Error(err),
			zap.String("property_id", e.PropertyID),
			zap.String("utility_id", e.UtilityID),
			zap.String("action", e.Action),
		)
	}
}
