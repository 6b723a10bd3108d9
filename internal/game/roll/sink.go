package roll

import (
	"context"

	"go.uber.org/zap"
)

// Sink records resolved rolls for display. Publishing is observability only;
// a failed publish never undoes a roll.
type Sink interface {
	Publish(ctx context.Context, out Outcome, meta Metadata) error
}

// LogSink publishes outcomes as structured log lines.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
//
// Precondition: logger must be non-nil.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs out at info level.
func (s *LogSink) Publish(_ context.Context, out Outcome, meta Metadata) error {
	fields := []zap.Field{
		zap.String("roll_id", out.ID.String()),
		zap.String("label", out.Label),
		zap.String("entity", meta.EntityName),
		zap.Int("successes", out.Successes),
		zap.Int("consumed", out.Primary.Committed),
	}
	for _, g := range out.Groups {
		fields = append(fields, zap.Ints(string(g.Group), g.Results))
	}
	if out.Linked != nil {
		fields = append(fields,
			zap.String("linked", meta.LinkedName),
			zap.Int("linked_consumed", out.Linked.Committed),
		)
	}
	s.logger.Info("roll outcome", fields...)
	return nil
}

// NopSink discards outcomes.
type NopSink struct{}

// Publish does nothing.
func (NopSink) Publish(context.Context, Outcome, Metadata) error { return nil }
