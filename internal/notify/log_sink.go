package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes entries to a zap logger. Diagnostics log at error level.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(_ context.Context, e Entry) error {
	fields := []zap.Field{zap.String("id", e.ID)}
	if e.Kind == KindDiagnostic {
		s.logger.Error(e.Message, append(fields, zap.String("event", e.Event))...)
		return nil
	}
	s.logger.Info(e.Message, fields...)
	return nil
}
