package pipeline

import (
	"context"

	"github.com/charmbracelet/log"
)

// LogStage logs every event at debug level and accepts it.
type LogStage struct {
	logger *log.Logger
}

// NewLogStage creates a logging stage. A nil logger uses log.Default().
func NewLogStage(logger *log.Logger) *LogStage {
	if logger == nil {
		logger = log.Default()
	}
	return &LogStage{logger: logger}
}

// Name implements Interceptor.
func (s *LogStage) Name() string { return "log" }

// Intercept implements Interceptor.
func (s *LogStage) Intercept(_ context.Context, ev Event) Outcome {
	s.logger.Debug("event", "kind", ev.Kind, "detail", ev.String())
	return Accepted()
}
