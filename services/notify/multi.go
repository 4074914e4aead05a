package notify

import (
	"context"

	"github.com/customeros/mailchecker/interfaces"
	"github.com/customeros/mailchecker/internal/enum"
	"github.com/customeros/mailchecker/internal/logger"
)

// MultiSink plays an alert on every sink in order. A panicking sink does
// not stop the others.
type MultiSink struct {
	sinks  []interfaces.NotificationSink
	logger logger.Logger
}

func NewMultiSink(log logger.Logger, sinks ...interfaces.NotificationSink) *MultiSink {
	return &MultiSink{sinks: sinks, logger: log}
}

func (s *MultiSink) Play(ctx context.Context, alert enum.AlertKind) {
	for _, sink := range s.sinks {
		s.play(ctx, sink, alert)
	}
}

func (s *MultiSink) play(ctx context.Context, sink interfaces.NotificationSink, alert enum.AlertKind) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Sink %T panicked: %v", sink, r)
		}
	}()
	sink.Play(ctx, alert)
}

func (s *MultiSink) Len() int {
	return len(s.sinks)
}
