package notify

import (
	"context"
	"io"

	"github.com/customeros/mailchecker/internal/enum"
	"github.com/customeros/mailchecker/internal/logger"
)

// BellSink rings the terminal bell.
type BellSink struct {
	out    io.Writer
	logger logger.Logger
}

func NewBellSink(out io.Writer, log logger.Logger) *BellSink {
	return &BellSink{out: out, logger: log}
}

func (s *BellSink) Play(ctx context.Context, alert enum.AlertKind) {
	if _, err := io.WriteString(s.out, "\a"); err != nil {
		s.logger.Warnf("Ringing bell for %s failed: %v", alert, err)
	}
}
