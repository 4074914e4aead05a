package notify

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/customeros/mailchecker/internal/enum"
	"github.com/customeros/mailchecker/internal/logger"
	"github.com/customeros/mailchecker/internal/tracing"
)

// CommandSink runs an external player, e.g.
// "paplay /usr/share/sounds/freedesktop/stereo/message-new-instant.oga".
// The command line is split on whitespace and not passed to a shell.
type CommandSink struct {
	args    []string
	timeout time.Duration
	logger  logger.Logger
}

func NewCommandSink(command string, timeout time.Duration, log logger.Logger) *CommandSink {
	return &CommandSink{
		args:    strings.Fields(command),
		timeout: timeout,
		logger:  log,
	}
}

func (s *CommandSink) Play(ctx context.Context, alert enum.AlertKind) {
	if len(s.args) == 0 {
		return
	}

	span, ctx := tracing.StartTracerSpan(ctx, "CommandSink.Play")
	defer span.Finish()
	tracing.TagComponentNotifier(span)
	span.SetTag("command", s.args[0])

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.args[0], s.args[1:]...)
	if output, err := cmd.CombinedOutput(); err != nil {
		tracing.TraceErr(span, err)
		s.logger.Warnf("Alert command for %s failed: %v %s", alert, err, strings.TrimSpace(string(output)))
	}
}
