package monitor

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/customeros/mailchecker/config"
	"github.com/customeros/mailchecker/interfaces"
	"github.com/customeros/mailchecker/internal/enum"
	er "github.com/customeros/mailchecker/internal/errors"
	"github.com/customeros/mailchecker/internal/logger"
	"github.com/customeros/mailchecker/internal/tracing"
)

// Monitor drives one mailbox through connect, wait, evaluate and notify
// until the user cancels or the retry budget is spent.
type Monitor struct {
	settings config.Settings
	mode     enum.Mode
	dialer   interfaces.Dialer
	sink     interfaces.NotificationSink
	cancel   interfaces.CancellationSignal
	logger   logger.Logger
	retry    *RetryPolicy

	// polling only
	baseline Baseline
	seeded   bool
	checks   int

	mu    sync.RWMutex
	state State
}

func New(settings config.Settings, mode enum.Mode, dialer interfaces.Dialer, sink interfaces.NotificationSink, cancel interfaces.CancellationSignal, log logger.Logger) *Monitor {
	return &Monitor{
		settings: settings,
		mode:     mode,
		dialer:   dialer,
		sink:     sink,
		cancel:   cancel,
		logger:   log.With(zap.String("mode", mode.String())),
		retry:    NewRetryPolicy(settings.MaxRetry),
		baseline: NewBaseline(),
		state:    StateIdle,
	}
}

func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Monitor) setState(state State) {
	m.mu.Lock()
	previous := m.state
	m.state = state
	m.mu.Unlock()

	if previous != state {
		m.logger.Debugf("State %s -> %s", previous, state)
	}
}

// Run blocks until the monitor terminates. It returns nil on cancellation
// and on giving up after transient failures.
func (m *Monitor) Run(ctx context.Context) error {
	span, ctx := tracing.StartTracerSpan(ctx, "Monitor.Run")
	defer span.Finish()
	tracing.TagComponentMonitor(span)
	span.SetTag(tracing.SpanTagMode, m.mode.String())

	m.logger.Infof("Checking %s on %s for new mail in %s mode", m.settings.User, m.settings.Server, m.mode)
	m.logger.Info("Press any key to stop")

	var err error
	if m.mode == enum.ModePush {
		err = m.runPush(ctx)
	} else {
		err = m.runPolling(ctx)
	}

	m.setState(StateTerminated)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	m.logger.Info("Stopped checking for new mail")
	return nil
}

func (m *Monitor) stopRequested(ctx context.Context) bool {
	return m.cancel.IsCancelled() || ctx.Err() != nil
}

// handleFailure routes a failed cycle through the retry policy. stop reports
// whether the run must end; err is what Run returns in that case.
func (m *Monitor) handleFailure(ctx context.Context, cause error) (stop bool, err error) {
	if m.stopRequested(ctx) {
		m.setState(StateTerminating)
		return true, nil
	}

	switch m.retry.Classify(cause) {
	case er.KindTransient:
		if m.retry.OnFailure() == DecisionGiveUp {
			m.logger.Errorf("Giving up after %d failures (max_retry %d): %v", m.retry.Attempts(), m.retry.MaxRetry(), cause)
			m.setState(StateTerminating)
			return true, nil
		}
		m.logger.With(zap.Int("attempt", m.retry.Attempts())).
			Warnf("Connection lost, reconnecting (attempt %d of %d): %v", m.retry.Attempts(), m.retry.MaxRetry(), cause)
		m.setState(StateReconnecting)
		return false, nil
	case er.KindFatal:
		m.logger.Errorf("Server rejected the session: %v", cause)
		m.setState(StateTerminating)
		return true, er.NewProtocolError(cause)
	default:
		m.logger.Errorf("Unexpected failure: %v", cause)
		m.setState(StateTerminating)
		return true, errors.Wrap(cause, "unexpected failure")
	}
}

// release ends the session of a finished cycle. It runs exactly once per
// session, whatever the exit path.
func (m *Monitor) release(ctx context.Context, session interfaces.Session) {
	session.EndSubscription(ctx)
	if err := session.Close(ctx); err != nil {
		m.logger.Debugf("Closing session %s: %v", session.Id(), err)
	}
}

// notify never lets a misbehaving sink abort the loop.
func (m *Monitor) notify(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Errorf("Notification panicked: %v", r)
		}
	}()

	m.logger.Info("New mail arrived")
	m.sink.Play(ctx, enum.AlertNewMail)
}
