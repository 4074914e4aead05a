package monitor

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/customeros/mailchecker/interfaces"
	"github.com/customeros/mailchecker/internal/tracing"
)

func (m *Monitor) runPolling(ctx context.Context) error {
	for {
		if m.stopRequested(ctx) {
			m.setState(StateTerminating)
			return nil
		}

		m.setState(StateConnecting)
		err := m.pollingCycle(ctx)
		if err == nil {
			return nil
		}
		if stop, runErr := m.handleFailure(ctx, err); stop {
			return runErr
		}
	}
}

// pollingCycle checks the message count on one session until cancellation
// or failure. The baseline survives reconnects.
func (m *Monitor) pollingCycle(ctx context.Context) error {
	span, ctx := tracing.StartTracerSpan(ctx, "Monitor.pollingCycle")
	defer span.Finish()
	tracing.TagComponentMonitor(span)

	session, err := m.dialer.Connect(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	defer m.release(ctx, session)
	tracing.TagSession(span, session.Id())
	log := m.logger.With(zap.String("session", session.Id()))

	if !m.seeded {
		count, err := m.count(ctx, session)
		if err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		_, m.baseline = Evaluate(count, m.baseline)
		m.seeded = true
		log.Infof("%d messages in INBOX", count)
	}

	m.setState(StatePolling)
	for {
		if m.stopRequested(ctx) {
			m.setState(StateTerminating)
			return nil
		}

		m.checks++
		log.Infof("%s check (every %v)", humanize.Ordinal(m.checks), m.settings.WaitTime)

		count, err := m.count(ctx, session)
		if err != nil {
			tracing.TraceErr(span, err)
			return err
		}

		var isNew bool
		isNew, m.baseline = Evaluate(count, m.baseline)
		if isNew {
			m.notify(ctx)
		}

		if !m.sleep(ctx) {
			m.setState(StateTerminating)
			return nil
		}
	}
}

func (m *Monitor) count(ctx context.Context, session interfaces.Session) (int, error) {
	if err := session.SelectMailbox(ctx, true); err != nil {
		return 0, err
	}
	return session.TotalMessageCount(ctx)
}

// sleep waits wait_time and reports false when woken by cancellation.
func (m *Monitor) sleep(ctx context.Context) bool {
	timer := time.NewTimer(m.settings.WaitTime)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-m.cancel.Done():
		return false
	case <-ctx.Done():
		return false
	}
}
