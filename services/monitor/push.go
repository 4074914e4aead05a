package monitor

import (
	"context"

	"go.uber.org/zap"

	"github.com/customeros/mailchecker/internal/enum"
	"github.com/customeros/mailchecker/internal/tracing"
)

type cycleResult int

const (
	cycleDone cycleResult = iota
	cycleReconnect
)

func (m *Monitor) runPush(ctx context.Context) error {
	for {
		if m.stopRequested(ctx) {
			m.setState(StateTerminating)
			return nil
		}

		m.setState(StateConnecting)
		result, err := m.pushCycle(ctx)
		if err != nil {
			if stop, runErr := m.handleFailure(ctx, err); stop {
				return runErr
			}
			continue
		}
		if result == cycleDone {
			return nil
		}
	}
}

// pushCycle holds one IDLE session until cancellation, failure or BYE.
func (m *Monitor) pushCycle(ctx context.Context) (cycleResult, error) {
	span, ctx := tracing.StartTracerSpan(ctx, "Monitor.pushCycle")
	defer span.Finish()
	tracing.TagComponentMonitor(span)

	session, err := m.dialer.Connect(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return cycleDone, err
	}
	defer m.release(ctx, session)
	tracing.TagSession(span, session.Id())
	log := m.logger.With(zap.String("session", session.Id()))

	if err := session.SelectMailbox(ctx, false); err != nil {
		tracing.TraceErr(span, err)
		return cycleDone, err
	}
	if err := session.BeginSubscription(ctx); err != nil {
		tracing.TraceErr(span, err)
		return cycleDone, err
	}
	m.setState(StateSubscribed)
	log.Info("Waiting for new mail")

	for {
		if m.stopRequested(ctx) {
			m.setState(StateTerminating)
			return cycleDone, nil
		}

		events, err := session.WaitForEvents(ctx, m.settings.WaitTime)
		if err != nil {
			tracing.TraceErr(span, err)
			return cycleDone, err
		}

		terminated := false
		for _, event := range events {
			switch event.Kind {
			case enum.EventMessageExists:
				m.notify(ctx)
			case enum.EventSessionTerminated:
				terminated = true
			}
		}

		if terminated {
			log.Warn("Server ended the session, reconnecting")
			m.setState(StateReconnecting)
			return cycleReconnect, nil
		}
	}
}
