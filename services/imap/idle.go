package imap

import (
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/customeros/mailchecker/interfaces"
	"github.com/customeros/mailchecker/internal/enum"
	er "github.com/customeros/mailchecker/internal/errors"
	"github.com/customeros/mailchecker/internal/tracing"
)

// BeginSubscription starts IDLE on the selected mailbox in the background.
// A session subscribes at most once.
func (s *Session) BeginSubscription(ctx context.Context) error {
	span, _ := s.startSpan(ctx, "Session.BeginSubscription")
	defer span.Finish()

	if s.isClosed() {
		return er.NewConnectionError("idle", er.KindUnclassified, er.ErrSessionClosed)
	}
	if !s.selected {
		return er.NewConnectionError("idle", er.KindUnclassified, er.ErrNotSelected)
	}
	if s.subscribed || s.idleOver {
		return er.NewConnectionError("idle", er.KindUnclassified, er.ErrAlreadySubscribed)
	}

	s.updates = make(chan client.Update, updatesBufferSize)
	s.idleStop = make(chan struct{})
	s.idleDone = make(chan error, 1)

	s.client.SetUpdates(s.updates)
	s.client.SetTimeout(0)

	stop, done, c := s.idleStop, s.idleDone, s.client
	go func() {
		done <- c.Idle(stop, &client.IdleOptions{
			LogoutTimeout: DefaultIdleLogoutTimeout,
			PollInterval:  DefaultIdlePollInterval,
		})
	}()

	s.subscribed = true
	s.logger.Debug("IDLE started")
	return nil
}

// WaitForEvents blocks up to timeout for the first server update, then
// returns it together with everything already buffered. A nil slice means
// the timeout elapsed quietly.
func (s *Session) WaitForEvents(ctx context.Context, timeout time.Duration) ([]interfaces.Event, error) {
	span, ctx := s.startSpan(ctx, "Session.WaitForEvents")
	defer span.Finish()

	if s.isClosed() {
		return nil, er.NewConnectionError("wait", er.KindUnclassified, er.ErrSessionClosed)
	}
	if !s.subscribed {
		return nil, er.NewConnectionError("wait", er.KindUnclassified, er.ErrNotSubscribed)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var events []interfaces.Event
	select {
	case update := <-s.updates:
		events = append(events, s.translate(update))
	case err := <-s.idleDone:
		s.idleFinished()
		events, err = s.connectionEnded(ctx, err)
		if err != nil {
			tracing.TraceErr(span, err)
		}
		return events, err
	case <-s.client.LoggedOut():
		events, err := s.connectionEnded(ctx, nil)
		if err != nil {
			tracing.TraceErr(span, err)
		}
		return events, err
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, er.NewConnectionError("wait", er.KindUnclassified, ctx.Err())
	}

	events = append(events, s.drainBuffered()...)
	span.SetTag("events", len(events))
	return events, nil
}

// connectionEnded runs when IDLE stops or the connection closes without
// being asked to. go-imap queues a BYE before the reader exits, so a BYE in
// the buffer means the server ended the session; anything else is a lost
// connection.
func (s *Session) connectionEnded(ctx context.Context, cause error) ([]interfaces.Event, error) {
	events := s.drainBuffered()
	for _, event := range events {
		if event.Kind == enum.EventSessionTerminated {
			return events, nil
		}
	}

	if cause == nil {
		return nil, er.NewConnectionError("wait", er.KindTransient, er.ErrConnectionClosed)
	}
	return nil, classify(ctx, "wait", cause, s.client)
}

func (s *Session) drainBuffered() []interfaces.Event {
	var events []interfaces.Event
	for {
		select {
		case update := <-s.updates:
			events = append(events, s.translate(update))
		default:
			return events
		}
	}
}

// translate tags an update and keeps the tracked message count current.
func (s *Session) translate(update client.Update) interfaces.Event {
	event := interfaces.Event{Kind: enum.EventOther}

	switch u := update.(type) {
	case *client.StatusUpdate:
		event.Detail = fmt.Sprintf("%s %s", u.Status.Type, u.Status.Info)
		if u.Status.Type == imap.StatusRespBye {
			event.Kind = enum.EventSessionTerminated
		}
	case *client.MailboxUpdate:
		// the snapshot handler gives every update its own MailboxStatus
		if _, ok := u.Mailbox.Items[imap.StatusMessages]; !ok {
			event.Detail = fmt.Sprintf("RECENT %d", u.Mailbox.Recent)
			break
		}
		event.Detail = fmt.Sprintf("EXISTS %d", u.Mailbox.Messages)
		if u.Mailbox.Messages > s.messages {
			event.Kind = enum.EventMessageExists
		}
		s.messages = u.Mailbox.Messages
	case *client.ExpungeUpdate:
		event.Detail = fmt.Sprintf("EXPUNGE %d", u.SeqNum)
		if s.messages > 0 {
			s.messages--
		}
	case *client.MessageUpdate:
		event.Detail = "FETCH"
		if u.Message != nil {
			event.Detail = fmt.Sprintf("FETCH %d", u.Message.SeqNum)
		}
	default:
		event.Detail = fmt.Sprintf("%T", update)
	}

	s.logger.Infof("Server sent %s", event.Detail)
	return event
}

func (s *Session) idleFinished() {
	s.subscribed = false
	s.idleOver = true
}

// EndSubscription stops IDLE. Failures are only logged.
func (s *Session) EndSubscription(ctx context.Context) {
	if s.subscribed {
		s.stopIdle(ctx)
	}
	s.startDraining()
}

func (s *Session) stopIdle(ctx context.Context) {
	span, _ := s.startSpan(ctx, "Session.EndSubscription")
	defer span.Finish()

	close(s.idleStop)

	timer := time.NewTimer(s.logoutTimeout)
	defer timer.Stop()

	select {
	case err := <-s.idleDone:
		s.idleFinished()
		if err != nil {
			s.logger.Debugf("IDLE ended with error: %v", err)
		}
	case <-timer.C:
		s.idleFinished()
		s.logger.Debugf("IDLE did not end within %v", s.logoutTimeout)
		span.SetTag("timeout", true)
	}
}

// startDraining keeps the updates channel empty until Close, since the
// reader blocks on a full one.
func (s *Session) startDraining() {
	if s.updates == nil || s.draining {
		return
	}
	s.draining = true

	go func(updates <-chan client.Update, closed <-chan struct{}) {
		for {
			select {
			case <-updates:
			case <-closed:
				return
			}
		}
	}(s.updates, s.closed)
}
