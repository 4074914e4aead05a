package imap

import (
	"context"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailchecker/interfaces"
	er "github.com/customeros/mailchecker/internal/errors"
	"github.com/customeros/mailchecker/internal/logger"
	"github.com/customeros/mailchecker/internal/tracing"
)

// Session is a single authenticated connection. It is owned by one
// goroutine; only Close may be called more than once.
type Session struct {
	id             string
	client         imapClient
	logger         logger.Logger
	commandTimeout time.Duration
	logoutTimeout  time.Duration

	selected   bool
	subscribed bool
	messages   uint32

	updates  chan client.Update
	idleStop chan struct{}
	idleDone chan error
	idleOver bool
	draining bool

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

var _ interfaces.Session = (*Session)(nil)

func newSession(id string, c imapClient, cfg DialerConfig, log logger.Logger) *Session {
	return &Session{
		id:             id,
		client:         c,
		logger:         log,
		commandTimeout: cfg.CommandTimeout,
		logoutTimeout:  cfg.LogoutTimeout,
		closed:         make(chan struct{}),
	}
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) startSpan(ctx context.Context, name string) (opentracing.Span, context.Context) {
	span, ctx := tracing.StartTracerSpan(ctx, name)
	tracing.TagComponentSession(span)
	tracing.TagSession(span, s.id)
	return span, ctx
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// SelectMailbox selects INBOX, read-only when requested.
func (s *Session) SelectMailbox(ctx context.Context, readOnly bool) error {
	span, ctx := s.startSpan(ctx, "Session.SelectMailbox")
	defer span.Finish()
	span.SetTag(tracing.SpanTagMailbox, DefaultMailbox)
	span.SetTag("read_only", readOnly)

	if s.isClosed() {
		return er.NewConnectionError("select", er.KindUnclassified, er.ErrSessionClosed)
	}
	if s.subscribed {
		return er.NewConnectionError("select", er.KindUnclassified, er.ErrAlreadySubscribed)
	}

	s.client.SetTimeout(s.commandTimeout)
	status, err := s.client.Select(DefaultMailbox, readOnly)
	if err != nil {
		err = classify(ctx, "select", err, s.client)
		tracing.TraceErr(span, err)
		return err
	}

	s.selected = true
	s.messages = status.Messages
	span.SetTag("messages", status.Messages)
	s.logger.Debugf("Selected %s with %d messages", DefaultMailbox, status.Messages)
	return nil
}

// TotalMessageCount returns the number of messages in the selected mailbox.
func (s *Session) TotalMessageCount(ctx context.Context) (int, error) {
	span, ctx := s.startSpan(ctx, "Session.TotalMessageCount")
	defer span.Finish()

	if s.isClosed() {
		return 0, er.NewConnectionError("search", er.KindUnclassified, er.ErrSessionClosed)
	}
	if !s.selected {
		return 0, er.NewConnectionError("search", er.KindUnclassified, er.ErrNotSelected)
	}

	s.client.SetTimeout(s.commandTimeout)
	seqNums, err := s.client.Search(imap.NewSearchCriteria())
	if err != nil {
		err = classify(ctx, "search", err, s.client)
		tracing.TraceErr(span, err)
		return 0, err
	}

	span.SetTag("messages", len(seqNums))
	return len(seqNums), nil
}

// Close logs out, dropping the connection when LOGOUT fails or stalls.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		span, ctx := s.startSpan(ctx, "Session.Close")
		defer span.Finish()

		s.EndSubscription(ctx)

		s.client.SetTimeout(s.logoutTimeout)
		done := make(chan error, 1)
		go func() {
			done <- s.client.Logout()
		}()

		timer := time.NewTimer(s.logoutTimeout)
		defer timer.Stop()

		select {
		case err := <-done:
			if err != nil && !errors.Is(err, client.ErrAlreadyLoggedOut) {
				s.logger.Debugf("Logout failed, dropping connection: %v", err)
				tracing.TraceErr(span, err)
				_ = s.client.Terminate()
				s.closeErr = err
			}
		case <-timer.C:
			s.logger.Debugf("Logout timed out after %v, dropping connection", s.logoutTimeout)
			span.SetTag("timeout", true)
			_ = s.client.Terminate()
		}

		close(s.closed)
		s.logger.Debug("Session closed")
	})

	return s.closeErr
}
