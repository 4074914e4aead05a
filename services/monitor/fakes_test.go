package monitor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"

	"github.com/customeros/mailchecker/config"
	"github.com/customeros/mailchecker/interfaces"
	"github.com/customeros/mailchecker/internal/enum"
	er "github.com/customeros/mailchecker/internal/errors"
	"github.com/customeros/mailchecker/internal/logger"
)

var (
	errTransient = er.NewConnectionError("search", er.KindTransient, io.ErrUnexpectedEOF)
	errFatal     = er.NewConnectionError("login", er.KindFatal, errors.New("Invalid credentials"))
)

type fakeSignal struct {
	once sync.Once
	done chan struct{}
}

func newFakeSignal() *fakeSignal {
	return &fakeSignal{done: make(chan struct{})}
}

func (s *fakeSignal) Cancel() {
	s.once.Do(func() { close(s.done) })
}

func (s *fakeSignal) IsCancelled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *fakeSignal) Done() <-chan struct{} {
	return s.done
}

type waitStep struct {
	events []interfaces.Event
	err    error
}

type countStep struct {
	count int
	err   error
}

// fakeSession replays scripted results. When a script runs out it calls
// exhausted, which tests use to cancel the run.
type fakeSession struct {
	mu sync.Mutex

	id        string
	selectErr error
	beginErr  error
	waits     []waitStep
	counts    []countStep
	exhausted func()

	selects    int
	begins     int
	waitCalls  int
	countCalls int
	ends       int
	closes     int
	lastCount  int
}

func (s *fakeSession) Id() string {
	return s.id
}

func (s *fakeSession) SelectMailbox(ctx context.Context, readOnly bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selects++
	return s.selectErr
}

func (s *fakeSession) BeginSubscription(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins++
	return s.beginErr
}

func (s *fakeSession) WaitForEvents(ctx context.Context, timeout time.Duration) ([]interfaces.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitCalls++
	if len(s.waits) == 0 {
		if s.exhausted != nil {
			s.exhausted()
		}
		return nil, nil
	}
	step := s.waits[0]
	s.waits = s.waits[1:]
	return step.events, step.err
}

func (s *fakeSession) TotalMessageCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countCalls++
	if len(s.counts) == 0 {
		if s.exhausted != nil {
			s.exhausted()
		}
		return s.lastCount, nil
	}
	step := s.counts[0]
	s.counts = s.counts[1:]
	if step.err == nil {
		s.lastCount = step.count
	}
	return step.count, step.err
}

func (s *fakeSession) EndSubscription(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ends++
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func (s *fakeSession) countCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countCalls
}

type connectStep struct {
	session *fakeSession
	err     error
}

// fakeDialer hands out scripted sessions; once exhausted every Connect
// fails with a transient error.
type fakeDialer struct {
	mu       sync.Mutex
	steps    []connectStep
	connects int
}

func (d *fakeDialer) Connect(ctx context.Context) (interfaces.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connects++
	if len(d.steps) == 0 {
		return nil, errTransient
	}
	step := d.steps[0]
	d.steps = d.steps[1:]
	if step.err != nil {
		return nil, step.err
	}
	return step.session, nil
}

func (d *fakeDialer) connectCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connects
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Play(ctx context.Context, alert enum.AlertKind) {
	m.Called(ctx, alert)
}

func newMockSink() *mockSink {
	sink := &mockSink{}
	sink.On("Play", mock.Anything, enum.AlertNewMail).Return()
	return sink
}

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{LogLevel: "error", Encoder: "console"})
	appLogger.InitLogger()
	return appLogger
}

func testSettings(maxRetry int, wait time.Duration) config.Settings {
	return config.Settings{
		Server:   "imap.example.com",
		Port:     993,
		SSL:      true,
		User:     "alice",
		Password: "secret",
		MaxRetry: maxRetry,
		WaitTime: wait,
	}
}

func existsEvent() interfaces.Event {
	return interfaces.Event{Kind: enum.EventMessageExists, Detail: "EXISTS 4"}
}

func byeEvent() interfaces.Event {
	return interfaces.Event{Kind: enum.EventSessionTerminated, Detail: "BYE"}
}
