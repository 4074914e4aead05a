package interfaces

import (
	"context"
	"time"

	"github.com/customeros/mailchecker/internal/enum"
)

// Dialer opens authenticated sessions. A failed Connect never returns a
// partially logged in session.
type Dialer interface {
	Connect(ctx context.Context) (Session, error)
}

type Session interface {
	Id() string
	SelectMailbox(ctx context.Context, readOnly bool) error
	BeginSubscription(ctx context.Context) error
	WaitForEvents(ctx context.Context, timeout time.Duration) ([]Event, error)
	TotalMessageCount(ctx context.Context) (int, error)
	EndSubscription(ctx context.Context)
	Close(ctx context.Context) error
}

type Event struct {
	Kind   enum.EventKind
	Detail string
}

// CancellationSignal is set at most once and never reset.
type CancellationSignal interface {
	IsCancelled() bool
	Done() <-chan struct{}
}
