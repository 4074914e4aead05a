package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// settings errors
	ErrSettingsNotFound = errors.New("settings file not found")
	ErrServerRequired   = errors.New("server is required")
	ErrUserRequired     = errors.New("user is required")
	ErrInvalidPort      = errors.New("port must be between 0 and 65535")
	ErrInvalidMaxRetry  = errors.New("max_retry must not be negative")
	ErrInvalidWaitTime  = errors.New("wait_time must be positive")

	// session errors
	ErrSessionClosed     = errors.New("session is closed")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrNotSelected       = errors.New("no mailbox selected")
	ErrNotSubscribed     = errors.New("subscription not started")
	ErrAlreadySubscribed = errors.New("subscription already started")

	// monitor errors
	ErrFatalProtocol = errors.New("fatal protocol error")
)

// Kind tells the retry policy what to do with a failed session operation.
type Kind int

const (
	KindUnclassified Kind = iota
	KindTransient
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return "unclassified"
	}
}

// ConnectionError is returned by every failing session operation.
type ConnectionError struct {
	Op   string
	Kind Kind
	Err  error
}

func NewConnectionError(op string, kind Kind, err error) *ConnectionError {
	return &ConnectionError{Op: op, Kind: kind, Err: err}
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("imap %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ProtocolError ends a run after the server rejected the session. It
// matches ErrFatalProtocol and unwraps to the rejection.
type ProtocolError struct {
	Err error
}

func NewProtocolError(err error) *ProtocolError {
	return &ProtocolError{Err: err}
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%v: %v", ErrFatalProtocol, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrFatalProtocol
}

// KindOf returns the kind of the first ConnectionError in err's chain.
func KindOf(err error) Kind {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr.Kind
	}
	return KindUnclassified
}
