package enum

// EventKind tags an update received while a subscription is active.
type EventKind string

const (
	EventMessageExists     EventKind = "message_exists"
	EventSessionTerminated EventKind = "session_terminated"
	EventOther             EventKind = "other"
)

func (k EventKind) String() string {
	return string(k)
}
