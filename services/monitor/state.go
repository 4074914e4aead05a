package monitor

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateSubscribed
	StatePolling
	StateReconnecting
	StateTerminating
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StatePolling:
		return "polling"
	case StateReconnecting:
		return "reconnecting"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return "idle"
	}
}
