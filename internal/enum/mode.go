package enum

type Mode string

const (
	ModePolling Mode = "polling"
	ModePush    Mode = "push"
)

func (m Mode) String() string {
	return string(m)
}

// ParseMode resolves the command line argument. Only the literal "push"
// selects event-driven mode.
func ParseMode(arg string) Mode {
	if arg == string(ModePush) {
		return ModePush
	}
	return ModePolling
}

type AlertKind string

const (
	AlertNewMail AlertKind = "new_mail"
)

func (a AlertKind) String() string {
	return string(a)
}
