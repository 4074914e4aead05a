package dto

// NewMail is published when the watched mailbox gains messages.
type NewMail struct {
	Mailbox string `json:"mailbox"`
	Server  string `json:"server"`
	Mode    string `json:"mode"`
	Alert   string `json:"alert"`
}
