package imap

import (
	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/responses"
)

// snapshotHandler turns EXISTS and RECENT into MailboxUpdates that carry
// their own MailboxStatus. Other responses go to next, then to go-imap's
// unilateral handler.
type snapshotHandler struct {
	next    responses.Handler
	replies <-chan []byte
	updates chan<- client.Update
}

func newSnapshotHandler(next responses.Handler, updates chan<- client.Update) *snapshotHandler {
	h := &snapshotHandler{next: next, updates: updates}
	if replier, ok := next.(responses.Replier); ok {
		h.replies = replier.Replies()
	}
	return h
}

// Replies forwards the IDLE handler's DONE so Execute can write it.
func (h *snapshotHandler) Replies() <-chan []byte {
	return h.replies
}

func (h *snapshotHandler) Handle(resp imap.Resp) error {
	if h.updates != nil {
		if name, fields, ok := imap.ParseNamedResp(resp); ok && len(fields) > 0 {
			switch name {
			case "EXISTS":
				if n, err := imap.ParseNumber(fields[0]); err == nil {
					status := imap.NewMailboxStatus(DefaultMailbox, []imap.StatusItem{imap.StatusMessages})
					status.Messages = n
					h.updates <- &client.MailboxUpdate{Mailbox: status}
					return nil
				}
			case "RECENT":
				if n, err := imap.ParseNumber(fields[0]); err == nil {
					status := imap.NewMailboxStatus(DefaultMailbox, []imap.StatusItem{imap.StatusRecent})
					status.Recent = n
					h.updates <- &client.MailboxUpdate{Mailbox: status}
					return nil
				}
			}
		}
	}

	if h.next != nil {
		return h.next.Handle(resp)
	}
	return responses.ErrUnhandled
}
