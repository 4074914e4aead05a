package imap

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/customeros/mailchecker/config"
	"github.com/customeros/mailchecker/internal/logger"
)

type fakeClient struct {
	mu sync.Mutex

	loginErr  error
	selectErr error
	searchErr error
	logoutErr error
	idleErr   error

	mailbox   *imap.MailboxStatus
	seqNums   []uint32
	state     imap.ConnState
	loggedOut chan struct{}
	updates   chan<- client.Update
	idling    chan struct{}

	logins     int
	logouts    int
	terminates int
	timeouts   []time.Duration
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		mailbox:   &imap.MailboxStatus{Name: DefaultMailbox, Messages: 3},
		seqNums:   []uint32{1, 2, 3},
		state:     imap.AuthenticatedState,
		loggedOut: make(chan struct{}),
		idling:    make(chan struct{}),
	}
}

func (f *fakeClient) Login(username, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	return f.loginErr
}

func (f *fakeClient) Select(name string, readOnly bool) (*imap.MailboxStatus, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	return f.mailbox, nil
}

func (f *fakeClient) Search(criteria *imap.SearchCriteria) ([]uint32, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.seqNums, nil
}

func (f *fakeClient) Idle(stop <-chan struct{}, opts *client.IdleOptions) error {
	close(f.idling)
	select {
	case <-stop:
		return nil
	case <-f.loggedOut:
		return f.idleErr
	}
}

func (f *fakeClient) Logout() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	if f.logoutErr != nil {
		return f.logoutErr
	}
	f.dropLocked()
	return nil
}

func (f *fakeClient) Terminate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminates++
	f.dropLocked()
	return nil
}

func (f *fakeClient) dropLocked() {
	f.state = imap.LogoutState
	select {
	case <-f.loggedOut:
	default:
		close(f.loggedOut)
	}
}

// drop simulates the server closing the connection.
func (f *fakeClient) drop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropLocked()
}

func (f *fakeClient) State() imap.ConnState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeClient) LoggedOut() <-chan struct{} {
	return f.loggedOut
}

func (f *fakeClient) SetUpdates(updates chan<- client.Update) {
	f.updates = updates
}

func (f *fakeClient) SetTimeout(timeout time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeouts = append(f.timeouts, timeout)
}

func (f *fakeClient) counts() (logins, logouts, terminates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins, f.logouts, f.terminates
}

func existsUpdate(n uint32) *client.MailboxUpdate {
	status := imap.NewMailboxStatus(DefaultMailbox, []imap.StatusItem{imap.StatusMessages})
	status.Messages = n
	return &client.MailboxUpdate{Mailbox: status}
}

func recentUpdate(n uint32) *client.MailboxUpdate {
	status := imap.NewMailboxStatus(DefaultMailbox, []imap.StatusItem{imap.StatusRecent})
	status.Recent = n
	return &client.MailboxUpdate{Mailbox: status}
}

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{LogLevel: "error", Encoder: "console"})
	appLogger.InitLogger()
	return appLogger
}

func testDialerConfig() DialerConfig {
	return DialerConfig{
		Settings: config.Settings{
			Server:   "imap.example.com",
			Port:     993,
			SSL:      true,
			User:     "alice",
			Password: "secret",
			MaxRetry: 5,
			WaitTime: time.Minute,
		},
		DialTimeout:    time.Second,
		CommandTimeout: time.Second,
		LogoutTimeout:  100 * time.Millisecond,
	}
}

func newTestDialer(fake *fakeClient, dialErr error) *Dialer {
	d := NewDialer(testDialerConfig(), testLogger())
	d.dial = func(ctx context.Context, addr string, tlsConfig *tls.Config, timeout time.Duration) (imapClient, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		return fake, nil
	}
	return d
}
