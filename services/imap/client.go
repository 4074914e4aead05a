package imap

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/commands"
	"github.com/emersion/go-imap/responses"
	"github.com/pkg/errors"
)

const (
	DefaultMailbox           = "INBOX"
	DefaultDialTimeout       = 5 * time.Second
	DefaultCommandTimeout    = 30 * time.Second
	DefaultLogoutTimeout     = 5 * time.Second
	DefaultIdleLogoutTimeout = 25 * time.Minute
	DefaultIdlePollInterval  = time.Minute
	updatesBufferSize        = 100
)

var errDisconnectedWhileIdle = errors.New("disconnected while idling")

// imapClient is the subset of *client.Client a session drives.
type imapClient interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Search(criteria *imap.SearchCriteria) ([]uint32, error)
	Idle(stop <-chan struct{}, opts *client.IdleOptions) error
	Logout() error
	Terminate() error
	State() imap.ConnState
	LoggedOut() <-chan struct{}
	SetUpdates(updates chan<- client.Update)
	SetTimeout(timeout time.Duration)
}

type goImapClient struct {
	*client.Client
}

func (c goImapClient) SetUpdates(updates chan<- client.Update) {
	c.Client.Updates = updates
}

func (c goImapClient) SetTimeout(timeout time.Duration) {
	c.Client.Timeout = timeout
}

// Idle runs IDLE through Execute so EXISTS and RECENT counts are captured on
// the reader goroutine. The MailboxUpdate go-imap sends itself points at the
// selected mailbox, which the reader keeps rewriting.
func (c goImapClient) Idle(stop <-chan struct{}, opts *client.IdleOptions) error {
	logoutTimeout, pollInterval := DefaultIdleLogoutTimeout, DefaultIdlePollInterval
	if opts != nil {
		if opts.LogoutTimeout > 0 {
			logoutTimeout = opts.LogoutTimeout
		}
		if opts.PollInterval > 0 {
			pollInterval = opts.PollInterval
		}
	}

	ok, err := c.Support("IDLE")
	if err != nil {
		return err
	}
	if !ok {
		return c.poll(stop, pollInterval)
	}

	ticker := time.NewTicker(logoutTimeout)
	defer ticker.Stop()

	for {
		restart := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- c.idleOnce(restart)
		}()

		select {
		case <-ticker.C:
			close(restart)
			if err := <-done; err != nil {
				return err
			}
		case <-stop:
			close(restart)
			return <-done
		case err := <-done:
			close(restart)
			if err != nil {
				return err
			}
		}
	}
}

func (c goImapClient) idleOnce(stop <-chan struct{}) error {
	idle := &responses.Idle{Stop: stop, RepliesCh: make(chan []byte, 10)}
	status, err := c.Execute(&commands.Idle{}, newSnapshotHandler(idle, c.Client.Updates))
	if err != nil {
		return err
	}
	return status.Err()
}

// poll replaces IDLE with NOOP on servers that lack it.
func (c goImapClient) poll(stop <-chan struct{}, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status, err := c.Execute(&commands.Noop{}, newSnapshotHandler(nil, c.Client.Updates))
			if err != nil {
				return err
			}
			if err := status.Err(); err != nil {
				return err
			}
		case <-stop:
			return nil
		case <-c.LoggedOut():
			return errDisconnectedWhileIdle
		}
	}
}

type dialFunc func(ctx context.Context, addr string, tlsConfig *tls.Config, timeout time.Duration) (imapClient, error)

// contextDialer lets go-imap dial through net.Dialer.DialContext.
type contextDialer struct {
	ctx    context.Context
	dialer *net.Dialer
}

func (d contextDialer) Dial(network, address string) (net.Conn, error) {
	return d.dialer.DialContext(d.ctx, network, address)
}

// dialIMAP opens a TLS connection when tlsConfig is set, a plain one otherwise.
func dialIMAP(ctx context.Context, addr string, tlsConfig *tls.Config, timeout time.Duration) (imapClient, error) {
	dialer := contextDialer{
		ctx: ctx,
		dialer: &net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		},
	}

	var c *client.Client
	var err error
	if tlsConfig != nil {
		c, err = client.DialWithDialerTLS(dialer, addr, tlsConfig)
	} else {
		c, err = client.DialWithDialer(dialer, addr)
	}
	if err != nil {
		return nil, err
	}

	return goImapClient{Client: c}, nil
}
