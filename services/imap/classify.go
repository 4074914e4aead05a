package imap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/pkg/errors"

	er "github.com/customeros/mailchecker/internal/errors"
)

// classify wraps err in a ConnectionError. c is nil when no connection
// was established.
func classify(ctx context.Context, op string, err error, c imapClient) error {
	if err == nil {
		return nil
	}

	var connErr *er.ConnectionError
	if errors.As(err, &connErr) {
		return err
	}

	return er.NewConnectionError(op, kindOf(ctx, err, c), err)
}

func kindOf(ctx context.Context, err error, c imapClient) er.Kind {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return er.KindUnclassified
	}
	if isCertificateError(err) {
		return er.KindUnclassified
	}

	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, client.ErrAlreadyLoggedOut) {
		return er.KindTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return er.KindTransient
	}

	if c == nil {
		return er.KindUnclassified
	}
	if !connectionAlive(c) {
		return er.KindTransient
	}

	// the server answered NO or BAD on a live connection
	return er.KindFatal
}

func isCertificateError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var authorityErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	var recordErr tls.RecordHeaderError

	return errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &recordErr)
}

func connectionAlive(c imapClient) bool {
	select {
	case <-c.LoggedOut():
		return false
	default:
	}
	return c.State() != imap.LogoutState
}
