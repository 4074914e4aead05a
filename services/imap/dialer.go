package imap

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/opentracing/opentracing-go/log"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/customeros/mailchecker/config"
	"github.com/customeros/mailchecker/interfaces"
	"github.com/customeros/mailchecker/internal/logger"
	"github.com/customeros/mailchecker/internal/tracing"
)

type DialerConfig struct {
	Settings       config.Settings
	DialTimeout    time.Duration
	CommandTimeout time.Duration
	LogoutTimeout  time.Duration
}

// Dialer opens one authenticated session per Connect call.
type Dialer struct {
	cfg    DialerConfig
	logger logger.Logger
	dial   dialFunc
}

func NewDialer(cfg DialerConfig, log logger.Logger) *Dialer {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.LogoutTimeout <= 0 {
		cfg.LogoutTimeout = DefaultLogoutTimeout
	}
	return &Dialer{
		cfg:    cfg,
		logger: log,
		dial:   dialIMAP,
	}
}

// Connect dials the server and logs in. On failure the half-open client
// is logged out and a classified error is returned.
func (d *Dialer) Connect(ctx context.Context) (interfaces.Session, error) {
	span, ctx := tracing.StartTracerSpan(ctx, "Dialer.Connect")
	defer span.Finish()
	tracing.TagComponentSession(span)

	settings := d.cfg.Settings
	id := xid.New().String()
	tracing.TagSession(span, id)
	span.SetTag("server", settings.Server)
	span.SetTag("port", settings.Port)
	span.SetTag("tls", settings.SSL)

	sessionLogger := d.logger.With(zap.String("session", id))

	var tlsConfig *tls.Config
	if settings.SSL {
		tlsConfig = &tls.Config{ServerName: settings.Server}
	}

	sessionLogger.Debugf("Connecting to %s", settings.Address())
	c, err := d.dial(ctx, settings.Address(), tlsConfig, d.cfg.DialTimeout)
	if err != nil {
		err = classify(ctx, "connect", err, nil)
		tracing.TraceErr(span, err)
		return nil, err
	}

	c.SetTimeout(d.cfg.CommandTimeout)
	if err := c.Login(settings.User, settings.Password); err != nil {
		err = classify(ctx, "login", err, c)
		tracing.TraceErr(span, err, log.String("user", settings.User))
		if logoutErr := c.Logout(); logoutErr != nil {
			_ = c.Terminate()
		}
		return nil, err
	}

	sessionLogger.Infof("Logged in to %s as %s", settings.Address(), settings.User)

	return newSession(id, c, d.cfg, sessionLogger), nil
}
