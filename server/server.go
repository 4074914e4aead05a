package server

import (
	"context"
	"io"
	"os"
	"syscall"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/customeros/mailchecker/config"
	"github.com/customeros/mailchecker/internal/enum"
	"github.com/customeros/mailchecker/internal/logger"
	"github.com/customeros/mailchecker/internal/tracing"
	"github.com/customeros/mailchecker/internal/utils"
	"github.com/customeros/mailchecker/services"
	"github.com/customeros/mailchecker/services/cancel"
	"github.com/customeros/mailchecker/services/monitor"
)

var errMonitorPanicked = errors.New("monitor panicked")

type Server struct {
	config          *config.Config
	settings        config.Settings
	mode            enum.Mode
	logger          logger.Logger
	services        *services.Services
	watcher         *cancel.Watcher
	tracerCloser    io.Closer
	restoreTerminal func()
}

func NewServer(cfg *config.Config, mode enum.Mode) (*Server, error) {
	// Switch stdin to raw mode first so log lines get CRLF endings
	restoreTerminal := makeRaw(cfg.Logger)

	// Initialize logger
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	// Initialize tracing
	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		restoreTerminal()
		return nil, errors.Wrap(err, "Could not initialize jaeger tracer")
	}
	opentracing.SetGlobalTracer(tracer)

	settings, err := config.LoadSettings(cfg.AppConfig.SettingsFile)
	if err != nil {
		restoreTerminal()
		closer.Close()
		return nil, err
	}

	// Initialize services
	svcs, err := services.InitServices(cfg, settings, mode, appLogger)
	if err != nil {
		restoreTerminal()
		closer.Close()
		return nil, err
	}

	return &Server{
		config:          cfg,
		settings:        settings,
		mode:            mode,
		logger:          appLogger,
		services:        svcs,
		watcher:         cancel.NewWatcher(os.Stdin, appLogger),
		tracerCloser:    closer,
		restoreTerminal: restoreTerminal,
	}, nil
}

func makeRaw(cfg *logger.Config) func() {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}
	}
	cfg.LineEnding = "\r\n"

	return func() {
		_ = term.Restore(fd, state)
	}
}

func (s *Server) wrapGoroutine(fn func()) {
	defer tracing.RecoverAndLogToJaeger(s.logger)
	fn()
}

// Run watches the mailbox until the user cancels or the monitor stops.
func (s *Server) Run() error {
	defer s.shutdown()

	runId := uuid.New().String()
	ctx := utils.WithCustomContext(context.Background(), &utils.CustomContext{
		AppSource: utils.AppSourceMailchecker,
		RunId:     runId,
		Mode:      s.mode.String(),
	})

	stopSignals := s.watcher.WatchSignals(os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	s.watcher.Start()

	m := monitor.New(s.settings, s.mode, s.services.Dialer, s.services.Sink, s.watcher, s.logger.With(zap.String("run", runId)))

	runErr := errMonitorPanicked
	s.wrapGoroutine(func() {
		runErr = m.Run(ctx)
	})

	if reason := s.watcher.Reason(); reason != "" {
		s.logger.Infof("Stopped by %s", reason)
	}
	return runErr
}

func (s *Server) shutdown() {
	if err := s.services.Close(); err != nil {
		s.logger.Warnf("Closing services: %v", err)
	}
	if s.tracerCloser != nil {
		s.tracerCloser.Close()
	}
	_ = s.logger.Sync()
	s.restoreTerminal()
}
