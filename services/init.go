package services

import (
	"os"

	"github.com/customeros/mailchecker/config"
	"github.com/customeros/mailchecker/interfaces"
	"github.com/customeros/mailchecker/internal/enum"
	"github.com/customeros/mailchecker/internal/logger"
	"github.com/customeros/mailchecker/services/events"
	"github.com/customeros/mailchecker/services/imap"
	"github.com/customeros/mailchecker/services/notify"
)

type Services struct {
	EventsService *events.EventsService
	Dialer        interfaces.Dialer
	Sink          interfaces.NotificationSink
}

func InitServices(cfg *config.Config, settings config.Settings, mode enum.Mode, log logger.Logger) (*Services, error) {
	services := Services{
		Dialer: imap.NewDialer(imap.DialerConfig{
			Settings:       settings,
			DialTimeout:    cfg.AppConfig.DialTimeout,
			CommandTimeout: cfg.AppConfig.CommandTimeout,
			LogoutTimeout:  cfg.AppConfig.LogoutTimeout,
		}, log),
	}

	var sinks []interfaces.NotificationSink
	if cfg.NotifyConfig.Command != "" {
		sinks = append(sinks, notify.NewCommandSink(cfg.NotifyConfig.Command, cfg.NotifyConfig.CommandTimeout, log))
	} else if cfg.NotifyConfig.Bell {
		sinks = append(sinks, notify.NewBellSink(os.Stdout, log))
	}

	// events
	if cfg.NotifyConfig.RabbitMQURL != "" {
		publisherConfig := events.DefaultPublisherConfig()
		publisherConfig.Exchange = cfg.NotifyConfig.Exchange

		eventsService, err := events.NewEventsService(cfg.NotifyConfig.RabbitMQURL, log, publisherConfig)
		if err != nil {
			return nil, err
		}
		services.EventsService = eventsService
		sinks = append(sinks, notify.NewAMQPSink(eventsService.Publisher, settings, mode, log))
	}

	services.Sink = notify.NewMultiSink(log, sinks...)

	return &services, nil
}

func (s *Services) Close() error {
	if s.EventsService != nil {
		return s.EventsService.Close()
	}
	return nil
}
