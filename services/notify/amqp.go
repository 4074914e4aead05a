package notify

import (
	"context"

	"github.com/customeros/mailchecker/config"
	"github.com/customeros/mailchecker/dto"
	"github.com/customeros/mailchecker/interfaces"
	"github.com/customeros/mailchecker/internal/enum"
	"github.com/customeros/mailchecker/internal/logger"
)

// AMQPSink publishes a NewMail event for other consumers.
type AMQPSink struct {
	publisher interfaces.EventPublisher
	settings  config.Settings
	mode      enum.Mode
	logger    logger.Logger
}

func NewAMQPSink(publisher interfaces.EventPublisher, settings config.Settings, mode enum.Mode, log logger.Logger) *AMQPSink {
	return &AMQPSink{
		publisher: publisher,
		settings:  settings,
		mode:      mode,
		logger:    log,
	}
}

func (s *AMQPSink) Play(ctx context.Context, alert enum.AlertKind) {
	event := dto.NewMail{
		Mailbox: s.settings.User,
		Server:  s.settings.Server,
		Mode:    s.mode.String(),
		Alert:   alert.String(),
	}

	entityId := s.settings.User + "@" + s.settings.Server
	if err := s.publisher.PublishFanoutEvent(ctx, entityId, event); err != nil {
		s.logger.Errorf("Publishing %s event failed: %v", alert, err)
	}
}
