package interfaces

import (
	"context"

	"github.com/customeros/mailchecker/internal/enum"
)

// NotificationSink is fire-and-forget. Implementations must not block the
// caller for long and report their own failures.
type NotificationSink interface {
	Play(ctx context.Context, alert enum.AlertKind)
}

type EventPublisher interface {
	PublishFanoutEvent(ctx context.Context, entityId string, message interface{}) error
	Close() error
}
