package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/BartuV/telsiz/internal/events"
)

// StartAuditWorker subscribes a structured-log sink for every audit
// event type the services emit.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}

	log := func(_ context.Context, event events.Event) error {
		logger.Info("audit",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("guild_id", event.GuildID),
			zap.Time("timestamp", event.Timestamp),
			zap.Any("payload", event.Payload),
		)
		return nil
	}

	for _, eventType := range []events.EventType{
		events.EventCredentialCreated,
		events.EventCredentialReset,
		events.EventSessionIssued,
		events.EventIdentityResolved,
	} {
		dispatcher.Subscribe(eventType, log)
	}
}
