package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/avicola-track/farm-service/internal/models"
)

// notifier implements Notifier over the configured sink
type notifier struct {
	deps *ServiceDependencies
}

// NewNotifier creates a notifier; the sink is chosen once at composition time
func NewNotifier(deps *ServiceDependencies) Notifier {
	return &notifier{
		deps: deps,
	}
}

// Notify delivers the event to every distinct recipient. It never fails: lookup and
// delivery problems are logged and reported in the per-recipient results.
func (n *notifier) Notify(ctx context.Context, event *models.NotificationEvent, recipients []uuid.UUID) []models.DeliveryResult {
	logger := n.deps.logger()
	results := make([]models.DeliveryResult, 0, len(recipients))
	seen := make(map[uuid.UUID]struct{}, len(recipients))

	for _, recipientID := range recipients {
		if recipientID == uuid.Nil {
			continue
		}
		if _, dup := seen[recipientID]; dup {
			continue
		}
		seen[recipientID] = struct{}{}

		result := n.deliver(ctx, event, recipientID)
		if result.Status == models.DeliveryError {
			logger.Warn("Notification delivery failed",
				"event", event.Kind,
				"recipient_id", recipientID,
				"detail", result.Detail)
		} else {
			logger.Debug("Notification delivered",
				"event", event.Kind,
				"recipient_id", recipientID,
				"status", result.Status)
		}
		results = append(results, result)
	}

	return results
}

func (n *notifier) deliver(ctx context.Context, event *models.NotificationEvent, recipientID uuid.UUID) (result models.DeliveryResult) {
	sinkName := "none"
	if n.deps.Sink != nil {
		sinkName = n.deps.Sink.Name()
	}
	defer func() {
		if n.deps.Metrics != nil {
			n.deps.Metrics.RecordNotification(sinkName, result.Status)
		}
	}()

	if n.deps.Sink == nil {
		return models.DeliveryResult{Status: models.DeliverySkipped, Detail: "no notification sink configured"}
	}

	user, err := n.deps.Repositories.Directory.GetUser(ctx, recipientID)
	if err != nil {
		return models.DeliveryResult{Status: models.DeliveryError, Detail: err.Error()}
	}
	if user == nil {
		return models.DeliveryResult{Status: models.DeliverySkipped, Detail: "recipient not found"}
	}

	sendCtx := ctx
	if n.deps.NotificationTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, n.deps.NotificationTimeout)
		defer cancel()
	}
	return n.deps.Sink.Send(sendCtx, event, user)
}
