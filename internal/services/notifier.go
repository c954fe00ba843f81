package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/realtime"
	"github.com/jumlahub/jumla-backend/internal/realtime/bus"
)

// Emitter is the explicit handle to the fan-out engine injected into every
// publishing component at construction time.
type Emitter interface {
	Emit(ctx context.Context, evt realtime.Event)
}

// HubEmitter broadcasts locally to connected clients.
type HubEmitter struct {
	Hub *realtime.Hub
}

func (e *HubEmitter) Emit(ctx context.Context, evt realtime.Event) {
	if e == nil || e.Hub == nil {
		return
	}
	e.Hub.Publish(evt)
}

// RedisEmitter publishes to the bus; the forwarder on every node (this one
// included) re-broadcasts into the local hub. Failures are logged and
// swallowed: the bridge never rolls back the mutation that triggered it.
type RedisEmitter struct {
	Bus bus.Bus
	Log *logger.Logger
}

func (e *RedisEmitter) Emit(ctx context.Context, evt realtime.Event) {
	if e == nil || e.Bus == nil {
		return
	}
	if err := e.Bus.Publish(ctx, evt); err != nil && e.Log != nil {
		e.Log.Warn("Failed to publish event to bus", "topic", evt.Topic, "event", evt.Event, "error", err)
	}
}

// PushNotifier is the fire-and-forget SMS/push collaborator. Delivery is
// best-effort; errors never reach the command issuer.
type PushNotifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string) error
}

type logPushNotifier struct {
	log *logger.Logger
}

func NewLogPushNotifier(log *logger.Logger) PushNotifier {
	return &logPushNotifier{log: log.With("service", "PushNotifier")}
}

func (n *logPushNotifier) Notify(ctx context.Context, userID uuid.UUID, title, body string) error {
	n.log.Debug("Push notification", "userID", userID, "title", title, "body", body)
	return nil
}
