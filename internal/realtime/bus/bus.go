package bus

import (
	"context"

	"github.com/jumlahub/jumla-backend/internal/realtime"
)

// Bus carries events between gateway instances. A node publishes every
// aggregate event to the bus; every node's forwarder re-broadcasts bus
// messages into its local hub.
type Bus interface {
	Publish(ctx context.Context, evt realtime.Event) error
	StartForwarder(ctx context.Context, onEvent func(evt realtime.Event)) error
	Close() error
}
