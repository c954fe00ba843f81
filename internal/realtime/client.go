package realtime

import (
	"github.com/google/uuid"

	"github.com/jumlahub/jumla-backend/internal/platform/logger"
)

// Client is one live connection. A user with several devices holds several
// clients; fan-out reaches all of them through the user topic.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Role     string
	Region   string
	Topics   map[string]bool
	Outbound chan Event
	done     chan struct{}
	Logger   *logger.Logger
}

// Done is closed when the hub closes the client; write pumps select on it.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
