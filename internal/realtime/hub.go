package realtime

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jumlahub/jumla-backend/internal/platform/logger"
)

// Hub is the fan-out engine. It owns the topic -> connection-set table;
// publishes take the read lock so connect/disconnect never stalls an
// ongoing fan-out.
type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "Hub"),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func (hub *Hub) NewClient(userID uuid.UUID, role, region string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 32
	}
	id := uuid.New()
	return &Client{
		ID:       id,
		UserID:   userID,
		Role:     role,
		Region:   region,
		Topics:   make(map[string]bool),
		Outbound: make(chan Event, buffer),
		done:     make(chan struct{}),
		Logger:   hub.log.With("clientID", id),
	}
}

// Register subscribes the client to its identity, role, and region topics
// and returns the topic names for the handshake accept frame.
func (hub *Hub) Register(client *Client) []string {
	topics := []string{UserTopic(client.UserID)}
	if client.Role != "" {
		topics = append(topics, RoleTopic(client.Role))
	}
	if client.Region != "" {
		topics = append(topics, RegionTopic(client.Region))
	}
	for _, topic := range topics {
		hub.Subscribe(client, topic)
	}
	return topics
}

func (hub *Hub) Subscribe(client *Client, topic string) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	client.Topics[topic] = true
	clients, exists := hub.subscriptions[topic]
	if !exists {
		clients = make(map[*Client]bool)
		hub.subscriptions[topic] = clients
	}
	clients[client] = true

	hub.log.Debug("Client subscribed", "clientID", client.ID, "topic", topic)
}

func (hub *Hub) Unsubscribe(client *Client, topic string) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	delete(client.Topics, topic)
	if members, ok := hub.subscriptions[topic]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(hub.subscriptions, topic)
		}
	}

	hub.log.Debug("Client unsubscribed", "clientID", client.ID, "topic", topic)
}

// SubscriberCount reports the current membership of a topic.
func (hub *Hub) SubscriberCount(topic string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subscriptions[topic])
}

// Unregister removes the client from every topic. It never touches
// aggregate state.
func (hub *Hub) Unregister(client *Client) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for topic := range client.Topics {
		if members, ok := hub.subscriptions[topic]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(hub.subscriptions, topic)
			}
		}
	}
	client.Topics = make(map[string]bool)

	hub.log.Debug("Client unsubscribed from all topics", "clientID", client.ID)
}

// Publish dispatches the event to every current member of the topic. The
// send is non-blocking per client: a slow or dead recipient loses the event
// instead of stalling delivery to the others. Publishing to an empty topic
// is a no-op.
func (hub *Hub) Publish(evt Event) {
	if evt.Topic == "" {
		return
	}
	if evt.ServerTS.IsZero() {
		evt.ServerTS = time.Now().UTC()
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	members, ok := hub.subscriptions[evt.Topic]
	if !ok {
		return
	}
	for c := range members {
		select {
		case c.Outbound <- evt:
		default:
			hub.log.Warn("Dropping event; outbound buffer full", "clientID", c.ID, "topic", evt.Topic, "event", evt.Event)
		}
	}
}

// CloseClient tears the client down. Unregister takes the write lock, so by
// the time Outbound is closed no publisher can still be sending to it.
func (hub *Hub) CloseClient(client *Client) {
	select {
	case <-client.done:
		return
	default:
	}
	close(client.done)
	hub.Unregister(client)
	close(client.Outbound)
}
