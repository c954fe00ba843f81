package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jumlahub/jumla-backend/internal/platform/logger"
)

func newTestHub() *Hub {
	return NewHub(&logger.Logger{SugaredLogger: zap.NewNop().Sugar()})
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case evt, ok := <-c.Outbound:
		if !ok {
			t.Fatal("outbound channel closed")
		}
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case evt := <-c.Outbound:
		t.Fatalf("unexpected event %+v", evt)
	default:
	}
}

func TestPublishReachesEveryTopicMember(t *testing.T) {
	hub := newTestHub()
	a := hub.NewClient(uuid.New(), "buyer", "lagos", 8)
	b := hub.NewClient(uuid.New(), "buyer", "lagos", 8)
	other := hub.NewClient(uuid.New(), "buyer", "lagos", 8)

	topic := ChatTopic(uuid.New())
	hub.Subscribe(a, topic)
	hub.Subscribe(b, topic)
	hub.Subscribe(other, ChatTopic(uuid.New()))

	hub.Publish(Event{Topic: topic, Event: EventNewMessage, Data: "hi"})

	for _, c := range []*Client{a, b} {
		evt := receive(t, c)
		if evt.Event != EventNewMessage || evt.Topic != topic {
			t.Fatalf("got %+v", evt)
		}
	}
	assertNoEvent(t, other)
}

func TestRegisterSubscribesIdentityRoleRegion(t *testing.T) {
	hub := newTestHub()
	userID := uuid.New()
	c := hub.NewClient(userID, "driver", "ikeja", 8)

	topics := hub.Register(c)

	want := map[string]bool{
		UserTopic(userID):    true,
		RoleTopic("driver"):  true,
		RegionTopic("ikeja"): true,
	}
	if len(topics) != len(want) {
		t.Fatalf("topics: want=%d got=%v", len(want), topics)
	}
	for _, topic := range topics {
		if !want[topic] {
			t.Fatalf("unexpected topic %q", topic)
		}
	}

	hub.Publish(Event{Topic: RoleTopic("driver"), Event: EventNewDeliveryAssignment})
	if evt := receive(t, c); evt.Event != EventNewDeliveryAssignment {
		t.Fatalf("got %+v", evt)
	}
}

func TestRegisterSkipsEmptyRoleAndRegion(t *testing.T) {
	hub := newTestHub()
	c := hub.NewClient(uuid.New(), "", "", 8)

	topics := hub.Register(c)

	if len(topics) != 1 {
		t.Fatalf("want only the user topic, got %v", topics)
	}
}

func TestPublishPreservesOrderPerClient(t *testing.T) {
	hub := newTestHub()
	c := hub.NewClient(uuid.New(), "", "", 8)
	topic := ShipmentTopic(uuid.New())
	hub.Subscribe(c, topic)

	for i := 0; i < 5; i++ {
		hub.Publish(Event{Topic: topic, Event: EventLocationUpdate, Data: i})
	}
	for i := 0; i < 5; i++ {
		evt := receive(t, c)
		if evt.Data != i {
			t.Fatalf("order: want=%d got=%v", i, evt.Data)
		}
	}
}

func TestPublishStampsServerTimestamp(t *testing.T) {
	hub := newTestHub()
	c := hub.NewClient(uuid.New(), "", "", 8)
	topic := ChatTopic(uuid.New())
	hub.Subscribe(c, topic)

	hub.Publish(Event{Topic: topic, Event: EventTyping})

	if evt := receive(t, c); evt.ServerTS.IsZero() {
		t.Fatal("serverTS must be stamped on publish")
	}
}

func TestSlowClientDropsInsteadOfBlocking(t *testing.T) {
	hub := newTestHub()
	c := hub.NewClient(uuid.New(), "", "", 2)
	topic := ChatTopic(uuid.New())
	hub.Subscribe(c, topic)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			hub.Publish(Event{Topic: topic, Event: EventNewMessage, Data: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full outbound buffer")
	}
	// The first two events fit; the rest were dropped.
	if evt := receive(t, c); evt.Data != 0 {
		t.Fatalf("first buffered event: want=0 got=%v", evt.Data)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := newTestHub()
	c := hub.NewClient(uuid.New(), "", "", 8)
	topic := ChatTopic(uuid.New())
	hub.Subscribe(c, topic)
	if got := hub.SubscriberCount(topic); got != 1 {
		t.Fatalf("subscribers after subscribe: want=1 got=%d", got)
	}
	hub.Unsubscribe(c, topic)
	if got := hub.SubscriberCount(topic); got != 0 {
		t.Fatalf("subscribers after unsubscribe: want=0 got=%d", got)
	}

	hub.Publish(Event{Topic: topic, Event: EventNewMessage})
	assertNoEvent(t, c)
}

func TestCloseClientIsIdempotentAndStopsDelivery(t *testing.T) {
	hub := newTestHub()
	c := hub.NewClient(uuid.New(), "buyer", "lagos", 8)
	hub.Register(c)
	topic := ChatTopic(uuid.New())
	hub.Subscribe(c, topic)

	hub.CloseClient(c)
	hub.CloseClient(c) // second close must not panic

	select {
	case <-c.Done():
	default:
		t.Fatal("done channel should be closed")
	}
	if _, ok := <-c.Outbound; ok {
		t.Fatal("outbound should be closed and drained")
	}

	// Publishing to the old topics after close must not panic.
	hub.Publish(Event{Topic: topic, Event: EventNewMessage})
	hub.Publish(Event{Topic: UserTopic(c.UserID), Event: EventNewMessage})
}
