package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jumlahub/jumla-backend/internal/platform/apierr"
	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/realtime"
	"github.com/jumlahub/jumla-backend/internal/services"
	"github.com/jumlahub/jumla-backend/internal/types"
)

const wsTestSecret = "ws-test-secret"

type stubChatService struct {
	participant bool
}

func (s *stubChatService) StartConversation(ctx context.Context, initiator, counterpart uuid.UUID, productID *uuid.UUID) (*types.Conversation, error) {
	return nil, nil
}

func (s *stubChatService) ListConversations(ctx context.Context, actor uuid.UUID) ([]*types.Conversation, error) {
	return nil, nil
}

func (s *stubChatService) ListMessages(ctx context.Context, conversationID, actor uuid.UUID, limit int) ([]*types.Message, error) {
	return nil, nil
}

func (s *stubChatService) PostMessage(ctx context.Context, conversationID, sender uuid.UUID, content, msgType string, extras map[string]any) (*types.Message, error) {
	return nil, nil
}

func (s *stubChatService) MarkRead(ctx context.Context, conversationID, actor uuid.UUID) error {
	return nil
}

func (s *stubChatService) MakeOffer(ctx context.Context, conversationID, sender uuid.UUID, amount float64, quantity int, productID *uuid.UUID) (*types.Message, error) {
	return nil, nil
}

func (s *stubChatService) RespondToOffer(ctx context.Context, conversationID, messageID, actor uuid.UUID, status string, counterAmount *float64) (*types.Message, error) {
	return nil, nil
}

func (s *stubChatService) DeleteMessage(ctx context.Context, conversationID, messageID, actor uuid.UUID) error {
	return nil
}

func (s *stubChatService) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	return s.participant, nil
}

type stubShipmentService struct {
	locations chan [2]float64
}

func (s *stubShipmentService) Create(ctx context.Context, actor uuid.UUID, in services.CreateShipmentInput) (*types.Shipment, error) {
	return nil, nil
}

func (s *stubShipmentService) Get(ctx context.Context, shipmentID uuid.UUID) (*types.Shipment, error) {
	return nil, apierr.NotFound("shipment %s not found", shipmentID)
}

func (s *stubShipmentService) TrackByNumber(ctx context.Context, trackingNumber string) (*types.Shipment, error) {
	return nil, apierr.NotFound("no shipment with tracking number %s", trackingNumber)
}

func (s *stubShipmentService) History(ctx context.Context, shipmentID uuid.UUID) ([]*types.TrackingEvent, error) {
	return nil, nil
}

func (s *stubShipmentService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Shipment, error) {
	return nil, nil
}

func (s *stubShipmentService) AssignDriver(ctx context.Context, shipmentID, driverID, actor uuid.UUID) (*types.Shipment, error) {
	return nil, nil
}

func (s *stubShipmentService) RecordTrackingEvent(ctx context.Context, shipmentID uuid.UUID, status string, lat, lng *float64, description string, actor uuid.UUID) (*types.Shipment, error) {
	return nil, nil
}

func (s *stubShipmentService) UpdateLocation(ctx context.Context, shipmentID uuid.UUID, lat, lng float64, actor uuid.UUID) (*types.Shipment, error) {
	if s.locations != nil {
		s.locations <- [2]float64{lat, lng}
	}
	return &types.Shipment{ID: shipmentID}, nil
}

func (s *stubShipmentService) AttachProofOfDelivery(ctx context.Context, shipmentID uuid.UUID, proofType, proofValue string, actor uuid.UUID) (*types.Shipment, error) {
	return nil, nil
}

func (s *stubShipmentService) Rate(ctx context.Context, shipmentID, actor uuid.UUID, score int, comment string) (*types.Shipment, error) {
	return nil, nil
}

func (s *stubShipmentService) Quote(in services.QuoteInput) services.QuoteResult {
	return services.QuoteResult{}
}

type wsFixture struct {
	hub       *realtime.Hub
	server    *httptest.Server
	shipments *stubShipmentService
}

func newWSFixture(t *testing.T, participant bool) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
	hub := realtime.NewHub(log)
	shipments := &stubShipmentService{locations: make(chan [2]float64, 1)}
	handler := NewWSHandler(
		hub,
		services.NewAuthService(log, wsTestSecret),
		&stubChatService{participant: participant},
		shipments,
		log,
		time.Second,
		8,
	)

	router := gin.New()
	router.GET("/ws", handler.Serve)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &wsFixture{hub: hub, server: server, shipments: shipments}
}

func (f *wsFixture) url(token string) string {
	u := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func signWSToken(t *testing.T, secret string, userID uuid.UUID, role, region string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"region":  region,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func dialWS(t *testing.T, f *wsFixture, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url(token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// wsFrame mirrors the event envelope for assertions.
type wsFrame struct {
	Topic string `json:"topic"`
	Event string `json:"event"`
	Data  struct {
		ClientID       string   `json:"client_id"`
		UserID         string   `json:"user_id"`
		Topics         []string `json:"topics"`
		ConversationID string   `json:"conversation_id"`
	} `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame wsFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

// expectNoFrame fails when anything arrives inside the window.
func expectNoFrame(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(window))
	var frame wsFrame
	if err := conn.ReadJSON(&frame); err == nil {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestServeRejectsBadHandshake(t *testing.T) {
	f := newWSFixture(t, false)
	userID := uuid.New()

	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong secret", signWSToken(t, "other-secret", userID, "buyer", "ikeja")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(f.url(tc.token), nil)
			if err == nil {
				conn.Close()
				t.Fatal("dial must fail for a rejected handshake")
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status: want=401 got=%+v", resp)
			}
			if got := f.hub.SubscriberCount(realtime.UserTopic(userID)); got != 0 {
				t.Fatalf("rejected handshake must create no subscriptions, got %d", got)
			}
		})
	}
}

func TestServeAcceptFrameAndAutoTopics(t *testing.T) {
	f := newWSFixture(t, false)
	userID := uuid.New()
	conn := dialWS(t, f, signWSToken(t, wsTestSecret, userID, "buyer", "ikeja"))

	frame := readFrame(t, conn)
	if frame.Event != string(realtime.EventAccept) {
		t.Fatalf("first frame: want=accept got=%q", frame.Event)
	}
	if frame.Data.UserID != userID.String() {
		t.Fatalf("accept user: want=%s got=%s", userID, frame.Data.UserID)
	}

	want := map[string]bool{
		realtime.UserTopic(userID):    true,
		realtime.RoleTopic("buyer"):   true,
		realtime.RegionTopic("ikeja"): true,
	}
	if len(frame.Data.Topics) != len(want) {
		t.Fatalf("auto topics: want=%d got=%v", len(want), frame.Data.Topics)
	}
	for _, topic := range frame.Data.Topics {
		if !want[topic] {
			t.Fatalf("unexpected auto topic %q", topic)
		}
		if got := f.hub.SubscriberCount(topic); got != 1 {
			t.Fatalf("subscribers of %q: want=1 got=%d", topic, got)
		}
	}
}

func TestAcceptStaysOnItsOwnConnection(t *testing.T) {
	f := newWSFixture(t, false)
	userID := uuid.New()
	token := signWSToken(t, wsTestSecret, userID, "buyer", "ikeja")

	first := dialWS(t, f, token)
	readFrame(t, first)

	// A second device of the same user connects; its handshake must not leak
	// onto the first device through the shared user topic.
	second := dialWS(t, f, token)
	readFrame(t, second)

	expectNoFrame(t, first, 300*time.Millisecond)
}

func TestJoinChatRequiresParticipant(t *testing.T) {
	f := newWSFixture(t, false)
	userID := uuid.New()
	conn := dialWS(t, f, signWSToken(t, wsTestSecret, userID, "buyer", "ikeja"))
	readFrame(t, conn)

	conversationID := uuid.New()
	if err := conn.WriteJSON(map[string]any{"action": "join_chat", "conversation_id": conversationID}); err != nil {
		t.Fatalf("write join_chat: %v", err)
	}
	// Processed after join_chat; a subscribed client would get it echoed back.
	if err := conn.WriteJSON(map[string]any{"action": "typing", "conversation_id": conversationID}); err != nil {
		t.Fatalf("write typing: %v", err)
	}

	expectNoFrame(t, conn, 400*time.Millisecond)
	if got := f.hub.SubscriberCount(realtime.ChatTopic(conversationID)); got != 0 {
		t.Fatalf("non-participant must gain no chat subscription, got %d", got)
	}
}

func TestJoinChatParticipantGetsChatEvents(t *testing.T) {
	f := newWSFixture(t, true)
	userID := uuid.New()
	conn := dialWS(t, f, signWSToken(t, wsTestSecret, userID, "buyer", "ikeja"))
	readFrame(t, conn)

	conversationID := uuid.New()
	if err := conn.WriteJSON(map[string]any{"action": "join_chat", "conversation_id": conversationID}); err != nil {
		t.Fatalf("write join_chat: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"action": "typing", "conversation_id": conversationID}); err != nil {
		t.Fatalf("write typing: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Event != string(realtime.EventTyping) {
		t.Fatalf("event: want=typing got=%q", frame.Event)
	}
	if frame.Topic != realtime.ChatTopic(conversationID) {
		t.Fatalf("topic: want=%s got=%s", realtime.ChatTopic(conversationID), frame.Topic)
	}
	if frame.Data.ConversationID != conversationID.String() {
		t.Fatalf("conversation: want=%s got=%s", conversationID, frame.Data.ConversationID)
	}
}

func TestUpdateLocationCommand(t *testing.T) {
	f := newWSFixture(t, false)
	userID := uuid.New()
	conn := dialWS(t, f, signWSToken(t, wsTestSecret, userID, "driver", "ikeja"))
	readFrame(t, conn)

	shipmentID := uuid.New()
	if err := conn.WriteJSON(map[string]any{"action": "update_location", "shipment_id": shipmentID, "lat": 6.52, "lng": 3.37}); err != nil {
		t.Fatalf("write update_location: %v", err)
	}

	select {
	case loc := <-f.shipments.locations:
		if loc[0] != 6.52 || loc[1] != 3.37 {
			t.Fatalf("location: want=[6.52 3.37] got=%v", loc)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("update_location never reached the shipment service")
	}
}
