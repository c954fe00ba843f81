package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/realtime"
	"github.com/jumlahub/jumla-backend/internal/services"
)

const wsWriteTimeout = 10 * time.Second

type WSHandler struct {
	hub               *realtime.Hub
	authService       services.AuthService
	chatService       services.ChatService
	shipmentService   services.ShipmentService
	log               *logger.Logger
	heartbeatInterval time.Duration
	outboundBuffer    int
	upgrader          websocket.Upgrader
}

func NewWSHandler(
	hub *realtime.Hub,
	authService services.AuthService,
	chatService services.ChatService,
	shipmentService services.ShipmentService,
	log *logger.Logger,
	heartbeatInterval time.Duration,
	outboundBuffer int,
) *WSHandler {
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	return &WSHandler{
		hub:               hub,
		authService:       authService,
		chatService:       chatService,
		shipmentService:   shipmentService,
		log:               log.With("component", "WSHandler"),
		heartbeatInterval: heartbeatInterval,
		outboundBuffer:    outboundBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// clientCommand is the inbound frame sent by a connected client.
type clientCommand struct {
	Action         string          `json:"action"`
	ConversationID uuid.UUID       `json:"conversation_id,omitempty"`
	ShipmentID     uuid.UUID       `json:"shipment_id,omitempty"`
	Lat            float64         `json:"lat,omitempty"`
	Lng            float64         `json:"lng,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// Serve authenticates, upgrades, and runs the connection until either side
// goes away. Authentication failures are rejected before the upgrade so the
// client sees a plain 401.
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = bearerToken(c.GetHeader("Authorization"))
	}
	rd, err := h.authService.VerifyToken(c.Request.Context(), token)
	if err != nil {
		RespondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	client := h.hub.NewClient(rd.UserID, rd.Role, rd.Region, h.outboundBuffer)
	topics := h.hub.Register(client)
	h.log.Info("Client connected", "clientID", client.ID, "userID", rd.UserID, "role", rd.Role, "region", rd.Region)

	// Handshake frame confirms identity and the implicit subscriptions. It
	// goes straight to this connection's outbound queue: routing it through
	// the user topic would echo it to the user's other devices.
	client.Outbound <- realtime.Event{
		Topic:    realtime.UserTopic(rd.UserID),
		Event:    realtime.EventAccept,
		ServerTS: time.Now().UTC(),
		Data: gin.H{
			"client_id": client.ID,
			"user_id":   rd.UserID,
			"topics":    topics,
		},
	}

	go h.writePump(conn, client)
	h.readPump(c, conn, client)
}

// writePump owns all writes on the connection: outbound events plus the
// heartbeat pings. When Outbound closes it sends a close frame and returns.
func (h *WSHandler) writePump(conn *websocket.Conn, client *realtime.Client) {
	ticker := time.NewTicker(h.heartbeatInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case evt, ok := <-client.Outbound:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				client.Logger.Warn("Write failed", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes client commands until the connection drops. A client that
// misses two heartbeat windows is considered gone.
func (h *WSHandler) readPump(c *gin.Context, conn *websocket.Conn, client *realtime.Client) {
	defer func() {
		h.hub.CloseClient(client)
		conn.Close()
		h.log.Info("Client disconnected", "clientID", client.ID, "userID", client.UserID)
	}()

	readDeadline := 2 * h.heartbeatInterval
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		var cmd clientCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				client.Logger.Warn("Read failed", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		h.dispatch(c, client, cmd)
	}
}

func (h *WSHandler) dispatch(c *gin.Context, client *realtime.Client, cmd clientCommand) {
	ctx := c.Request.Context()

	switch cmd.Action {
	case "join_chat":
		if cmd.ConversationID == uuid.Nil {
			return
		}
		ok, err := h.chatService.IsParticipant(ctx, cmd.ConversationID, client.UserID)
		if err != nil || !ok {
			client.Logger.Warn("Join chat refused", "conversationID", cmd.ConversationID, "error", err)
			return
		}
		h.hub.Subscribe(client, realtime.ChatTopic(cmd.ConversationID))

	case "leave_chat":
		if cmd.ConversationID == uuid.Nil {
			return
		}
		h.hub.Unsubscribe(client, realtime.ChatTopic(cmd.ConversationID))

	case "track_delivery":
		if cmd.ShipmentID == uuid.Nil {
			return
		}
		if _, err := h.shipmentService.Get(ctx, cmd.ShipmentID); err != nil {
			client.Logger.Warn("Track delivery refused", "shipmentID", cmd.ShipmentID, "error", err)
			return
		}
		h.hub.Subscribe(client, realtime.ShipmentTopic(cmd.ShipmentID))

	case "untrack_delivery":
		if cmd.ShipmentID == uuid.Nil {
			return
		}
		h.hub.Unsubscribe(client, realtime.ShipmentTopic(cmd.ShipmentID))

	case "update_location":
		if cmd.ShipmentID == uuid.Nil {
			return
		}
		if _, err := h.shipmentService.UpdateLocation(ctx, cmd.ShipmentID, cmd.Lat, cmd.Lng, client.UserID); err != nil {
			client.Logger.Warn("Location update refused", "shipmentID", cmd.ShipmentID, "error", err)
		}

	case "typing", "stop_typing":
		if cmd.ConversationID == uuid.Nil {
			return
		}
		// Ephemeral: broadcast only, nothing persisted.
		name := realtime.EventTyping
		if cmd.Action == "stop_typing" {
			name = realtime.EventStopTyping
		}
		h.hub.Publish(realtime.Event{
			Topic: realtime.ChatTopic(cmd.ConversationID),
			Event: name,
			Data: gin.H{
				"conversation_id": cmd.ConversationID,
				"user_id":         client.UserID,
			},
		})

	default:
		client.Logger.Debug("Unknown action", "action", cmd.Action)
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
