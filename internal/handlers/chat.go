package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jumlahub/jumla-backend/internal/platform/apierr"
	"github.com/jumlahub/jumla-backend/internal/requestdata"
	"github.com/jumlahub/jumla-backend/internal/services"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type startConversationRequest struct {
	CounterpartID uuid.UUID  `json:"counterpart_id" binding:"required"`
	ProductID     *uuid.UUID `json:"product_id"`
}

func (ch *ChatHandler) StartConversation(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	conv, err := ch.chatService.StartConversation(c.Request.Context(), rd.UserID, req.CounterpartID, req.ProductID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"conversation": conv})
}

func (ch *ChatHandler) ListConversations(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	convs, err := ch.chatService.ListConversations(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"conversations": convs})
}

func (ch *ChatHandler) ListMessages(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	limit := intQuery(c, "limit", 50)
	msgs, err := ch.chatService.ListMessages(c.Request.Context(), conversationID, rd.UserID, limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"messages": msgs})
}

type postMessageRequest struct {
	Content string         `json:"content" binding:"required"`
	Type    string         `json:"type"`
	Extras  map[string]any `json:"extras"`
}

func (ch *ChatHandler) PostMessage(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	msg, err := ch.chatService.PostMessage(c.Request.Context(), conversationID, rd.UserID, req.Content, req.Type, req.Extras)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"message": msg})
}

func (ch *ChatHandler) MarkRead(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := ch.chatService.MarkRead(c.Request.Context(), conversationID, rd.UserID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

type makeOfferRequest struct {
	Amount    float64    `json:"amount" binding:"required"`
	Quantity  int        `json:"quantity" binding:"required"`
	ProductID *uuid.UUID `json:"product_id"`
}

func (ch *ChatHandler) MakeOffer(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req makeOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	msg, err := ch.chatService.MakeOffer(c.Request.Context(), conversationID, rd.UserID, req.Amount, req.Quantity, req.ProductID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"message": msg})
}

type respondToOfferRequest struct {
	Status        string   `json:"status" binding:"required"`
	CounterAmount *float64 `json:"counter_amount"`
}

func (ch *ChatHandler) RespondToOffer(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathUUID(c, "messageID")
	if !ok {
		return
	}
	var req respondToOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	msg, err := ch.chatService.RespondToOffer(c.Request.Context(), conversationID, messageID, rd.UserID, req.Status, req.CounterAmount)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": msg})
}

func (ch *ChatHandler) DeleteMessage(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	conversationID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathUUID(c, "messageID")
	if !ok {
		return
	}
	if err := ch.chatService.DeleteMessage(c.Request.Context(), conversationID, messageID, rd.UserID); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, apierr.Validation("invalid %s: %v", name, err))
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, defaultVal int) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
