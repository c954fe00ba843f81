package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jumlahub/jumla-backend/internal/platform/apierr"
	"github.com/jumlahub/jumla-backend/internal/services"
)

// GroupBuyHandler is a broadcast passthrough: the group-buy domain lives in
// another service and only needs its region-scoped announcement fanned out.
type GroupBuyHandler struct {
	notifier services.ShipmentNotifier
}

func NewGroupBuyHandler(notifier services.ShipmentNotifier) *GroupBuyHandler {
	return &GroupBuyHandler{notifier: notifier}
}

type announceGroupBuyRequest struct {
	Region  string         `json:"region" binding:"required"`
	Payload map[string]any `json:"payload" binding:"required"`
}

func (gh *GroupBuyHandler) Announce(c *gin.Context) {
	var req announceGroupBuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	gh.notifier.GroupBuyOpened(req.Region, req.Payload)
	RespondOK(c, gin.H{"status": "ok"})
}
