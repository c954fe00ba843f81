package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jumlahub/jumla-backend/internal/platform/apierr"
	"github.com/jumlahub/jumla-backend/internal/services"
	"github.com/jumlahub/jumla-backend/internal/types"
)

type QuoteHandler struct {
	shipmentService services.ShipmentService
}

func NewQuoteHandler(shipmentService services.ShipmentService) *QuoteHandler {
	return &QuoteHandler{shipmentService: shipmentService}
}

type quoteRequest struct {
	PickupLat    *float64 `json:"pickup_lat"`
	PickupLng    *float64 `json:"pickup_lng"`
	DropoffLat   *float64 `json:"dropoff_lat"`
	DropoffLng   *float64 `json:"dropoff_lng"`
	WeightKG     float64  `json:"weight_kg" binding:"required"`
	Urgent       bool     `json:"urgent"`
	Insurance    bool     `json:"insurance"`
	ColdChain    bool     `json:"cold_chain"`
	InsuredValue float64  `json:"insured_value"`
}

// Quote prices a hypothetical shipment. Distance falls back to the default
// when either coordinate pair is missing.
func (qh *QuoteHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	if req.WeightKG <= 0 {
		RespondError(c, apierr.Validation("weight must be positive"))
		return
	}
	result := qh.shipmentService.Quote(services.QuoteInput{
		Pickup:       types.ShipmentStop{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff:      types.ShipmentStop{Lat: req.DropoffLat, Lng: req.DropoffLng},
		WeightKG:     req.WeightKG,
		Urgent:       req.Urgent,
		Insurance:    req.Insurance,
		ColdChain:    req.ColdChain,
		InsuredValue: req.InsuredValue,
	})
	RespondOK(c, result)
}
