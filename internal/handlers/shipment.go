package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jumlahub/jumla-backend/internal/platform/apierr"
	"github.com/jumlahub/jumla-backend/internal/requestdata"
	"github.com/jumlahub/jumla-backend/internal/services"
	"github.com/jumlahub/jumla-backend/internal/types"
)

type ShipmentHandler struct {
	shipmentService services.ShipmentService
}

func NewShipmentHandler(shipmentService services.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

type stopRequest struct {
	Address      string   `json:"address" binding:"required"`
	ContactName  string   `json:"contact_name"`
	ContactPhone string   `json:"contact_phone"`
	Region       string   `json:"region"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
}

func (r stopRequest) toStop() types.ShipmentStop {
	return types.ShipmentStop{
		Address:      r.Address,
		ContactName:  r.ContactName,
		ContactPhone: r.ContactPhone,
		Region:       r.Region,
		Lat:          r.Lat,
		Lng:          r.Lng,
	}
}

type createShipmentRequest struct {
	TransactionID uuid.UUID   `json:"transaction_id" binding:"required"`
	BuyerID       uuid.UUID   `json:"buyer_id" binding:"required"`
	SellerID      uuid.UUID   `json:"seller_id" binding:"required"`
	Pickup        stopRequest `json:"pickup" binding:"required"`
	Dropoff       stopRequest `json:"dropoff" binding:"required"`
	Package       struct {
		Description  string  `json:"description"`
		WeightKG     float64 `json:"weight_kg" binding:"required"`
		Quantity     int     `json:"quantity"`
		InsuredValue float64 `json:"insured_value"`
	} `json:"package" binding:"required"`
	Urgent    bool `json:"urgent"`
	Insurance bool `json:"insurance"`
	ColdChain bool `json:"cold_chain"`
}

func (sh *ShipmentHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req createShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	shipment, err := sh.shipmentService.Create(c.Request.Context(), rd.UserID, services.CreateShipmentInput{
		TransactionID: req.TransactionID,
		BuyerID:       req.BuyerID,
		SellerID:      req.SellerID,
		Pickup:        req.Pickup.toStop(),
		Dropoff:       req.Dropoff.toStop(),
		Package: types.PackageInfo{
			Description:  req.Package.Description,
			WeightKG:     req.Package.WeightKG,
			Quantity:     req.Package.Quantity,
			InsuredValue: req.Package.InsuredValue,
		},
		Urgent:    req.Urgent,
		Insurance: req.Insurance,
		ColdChain: req.ColdChain,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"shipment": shipment})
}

func (sh *ShipmentHandler) Get(c *gin.Context) {
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	shipment, err := sh.shipmentService.Get(c.Request.Context(), shipmentID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": shipment})
}

// Track is the public lookup behind the tracking code on the label.
func (sh *ShipmentHandler) Track(c *gin.Context) {
	shipment, err := sh.shipmentService.TrackByNumber(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": shipment})
}

func (sh *ShipmentHandler) History(c *gin.Context) {
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	events, err := sh.shipmentService.History(c.Request.Context(), shipmentID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"tracking_history": events})
}

func (sh *ShipmentHandler) ListMine(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	shipments, err := sh.shipmentService.ListByUser(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"shipments": shipments})
}

type assignDriverRequest struct {
	DriverID uuid.UUID `json:"driver_id" binding:"required"`
}

func (sh *ShipmentHandler) AssignDriver(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req assignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	shipment, err := sh.shipmentService.AssignDriver(c.Request.Context(), shipmentID, req.DriverID, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": shipment})
}

type trackingEventRequest struct {
	Status      string   `json:"status" binding:"required"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Description string   `json:"description"`
}

func (sh *ShipmentHandler) RecordTrackingEvent(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req trackingEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	shipment, err := sh.shipmentService.RecordTrackingEvent(c.Request.Context(), shipmentID, req.Status, req.Lat, req.Lng, req.Description, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": shipment})
}

type updateLocationRequest struct {
	Lat float64 `json:"lat" binding:"required"`
	Lng float64 `json:"lng" binding:"required"`
}

func (sh *ShipmentHandler) UpdateLocation(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	shipment, err := sh.shipmentService.UpdateLocation(c.Request.Context(), shipmentID, req.Lat, req.Lng, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": shipment})
}

type proofRequest struct {
	ProofType  string `json:"proof_type" binding:"required"`
	ProofValue string `json:"proof_value" binding:"required"`
}

func (sh *ShipmentHandler) AttachProof(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req proofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	shipment, err := sh.shipmentService.AttachProofOfDelivery(c.Request.Context(), shipmentID, req.ProofType, req.ProofValue, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": shipment})
}

type ratingRequest struct {
	Score   int    `json:"score" binding:"required"`
	Comment string `json:"comment"`
}

func (sh *ShipmentHandler) Rate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	shipmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.Validation("invalid request body: %v", err))
		return
	}
	shipment, err := sh.shipmentService.Rate(c.Request.Context(), shipmentID, rd.UserID, req.Score, req.Comment)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": shipment})
}
