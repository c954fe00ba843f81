package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ShipmentStatusPending         = "pending"
	ShipmentStatusDriverAssigned  = "driver_assigned"
	ShipmentStatusPickedUp        = "picked_up"
	ShipmentStatusInTransit       = "in_transit"
	ShipmentStatusNearDestination = "near_destination"
	ShipmentStatusDelivered       = "delivered"
	ShipmentStatusFailed          = "failed"
	ShipmentStatusReturned        = "returned"
)

// ShipmentStop describes one end of the route. ActualTime is stamped by the
// tracking state machine (picked_up for the pickup stop, delivered for the
// dropoff stop).
type ShipmentStop struct {
	Address       string     `json:"address"`
	ContactName   string     `json:"contact_name,omitempty"`
	ContactPhone  string     `json:"contact_phone,omitempty"`
	Region        string     `json:"region,omitempty"`
	Lat           *float64   `json:"lat,omitempty"`
	Lng           *float64   `json:"lng,omitempty"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	ActualTime    *time.Time `json:"actual_time,omitempty"`
}

func (s ShipmentStop) HasCoordinates() bool {
	return s.Lat != nil && s.Lng != nil
}

type PackageInfo struct {
	Description  string  `json:"description,omitempty"`
	WeightKG     float64 `json:"weight_kg"`
	Quantity     int     `json:"quantity,omitempty"`
	InsuredValue float64 `json:"insured_value,omitempty"`
}

// GeoPoint is the latest reported coordinate regardless of whether it caused
// a status transition.
type GeoPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PriceBreakdown reproduces every intermediate of the tariff calculation,
// including the urgency line item that is charged on top of the already
// multiplied price.
type PriceBreakdown struct {
	BasePrice      float64 `json:"base_price"`
	DistanceKM     float64 `json:"distance_km"`
	DistancePrice  float64 `json:"distance_price"`
	WeightPrice    float64 `json:"weight_price"`
	Price          float64 `json:"price"`
	UrgencyPrice   float64 `json:"urgency_price"`
	InsurancePrice float64 `json:"insurance_price"`
	Urgent         bool    `json:"urgent"`
	Insurance      bool    `json:"insurance"`
	ColdChain      bool    `json:"cold_chain"`
	Total          float64 `json:"total"`
}

type Shipment struct {
	ID                uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID     uuid.UUID                        `gorm:"type:uuid;not null;uniqueIndex;column:transaction_id" json:"transaction_id"`
	BuyerID           uuid.UUID                        `gorm:"type:uuid;not null;column:buyer_id" json:"buyer_id"`
	SellerID          uuid.UUID                        `gorm:"type:uuid;not null;column:seller_id" json:"seller_id"`
	DriverID          *uuid.UUID                       `gorm:"type:uuid;column:driver_id" json:"driver_id,omitempty"`
	Status            string                           `gorm:"not null;index;column:status" json:"status"`
	TrackingNumber    string                           `gorm:"not null;uniqueIndex;column:tracking_number" json:"tracking_number"`
	Pickup            datatypes.JSONType[ShipmentStop] `gorm:"column:pickup" json:"pickup"`
	Dropoff           datatypes.JSONType[ShipmentStop] `gorm:"column:dropoff" json:"dropoff"`
	Package           datatypes.JSONType[PackageInfo]  `gorm:"column:package" json:"package"`
	Pricing           datatypes.JSONType[PriceBreakdown] `gorm:"column:pricing" json:"pricing"`
	CurrentLocation   datatypes.JSONType[*GeoPoint]    `gorm:"column:current_location" json:"current_location"`
	EstimatedDelivery *time.Time                       `gorm:"column:estimated_delivery" json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time                       `gorm:"column:actual_delivery" json:"actual_delivery,omitempty"`
	ProofType         string                           `gorm:"column:proof_type" json:"proof_type,omitempty"`
	ProofValue        string                           `gorm:"column:proof_value" json:"proof_value,omitempty"`
	RatingScore       *int                             `gorm:"column:rating_score" json:"rating_score,omitempty"`
	RatingComment     string                           `gorm:"column:rating_comment" json:"rating_comment,omitempty"`
	RatedAt           *time.Time                       `gorm:"column:rated_at" json:"rated_at,omitempty"`
	CreatedAt         time.Time                        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time                        `gorm:"not null;default:now()" json:"updated_at"`
}

func (Shipment) TableName() string {
	return "shipment"
}
