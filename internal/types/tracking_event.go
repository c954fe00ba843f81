package types

import (
	"time"

	"github.com/google/uuid"
)

// TrackingEvent is one immutable entry of a shipment's status log. Rows are
// append-only; the shipment's status always equals the last entry's status.
type TrackingEvent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShipmentID  uuid.UUID `gorm:"type:uuid;not null;index;column:shipment_id" json:"shipment_id"`
	Status      string    `gorm:"not null;column:status" json:"status"`
	Lat         *float64  `gorm:"column:lat" json:"lat,omitempty"`
	Lng         *float64  `gorm:"column:lng" json:"lng,omitempty"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	ActorID     uuid.UUID `gorm:"type:uuid;column:actor_id" json:"actor_id"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (TrackingEvent) TableName() string {
	return "tracking_event"
}
