package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeOffer  = "offer"
	MessageTypeSystem = "system"
)

const (
	OfferStatusPending   = "pending"
	OfferStatusAccepted  = "accepted"
	OfferStatusRejected  = "rejected"
	OfferStatusCountered = "countered"
)

// Offer is the negotiation payload embedded in an offer-typed message.
// Transitions happen only from pending; every other status is terminal.
type Offer struct {
	Amount        float64    `json:"amount"`
	Quantity      int        `json:"quantity"`
	Status        string     `json:"status"`
	CounterAmount *float64   `json:"counter_amount,omitempty"`
	ProductID     *uuid.UUID `json:"product_id,omitempty"`
}

type Message struct {
	ID             uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID                      `gorm:"type:uuid;not null;index;column:conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID                      `gorm:"type:uuid;not null;column:sender_id" json:"sender_id"`
	Type           string                         `gorm:"not null;default:'text';column:type" json:"type"`
	Content        string                         `gorm:"column:content" json:"content"`
	Offer          datatypes.JSONType[*Offer]     `gorm:"column:offer" json:"offer,omitempty"`
	Extras         datatypes.JSONMap              `gorm:"column:extras" json:"extras,omitempty"`
	ReadBy         datatypes.JSONSlice[uuid.UUID] `gorm:"column:read_by" json:"read_by"`
	Deleted        bool                           `gorm:"not null;default:false;column:deleted" json:"deleted"`
	CreatedAt      time.Time                      `gorm:"not null;default:now()" json:"created_at"`
}

func (Message) TableName() string {
	return "message"
}

func (m *Message) ReadByUser(userID uuid.UUID) bool {
	for _, r := range m.ReadBy {
		if r == userID {
			return true
		}
	}
	return false
}
