package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const ConversationTypeDirect = "direct"

// LastMessage is the denormalized snapshot of the log tail kept on the
// conversation row so list views never join the message table.
type LastMessage struct {
	Content   string    `json:"content"`
	SenderID  uuid.UUID `json:"sender_id"`
	Timestamp time.Time `json:"timestamp"`
}

type Conversation struct {
	ID           uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	Type         string                             `gorm:"not null;default:'direct';column:type" json:"type"`
	ProductID    *uuid.UUID                         `gorm:"type:uuid;index;column:product_id" json:"product_id,omitempty"`
	Participants datatypes.JSONSlice[uuid.UUID]     `gorm:"not null;column:participants" json:"participants"`
	LastMessage  datatypes.JSONType[LastMessage]    `gorm:"column:last_message" json:"last_message"`
	UnreadCount  datatypes.JSONType[map[string]int] `gorm:"column:unread_count" json:"unread_count"`
	CreatedAt    time.Time                          `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time                          `gorm:"not null;default:now()" json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversation"
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
