package realtime

import (
	"time"

	"github.com/google/uuid"
)

type EventName string

const (
	EventAccept                EventName = "accept"
	EventNewChat               EventName = "new_chat"
	EventNewMessage            EventName = "new_message"
	EventNewOffer              EventName = "new_offer"
	EventOfferUpdated          EventName = "offer_updated"
	EventDeliveryUpdate        EventName = "delivery_update"
	EventLocationUpdate        EventName = "location_update"
	EventNewDeliveryAssignment EventName = "new_delivery_assignment"
	EventNewGroupBuy           EventName = "new_group_buy"
	EventTyping                EventName = "typing"
	EventStopTyping            EventName = "stop_typing"
)

// Event is the wire envelope delivered to every subscribed connection.
type Event struct {
	Topic    string    `json:"topic"`
	Event    EventName `json:"event"`
	Data     any       `json:"data,omitempty"`
	ServerTS time.Time `json:"server_ts"`
}

func UserTopic(userID uuid.UUID) string {
	return "user:" + userID.String()
}

func RoleTopic(role string) string {
	return "role:" + role
}

func RegionTopic(region string) string {
	return "region:" + region
}

func ChatTopic(conversationID uuid.UUID) string {
	return "chat:" + conversationID.String()
}

func ShipmentTopic(shipmentID uuid.UUID) string {
	return "shipment:" + shipmentID.String()
}
