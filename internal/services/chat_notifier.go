package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jumlahub/jumla-backend/internal/realtime"
	"github.com/jumlahub/jumla-backend/internal/types"
)

// ChatNotifier is the conversation side of the notification bridge. Calls
// are nil-safe and never return errors to the aggregate.
type ChatNotifier interface {
	ConversationStarted(conv *types.Conversation, initiator uuid.UUID)
	MessageCreated(conv *types.Conversation, msg *types.Message)
	OfferCreated(conv *types.Conversation, msg *types.Message)
	OfferUpdated(conv *types.Conversation, msg *types.Message)
}

type chatNotifier struct {
	emit Emitter
	push PushNotifier
}

func NewChatNotifier(emit Emitter, push PushNotifier) ChatNotifier {
	return &chatNotifier{emit: emit, push: push}
}

func (n *chatNotifier) ConversationStarted(conv *types.Conversation, initiator uuid.UUID) {
	if n == nil || n.emit == nil || conv == nil {
		return
	}
	data := map[string]any{"conversation": conv}
	for _, p := range conv.Participants {
		if p == initiator {
			continue
		}
		n.emit.Emit(context.Background(), realtime.Event{
			Topic: realtime.UserTopic(p),
			Event: realtime.EventNewChat,
			Data:  data,
		})
	}
}

func (n *chatNotifier) MessageCreated(conv *types.Conversation, msg *types.Message) {
	n.fanOutMessage(conv, msg, realtime.EventNewMessage)
	n.pushToOthers(conv, msg, "New message", previewContent(msg))
}

func (n *chatNotifier) OfferCreated(conv *types.Conversation, msg *types.Message) {
	n.fanOutMessage(conv, msg, realtime.EventNewOffer)
	n.pushToOthers(conv, msg, "New offer", previewContent(msg))
}

func (n *chatNotifier) OfferUpdated(conv *types.Conversation, msg *types.Message) {
	if n == nil || n.emit == nil || conv == nil || msg == nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.Event{
		Topic: realtime.ChatTopic(conv.ID),
		Event: realtime.EventOfferUpdated,
		Data:  map[string]any{"conversation_id": conv.ID, "message": msg},
	})
	for _, p := range conv.Participants {
		n.emit.Emit(context.Background(), realtime.Event{
			Topic: realtime.UserTopic(p),
			Event: realtime.EventOfferUpdated,
			Data:  map[string]any{"conversation_id": conv.ID, "message": msg},
		})
	}
}

// fanOutMessage publishes to the conversation topic and to every other
// participant's identity topic, so peers not currently joined to the
// conversation still learn about it.
func (n *chatNotifier) fanOutMessage(conv *types.Conversation, msg *types.Message, event realtime.EventName) {
	if n == nil || n.emit == nil || conv == nil || msg == nil {
		return
	}
	data := map[string]any{"conversation_id": conv.ID, "message": msg}
	n.emit.Emit(context.Background(), realtime.Event{
		Topic: realtime.ChatTopic(conv.ID),
		Event: event,
		Data:  data,
	})
	for _, p := range conv.Participants {
		if p == msg.SenderID {
			continue
		}
		n.emit.Emit(context.Background(), realtime.Event{
			Topic: realtime.UserTopic(p),
			Event: event,
			Data:  data,
		})
	}
}

func (n *chatNotifier) pushToOthers(conv *types.Conversation, msg *types.Message, title, body string) {
	if n == nil || n.push == nil || conv == nil || msg == nil {
		return
	}
	for _, p := range conv.Participants {
		if p == msg.SenderID {
			continue
		}
		go func(userID uuid.UUID) {
			_ = n.push.Notify(context.Background(), userID, title, body)
		}(p)
	}
}

func previewContent(msg *types.Message) string {
	if msg.Type == types.MessageTypeOffer {
		if offer := msg.Offer.Data(); offer != nil {
			return fmt.Sprintf("Offer: %.2f x %d", offer.Amount, offer.Quantity)
		}
	}
	return msg.Content
}
