package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jumlahub/jumla-backend/internal/platform/apierr"
	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/repos"
	"github.com/jumlahub/jumla-backend/internal/types"
)

const lastMessagePreviewLimit = 100

// ChatService owns the conversation aggregate: the message log, the
// per-participant unread counters, and the offer negotiation sub-state.
// Mutations are serialized per conversation and committed atomically.
type ChatService interface {
	StartConversation(ctx context.Context, initiator, counterpart uuid.UUID, productID *uuid.UUID) (*types.Conversation, error)
	ListConversations(ctx context.Context, actor uuid.UUID) ([]*types.Conversation, error)
	ListMessages(ctx context.Context, conversationID, actor uuid.UUID, limit int) ([]*types.Message, error)
	PostMessage(ctx context.Context, conversationID, sender uuid.UUID, content, msgType string, extras map[string]any) (*types.Message, error)
	MarkRead(ctx context.Context, conversationID, actor uuid.UUID) error
	MakeOffer(ctx context.Context, conversationID, sender uuid.UUID, amount float64, quantity int, productID *uuid.UUID) (*types.Message, error)
	RespondToOffer(ctx context.Context, conversationID, messageID, actor uuid.UUID, status string, counterAmount *float64) (*types.Message, error)
	DeleteMessage(ctx context.Context, conversationID, messageID, actor uuid.UUID) error
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
}

type chatService struct {
	db            *gorm.DB
	log           *logger.Logger
	conversations repos.ConversationRepo
	messages      repos.MessageRepo
	notifier      ChatNotifier
	locks         keyMutex
}

func NewChatService(db *gorm.DB, log *logger.Logger, conversations repos.ConversationRepo, messages repos.MessageRepo, notifier ChatNotifier) ChatService {
	return &chatService{
		db:            db,
		log:           log.With("service", "ChatService"),
		conversations: conversations,
		messages:      messages,
		notifier:      notifier,
	}
}

// StartConversation is idempotent: the existing direct conversation for the
// same pair and product is returned when one exists. The conversation lock
// cannot serialize this (the row may not exist yet), so concurrent starts are
// serialized on a key derived from the pair, and a unique-index violation
// from a racing instance falls back to that instance's row.
func (cs *chatService) StartConversation(ctx context.Context, initiator, counterpart uuid.UUID, productID *uuid.UUID) (*types.Conversation, error) {
	if initiator == uuid.Nil || counterpart == uuid.Nil {
		return nil, apierr.Validation("both participants are required")
	}
	if initiator == counterpart {
		return nil, apierr.Validation("cannot start a conversation with yourself")
	}

	unlock := cs.locks.Lock(pairLockKey(initiator, counterpart, productID))
	defer unlock()

	existing, err := cs.conversations.FindDirect(ctx, nil, initiator, counterpart, productID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find direct conversation: %w", err)
	}

	participants := []uuid.UUID{initiator, counterpart}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].String() < participants[j].String()
	})

	now := time.Now().UTC()
	conv := &types.Conversation{
		ID:           uuid.New(),
		Type:         types.ConversationTypeDirect,
		ProductID:    productID,
		Participants: participants,
		UnreadCount: datatypes.NewJSONType(map[string]int{
			initiator.String():   0,
			counterpart.String(): 0,
		}),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := cs.conversations.Create(ctx, nil, conv); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			winner, ferr := cs.conversations.FindDirect(ctx, nil, initiator, counterpart, productID)
			if ferr != nil {
				return nil, fmt.Errorf("find direct conversation after duplicate: %w", ferr)
			}
			return winner, nil
		}
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	cs.notifier.ConversationStarted(conv, initiator)
	return conv, nil
}

// pairLockKey maps a participant pair (plus optional product scope) to a
// stable lock id, order-independent so both callers of the same pair collide.
func pairLockKey(a, b uuid.UUID, productID *uuid.UUID) uuid.UUID {
	low, high := a.String(), b.String()
	if high < low {
		low, high = high, low
	}
	key := low + "|" + high
	if productID != nil {
		key += "|" + productID.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}

func (cs *chatService) ListConversations(ctx context.Context, actor uuid.UUID) ([]*types.Conversation, error) {
	return cs.conversations.ListByParticipant(ctx, nil, actor)
}

func (cs *chatService) ListMessages(ctx context.Context, conversationID, actor uuid.UUID, limit int) ([]*types.Message, error) {
	conv, err := cs.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(actor) {
		return nil, apierr.Authorization("user %s is not a participant of conversation %s", actor, conversationID)
	}
	return cs.messages.ListByConversation(ctx, nil, conversationID, limit)
}

func (cs *chatService) PostMessage(ctx context.Context, conversationID, sender uuid.UUID, content, msgType string, extras map[string]any) (*types.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apierr.Validation("message content is required")
	}
	if msgType == "" {
		msgType = types.MessageTypeText
	}

	msg := &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       sender,
		Type:           msgType,
		Content:        content,
		Extras:         datatypes.JSONMap(extras),
		ReadBy:         datatypes.JSONSlice[uuid.UUID]{sender},
		CreatedAt:      time.Now().UTC(),
	}

	conv, err := cs.appendMessage(ctx, conversationID, msg)
	if err != nil {
		return nil, err
	}

	cs.notifier.MessageCreated(conv, msg)
	return msg, nil
}

// MakeOffer posts an offer-typed message; a fresh offer is always pending.
func (cs *chatService) MakeOffer(ctx context.Context, conversationID, sender uuid.UUID, amount float64, quantity int, productID *uuid.UUID) (*types.Message, error) {
	if amount <= 0 {
		return nil, apierr.Validation("offer amount must be positive")
	}
	if quantity < 1 {
		return nil, apierr.Validation("offer quantity must be at least 1")
	}

	msg := &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       sender,
		Type:           types.MessageTypeOffer,
		Content:        fmt.Sprintf("Offered %.2f for %d unit(s)", amount, quantity),
		Offer: datatypes.NewJSONType(&types.Offer{
			Amount:    amount,
			Quantity:  quantity,
			Status:    types.OfferStatusPending,
			ProductID: productID,
		}),
		ReadBy:    datatypes.JSONSlice[uuid.UUID]{sender},
		CreatedAt: time.Now().UTC(),
	}

	conv, err := cs.appendMessage(ctx, conversationID, msg)
	if err != nil {
		return nil, err
	}

	cs.notifier.OfferCreated(conv, msg)
	return msg, nil
}

// RespondToOffer transitions the target offer out of pending. A counter
// response only records intent on the original offer; the countering party
// issues new terms with a separate MakeOffer call.
func (cs *chatService) RespondToOffer(ctx context.Context, conversationID, messageID, actor uuid.UUID, status string, counterAmount *float64) (*types.Message, error) {
	switch status {
	case types.OfferStatusAccepted, types.OfferStatusRejected, types.OfferStatusCountered:
	default:
		return nil, apierr.Validation("invalid offer response %q", status)
	}

	unlock := cs.locks.Lock(conversationID)
	defer unlock()

	conv, err := cs.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(actor) {
		return nil, apierr.Authorization("user %s is not a participant of conversation %s", actor, conversationID)
	}

	msg, err := cs.getMessage(ctx, conversationID, messageID)
	if err != nil {
		return nil, err
	}
	offer := msg.Offer.Data()
	if msg.Type != types.MessageTypeOffer || offer == nil {
		return nil, apierr.InvalidState("message %s is not an offer", messageID)
	}
	if offer.Status != types.OfferStatusPending {
		return nil, apierr.InvalidState("offer is already %s", offer.Status)
	}

	offer.Status = status
	if status == types.OfferStatusCountered && counterAmount != nil {
		offer.CounterAmount = counterAmount
	}
	msg.Offer = datatypes.NewJSONType(offer)

	if err := cs.messages.Save(ctx, nil, msg); err != nil {
		return nil, fmt.Errorf("save offer response: %w", err)
	}

	cs.notifier.OfferUpdated(conv, msg)
	return msg, nil
}

// MarkRead zeroes the actor's unread counter and marks every previously
// unread message as read by the actor. Safe to call repeatedly.
func (cs *chatService) MarkRead(ctx context.Context, conversationID, actor uuid.UUID) error {
	unlock := cs.locks.Lock(conversationID)
	defer unlock()

	conv, err := cs.getConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(actor) {
		return apierr.Authorization("user %s is not a participant of conversation %s", actor, conversationID)
	}

	unreadMsgs, err := cs.messages.ListUnread(ctx, nil, conversationID, actor)
	if err != nil {
		return fmt.Errorf("list unread messages: %w", err)
	}

	counts := conv.UnreadCount.Data()
	if counts == nil {
		counts = map[string]int{}
	}
	if counts[actor.String()] == 0 && len(unreadMsgs) == 0 {
		return nil
	}
	counts[actor.String()] = 0
	conv.UnreadCount = datatypes.NewJSONType(counts)

	return runInTx(ctx, cs.db, func(tx *gorm.DB) error {
		for _, msg := range unreadMsgs {
			msg.ReadBy = append(msg.ReadBy, actor)
			if err := cs.messages.Save(ctx, tx, msg); err != nil {
				return fmt.Errorf("mark message read: %w", err)
			}
		}
		if err := cs.conversations.Save(ctx, tx, conv); err != nil {
			return fmt.Errorf("save conversation: %w", err)
		}
		return nil
	})
}

// DeleteMessage soft-deletes: content is immutable, only the flag flips.
func (cs *chatService) DeleteMessage(ctx context.Context, conversationID, messageID, actor uuid.UUID) error {
	unlock := cs.locks.Lock(conversationID)
	defer unlock()

	if _, err := cs.getConversation(ctx, conversationID); err != nil {
		return err
	}
	msg, err := cs.getMessage(ctx, conversationID, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != actor {
		return apierr.Authorization("only the sender can delete a message")
	}
	if msg.Deleted {
		return nil
	}
	msg.Deleted = true
	return cs.messages.Save(ctx, nil, msg)
}

func (cs *chatService) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	conv, err := cs.getConversation(ctx, conversationID)
	if err != nil {
		return false, err
	}
	return conv.HasParticipant(userID), nil
}

// appendMessage is the single-writer section shared by PostMessage and
// MakeOffer: membership check, log append, unread increments, and the
// lastMessage snapshot, all in one transaction.
func (cs *chatService) appendMessage(ctx context.Context, conversationID uuid.UUID, msg *types.Message) (*types.Conversation, error) {
	unlock := cs.locks.Lock(conversationID)
	defer unlock()

	conv, err := cs.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !lo.Contains(conv.Participants, msg.SenderID) {
		return nil, apierr.Authorization("user %s is not a participant of conversation %s", msg.SenderID, conversationID)
	}

	counts := conv.UnreadCount.Data()
	if counts == nil {
		counts = map[string]int{}
	}
	for _, p := range conv.Participants {
		if p != msg.SenderID {
			counts[p.String()]++
		}
	}
	conv.UnreadCount = datatypes.NewJSONType(counts)
	conv.LastMessage = datatypes.NewJSONType(types.LastMessage{
		Content:   truncateRunes(msg.Content, lastMessagePreviewLimit),
		SenderID:  msg.SenderID,
		Timestamp: msg.CreatedAt,
	})
	conv.UpdatedAt = msg.CreatedAt

	err = runInTx(ctx, cs.db, func(tx *gorm.DB) error {
		if err := cs.messages.Create(ctx, tx, msg); err != nil {
			return fmt.Errorf("append message: %w", err)
		}
		if err := cs.conversations.Save(ctx, tx, conv); err != nil {
			return fmt.Errorf("save conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (cs *chatService) getConversation(ctx context.Context, conversationID uuid.UUID) (*types.Conversation, error) {
	conv, err := cs.conversations.GetByID(ctx, nil, conversationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("conversation %s not found", conversationID)
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return conv, nil
}

func (cs *chatService) getMessage(ctx context.Context, conversationID, messageID uuid.UUID) (*types.Message, error) {
	msg, err := cs.messages.GetByID(ctx, nil, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("message %s not found", messageID)
	}
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	if msg.ConversationID != conversationID {
		return nil, apierr.NotFound("message %s not found in conversation %s", messageID, conversationID)
	}
	return msg, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
