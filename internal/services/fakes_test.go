package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/types"
)

func newTestLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// fakeConversationRepo keeps copies so that a caller mutating a loaded row
// without saving does not leak into the store, mirroring a real database.
type fakeConversationRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]types.Conversation
	// onCreate, when set, runs under the store lock before the insert and
	// may veto it, e.g. with gorm.ErrDuplicatedKey.
	onCreate func(conv *types.Conversation) error
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{items: map[uuid.UUID]types.Conversation{}}
}

func (f *fakeConversationRepo) Create(ctx context.Context, tx *gorm.DB, conv *types.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onCreate != nil {
		if err := f.onCreate(conv); err != nil {
			return err
		}
	}
	f.items[conv.ID] = *conv
	return nil
}

func (f *fakeConversationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := conv
	return &out, nil
}

func (f *fakeConversationRepo) FindDirect(ctx context.Context, tx *gorm.DB, a, b uuid.UUID, productID *uuid.UUID) (*types.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conv := range f.items {
		if conv.Type != types.ConversationTypeDirect {
			continue
		}
		if !conv.HasParticipant(a) || !conv.HasParticipant(b) {
			continue
		}
		if productID == nil && conv.ProductID != nil {
			continue
		}
		if productID != nil && (conv.ProductID == nil || *conv.ProductID != *productID) {
			continue
		}
		out := conv
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeConversationRepo) ListByParticipant(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Conversation
	for _, conv := range f.items {
		if conv.HasParticipant(userID) {
			c := conv
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) Save(ctx context.Context, tx *gorm.DB, conv *types.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[conv.ID] = *conv
	return nil
}

type fakeMessageRepo struct {
	mu    sync.Mutex
	order []uuid.UUID
	items map[uuid.UUID]types.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{items: map[uuid.UUID]types.Message{}}
}

func (f *fakeMessageRepo) Create(ctx context.Context, tx *gorm.DB, msg *types.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, msg.ID)
	f.items[msg.ID] = *msg
	return nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := msg
	return &out, nil
}

func (f *fakeMessageRepo) ListByConversation(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, limit int) ([]*types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Message
	for _, id := range f.order {
		msg := f.items[id]
		if msg.ConversationID != conversationID {
			continue
		}
		m := msg
		out = append(out, &m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) ListUnread(ctx context.Context, tx *gorm.DB, conversationID, actorID uuid.UUID) ([]*types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Message
	for _, id := range f.order {
		msg := f.items[id]
		if msg.ConversationID != conversationID || msg.SenderID == actorID || msg.ReadByUser(actorID) {
			continue
		}
		m := msg
		out = append(out, &m)
	}
	return out, nil
}

func (f *fakeMessageRepo) Save(ctx context.Context, tx *gorm.DB, msg *types.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[msg.ID] = *msg
	return nil
}

type fakeShipmentRepo struct {
	mu          sync.Mutex
	order       []uuid.UUID
	items       map[uuid.UUID]types.Shipment
	failCreates int
	createCalls int
}

func newFakeShipmentRepo() *fakeShipmentRepo {
	return &fakeShipmentRepo{items: map[uuid.UUID]types.Shipment{}}
}

func (f *fakeShipmentRepo) Create(ctx context.Context, tx *gorm.DB, shipment *types.Shipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failCreates > 0 {
		f.failCreates--
		return gorm.ErrDuplicatedKey
	}
	f.order = append(f.order, shipment.ID)
	f.items[shipment.ID] = *shipment
	return nil
}

func (f *fakeShipmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Shipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	shipment, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := shipment
	return &out, nil
}

func (f *fakeShipmentRepo) GetByTrackingNumber(ctx context.Context, tx *gorm.DB, trackingNumber string) (*types.Shipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, shipment := range f.items {
		if shipment.TrackingNumber == trackingNumber {
			out := shipment
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeShipmentRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Shipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Shipment
	for _, id := range f.order {
		shipment := f.items[id]
		if shipment.BuyerID == userID || shipment.SellerID == userID ||
			(shipment.DriverID != nil && *shipment.DriverID == userID) {
			s := shipment
			out = append(out, &s)
		}
	}
	return out, nil
}

func (f *fakeShipmentRepo) Save(ctx context.Context, tx *gorm.DB, shipment *types.Shipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[shipment.ID] = *shipment
	return nil
}

type fakeTrackingEventRepo struct {
	mu     sync.Mutex
	events []types.TrackingEvent
}

func newFakeTrackingEventRepo() *fakeTrackingEventRepo {
	return &fakeTrackingEventRepo{}
}

func (f *fakeTrackingEventRepo) Create(ctx context.Context, tx *gorm.DB, event *types.TrackingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeTrackingEventRepo) ListByShipment(ctx context.Context, tx *gorm.DB, shipmentID uuid.UUID) ([]*types.TrackingEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.TrackingEvent
	for i := range f.events {
		if f.events[i].ShipmentID == shipmentID {
			e := f.events[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

// recordingChatNotifier counts notifications instead of fanning out.
type recordingChatNotifier struct {
	mu                   sync.Mutex
	conversationsStarted int
	messagesCreated      int
	offersCreated        int
	offersUpdated        int
}

func (r *recordingChatNotifier) ConversationStarted(conv *types.Conversation, initiator uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversationsStarted++
}

func (r *recordingChatNotifier) MessageCreated(conv *types.Conversation, msg *types.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messagesCreated++
}

func (r *recordingChatNotifier) OfferCreated(conv *types.Conversation, msg *types.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offersCreated++
}

func (r *recordingChatNotifier) OfferUpdated(conv *types.Conversation, msg *types.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offersUpdated++
}

type recordingShipmentNotifier struct {
	mu              sync.Mutex
	created         int
	driverAssigned  int
	deliveryUpdates []string
	locationUpdates int
	groupBuys       int
}

func (r *recordingShipmentNotifier) ShipmentCreated(shipment *types.Shipment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
}

func (r *recordingShipmentNotifier) DriverAssigned(shipment *types.Shipment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.driverAssigned++
}

func (r *recordingShipmentNotifier) DeliveryUpdate(shipment *types.Shipment, event *types.TrackingEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveryUpdates = append(r.deliveryUpdates, event.Status)
}

func (r *recordingShipmentNotifier) LocationUpdate(shipment *types.Shipment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locationUpdates++
}

func (r *recordingShipmentNotifier) GroupBuyOpened(region string, payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groupBuys++
}
