package services

import (
	"context"
	"errors"
	"fmt"
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

// Distance to the dropoff target below which an in-transit shipment is
// automatically moved to near_destination.
const nearDestinationRadiusMeters = 1000.0

const trackingCodeAttempts = 5

// shipmentTransitions is the status state machine: a missing key is a
// terminal state, a missing value an undefined transition.
var shipmentTransitions = map[string][]string{
	types.ShipmentStatusPending:         {types.ShipmentStatusDriverAssigned, types.ShipmentStatusPickedUp, types.ShipmentStatusFailed, types.ShipmentStatusReturned},
	types.ShipmentStatusDriverAssigned:  {types.ShipmentStatusPickedUp, types.ShipmentStatusInTransit, types.ShipmentStatusFailed, types.ShipmentStatusReturned},
	types.ShipmentStatusPickedUp:        {types.ShipmentStatusInTransit, types.ShipmentStatusDelivered, types.ShipmentStatusFailed, types.ShipmentStatusReturned},
	types.ShipmentStatusInTransit:       {types.ShipmentStatusNearDestination, types.ShipmentStatusDelivered, types.ShipmentStatusFailed, types.ShipmentStatusReturned},
	types.ShipmentStatusNearDestination: {types.ShipmentStatusDelivered, types.ShipmentStatusFailed, types.ShipmentStatusReturned},
}

type CreateShipmentInput struct {
	TransactionID uuid.UUID
	BuyerID       uuid.UUID
	SellerID      uuid.UUID
	Pickup        types.ShipmentStop
	Dropoff       types.ShipmentStop
	Package       types.PackageInfo
	Urgent        bool
	Insurance     bool
	ColdChain     bool
}

// ShipmentService owns the shipment aggregate: the tracking-event log, the
// status state machine, the geofence check, and the pricing calculator.
type ShipmentService interface {
	Create(ctx context.Context, actor uuid.UUID, in CreateShipmentInput) (*types.Shipment, error)
	Get(ctx context.Context, shipmentID uuid.UUID) (*types.Shipment, error)
	TrackByNumber(ctx context.Context, trackingNumber string) (*types.Shipment, error)
	History(ctx context.Context, shipmentID uuid.UUID) ([]*types.TrackingEvent, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Shipment, error)
	AssignDriver(ctx context.Context, shipmentID, driverID, actor uuid.UUID) (*types.Shipment, error)
	RecordTrackingEvent(ctx context.Context, shipmentID uuid.UUID, status string, lat, lng *float64, description string, actor uuid.UUID) (*types.Shipment, error)
	UpdateLocation(ctx context.Context, shipmentID uuid.UUID, lat, lng float64, actor uuid.UUID) (*types.Shipment, error)
	AttachProofOfDelivery(ctx context.Context, shipmentID uuid.UUID, proofType, proofValue string, actor uuid.UUID) (*types.Shipment, error)
	Rate(ctx context.Context, shipmentID, actor uuid.UUID, score int, comment string) (*types.Shipment, error)
	Quote(in QuoteInput) QuoteResult
}

type shipmentService struct {
	db        *gorm.DB
	log       *logger.Logger
	shipments repos.ShipmentRepo
	events    repos.TrackingEventRepo
	notifier  ShipmentNotifier
	locks     keyMutex
	now       func() time.Time
}

func NewShipmentService(db *gorm.DB, log *logger.Logger, shipments repos.ShipmentRepo, events repos.TrackingEventRepo, notifier ShipmentNotifier) ShipmentService {
	return &shipmentService{
		db:        db,
		log:       log.With("service", "ShipmentService"),
		shipments: shipments,
		events:    events,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (ss *shipmentService) Create(ctx context.Context, actor uuid.UUID, in CreateShipmentInput) (*types.Shipment, error) {
	if in.TransactionID == uuid.Nil {
		return nil, apierr.Validation("transaction id is required")
	}
	if in.BuyerID == uuid.Nil || in.SellerID == uuid.Nil {
		return nil, apierr.Validation("buyer and seller are required")
	}
	if in.Package.WeightKG <= 0 {
		return nil, apierr.Validation("package weight must be positive")
	}
	if strings.TrimSpace(in.Pickup.Address) == "" || strings.TrimSpace(in.Dropoff.Address) == "" {
		return nil, apierr.Validation("pickup and dropoff addresses are required")
	}

	now := ss.now()
	distance := routeDistanceKM(in.Pickup, in.Dropoff)
	pricing := CalculatePrice(distance, in.Package.WeightKG, PricingOptions{
		Urgent:       in.Urgent,
		Insurance:    in.Insurance,
		ColdChain:    in.ColdChain,
		InsuredValue: in.Package.InsuredValue,
	})
	eta := EstimateDelivery(now, in.Urgent)

	var shipment *types.Shipment
	var lastErr error
	for attempt := 0; attempt < trackingCodeAttempts; attempt++ {
		candidate := &types.Shipment{
			ID:                uuid.New(),
			TransactionID:     in.TransactionID,
			BuyerID:           in.BuyerID,
			SellerID:          in.SellerID,
			Status:            types.ShipmentStatusPending,
			TrackingNumber:    NewTrackingCode(),
			Pickup:            datatypes.NewJSONType(in.Pickup),
			Dropoff:           datatypes.NewJSONType(in.Dropoff),
			Package:           datatypes.NewJSONType(in.Package),
			Pricing:           datatypes.NewJSONType(pricing),
			EstimatedDelivery: &eta,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		initial := &types.TrackingEvent{
			ID:          uuid.New(),
			ShipmentID:  candidate.ID,
			Status:      types.ShipmentStatusPending,
			Description: "Shipment created",
			ActorID:     actor,
			CreatedAt:   now,
		}
		lastErr = runInTx(ctx, ss.db, func(tx *gorm.DB) error {
			if err := ss.shipments.Create(ctx, tx, candidate); err != nil {
				return err
			}
			return ss.events.Create(ctx, tx, initial)
		})
		if lastErr == nil {
			shipment = candidate
			break
		}
		if !errors.Is(lastErr, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create shipment: %w", lastErr)
		}
		// tracking-number collision; regenerate and retry
	}
	if shipment == nil {
		return nil, fmt.Errorf("create shipment: %w", lastErr)
	}

	ss.notifier.ShipmentCreated(shipment)
	return shipment, nil
}

func (ss *shipmentService) Get(ctx context.Context, shipmentID uuid.UUID) (*types.Shipment, error) {
	return ss.getShipment(ctx, shipmentID)
}

// TrackByNumber resolves the tracking code printed on the label. Possession
// of the code is the capability, so there is no actor check.
func (ss *shipmentService) TrackByNumber(ctx context.Context, trackingNumber string) (*types.Shipment, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, apierr.Validation("tracking number is required")
	}
	shipment, err := ss.shipments.GetByTrackingNumber(ctx, nil, trackingNumber)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("no shipment with tracking number %s", trackingNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("load shipment by tracking number: %w", err)
	}
	return shipment, nil
}

func (ss *shipmentService) History(ctx context.Context, shipmentID uuid.UUID) ([]*types.TrackingEvent, error) {
	if _, err := ss.getShipment(ctx, shipmentID); err != nil {
		return nil, err
	}
	return ss.events.ListByShipment(ctx, nil, shipmentID)
}

func (ss *shipmentService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*types.Shipment, error) {
	return ss.shipments.ListByUser(ctx, nil, userID)
}

func (ss *shipmentService) AssignDriver(ctx context.Context, shipmentID, driverID, actor uuid.UUID) (*types.Shipment, error) {
	if driverID == uuid.Nil {
		return nil, apierr.Validation("driver id is required")
	}

	unlock := ss.locks.Lock(shipmentID)
	defer unlock()

	shipment, err := ss.getShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.Status != types.ShipmentStatusPending {
		return nil, apierr.InvalidState("cannot assign a driver to a %s shipment", shipment.Status)
	}
	shipment.DriverID = &driverID

	if err := ss.applyTrackingEvent(ctx, shipment, types.ShipmentStatusDriverAssigned, nil, nil, "Driver assigned", actor); err != nil {
		return nil, err
	}
	ss.notifier.DriverAssigned(shipment)
	return shipment, nil
}

// RecordTrackingEvent is the sole status mutator.
func (ss *shipmentService) RecordTrackingEvent(ctx context.Context, shipmentID uuid.UUID, status string, lat, lng *float64, description string, actor uuid.UUID) (*types.Shipment, error) {
	unlock := ss.locks.Lock(shipmentID)
	defer unlock()

	shipment, err := ss.getShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if err := ss.applyTrackingEvent(ctx, shipment, status, lat, lng, description, actor); err != nil {
		return nil, err
	}
	return shipment, nil
}

// UpdateLocation always moves currentLocation. When a dropoff target exists,
// the shipment is in transit, and the new coordinate falls inside the
// proximity radius, a near_destination event is emitted exactly once; the
// status guard keeps repeated updates inside the radius from re-firing it.
func (ss *shipmentService) UpdateLocation(ctx context.Context, shipmentID uuid.UUID, lat, lng float64, actor uuid.UUID) (*types.Shipment, error) {
	unlock := ss.locks.Lock(shipmentID)
	defer unlock()

	shipment, err := ss.getShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	now := ss.now()
	shipment.CurrentLocation = datatypes.NewJSONType(&types.GeoPoint{Lat: lat, Lng: lng, UpdatedAt: now})
	shipment.UpdatedAt = now

	dropoff := shipment.Dropoff.Data()
	if dropoff.HasCoordinates() && shipment.Status == types.ShipmentStatusInTransit {
		distanceM := HaversineKM(lat, lng, *dropoff.Lat, *dropoff.Lng) * 1000
		if distanceM <= nearDestinationRadiusMeters {
			if err := ss.applyTrackingEvent(ctx, shipment, types.ShipmentStatusNearDestination, &lat, &lng, "Driver is near the destination", actor); err != nil {
				return nil, err
			}
			ss.notifier.LocationUpdate(shipment)
			return shipment, nil
		}
	}

	if err := ss.shipments.Save(ctx, nil, shipment); err != nil {
		return nil, fmt.Errorf("save location: %w", err)
	}
	ss.notifier.LocationUpdate(shipment)
	return shipment, nil
}

// AttachProofOfDelivery records the proof and folds into a delivered
// tracking event.
func (ss *shipmentService) AttachProofOfDelivery(ctx context.Context, shipmentID uuid.UUID, proofType, proofValue string, actor uuid.UUID) (*types.Shipment, error) {
	if strings.TrimSpace(proofType) == "" || strings.TrimSpace(proofValue) == "" {
		return nil, apierr.Validation("proof type and value are required")
	}

	unlock := ss.locks.Lock(shipmentID)
	defer unlock()

	shipment, err := ss.getShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	shipment.ProofType = proofType
	shipment.ProofValue = proofValue

	if err := ss.applyTrackingEvent(ctx, shipment, types.ShipmentStatusDelivered, nil, nil, "Proof of delivery attached", actor); err != nil {
		return nil, err
	}
	return shipment, nil
}

// Rate records the buyer's one rating. Delivery status is deliberately not
// checked: ratings have always been accepted before completion.
func (ss *shipmentService) Rate(ctx context.Context, shipmentID, actor uuid.UUID, score int, comment string) (*types.Shipment, error) {
	if score < 1 || score > 5 {
		return nil, apierr.Validation("rating score must be between 1 and 5")
	}

	unlock := ss.locks.Lock(shipmentID)
	defer unlock()

	shipment, err := ss.getShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if actor != shipment.BuyerID {
		return nil, apierr.Authorization("only the buyer can rate a shipment")
	}
	if shipment.RatingScore != nil {
		return nil, apierr.InvalidState("shipment %s is already rated", shipmentID)
	}

	now := ss.now()
	shipment.RatingScore = &score
	shipment.RatingComment = comment
	shipment.RatedAt = &now
	shipment.UpdatedAt = now

	if err := ss.shipments.Save(ctx, nil, shipment); err != nil {
		return nil, fmt.Errorf("save rating: %w", err)
	}
	return shipment, nil
}

func (ss *shipmentService) Quote(in QuoteInput) QuoteResult {
	return Quote(in, ss.now())
}

// applyTrackingEvent validates the transition, appends the log entry, moves
// the status, and stamps the stop timestamps. Callers hold the shipment's
// lock.
func (ss *shipmentService) applyTrackingEvent(ctx context.Context, shipment *types.Shipment, status string, lat, lng *float64, description string, actor uuid.UUID) error {
	allowed, ok := shipmentTransitions[shipment.Status]
	if !ok {
		return apierr.InvalidState("shipment is already %s", shipment.Status)
	}
	if !lo.Contains(allowed, status) {
		return apierr.InvalidState("cannot move shipment from %s to %s", shipment.Status, status)
	}

	now := ss.now()
	event := &types.TrackingEvent{
		ID:          uuid.New(),
		ShipmentID:  shipment.ID,
		Status:      status,
		Lat:         lat,
		Lng:         lng,
		Description: description,
		ActorID:     actor,
		CreatedAt:   now,
	}

	shipment.Status = status
	shipment.UpdatedAt = now
	if lat != nil && lng != nil {
		shipment.CurrentLocation = datatypes.NewJSONType(&types.GeoPoint{Lat: *lat, Lng: *lng, UpdatedAt: now})
	}

	switch status {
	case types.ShipmentStatusPickedUp:
		pickup := shipment.Pickup.Data()
		pickup.ActualTime = &now
		shipment.Pickup = datatypes.NewJSONType(pickup)
	case types.ShipmentStatusDelivered:
		dropoff := shipment.Dropoff.Data()
		dropoff.ActualTime = &now
		shipment.Dropoff = datatypes.NewJSONType(dropoff)
		shipment.ActualDelivery = &now
	}

	err := runInTx(ctx, ss.db, func(tx *gorm.DB) error {
		if err := ss.events.Create(ctx, tx, event); err != nil {
			return fmt.Errorf("append tracking event: %w", err)
		}
		if err := ss.shipments.Save(ctx, tx, shipment); err != nil {
			return fmt.Errorf("save shipment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	ss.notifier.DeliveryUpdate(shipment, event)
	return nil
}

func (ss *shipmentService) getShipment(ctx context.Context, shipmentID uuid.UUID) (*types.Shipment, error) {
	shipment, err := ss.shipments.GetByID(ctx, nil, shipmentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("shipment %s not found", shipmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("load shipment: %w", err)
	}
	return shipment, nil
}
