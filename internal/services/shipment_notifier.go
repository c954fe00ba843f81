package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/jumlahub/jumla-backend/internal/realtime"
	"github.com/jumlahub/jumla-backend/internal/types"
)

// ShipmentNotifier is the delivery side of the notification bridge.
type ShipmentNotifier interface {
	ShipmentCreated(shipment *types.Shipment)
	DriverAssigned(shipment *types.Shipment)
	DeliveryUpdate(shipment *types.Shipment, event *types.TrackingEvent)
	LocationUpdate(shipment *types.Shipment)
	GroupBuyOpened(region string, payload map[string]any)
}

type shipmentNotifier struct {
	emit Emitter
	push PushNotifier
}

func NewShipmentNotifier(emit Emitter, push PushNotifier) ShipmentNotifier {
	return &shipmentNotifier{emit: emit, push: push}
}

// ShipmentCreated announces an available delivery to the driver pool, and to
// the pickup region's drivers when the stop carries a region.
func (n *shipmentNotifier) ShipmentCreated(shipment *types.Shipment) {
	if n == nil || n.emit == nil || shipment == nil {
		return
	}
	data := map[string]any{"shipment": shipment}
	n.emit.Emit(context.Background(), realtime.Event{
		Topic: realtime.RoleTopic("driver"),
		Event: realtime.EventNewDeliveryAssignment,
		Data:  data,
	})
	if region := shipment.Pickup.Data().Region; region != "" {
		n.emit.Emit(context.Background(), realtime.Event{
			Topic: realtime.RegionTopic(region),
			Event: realtime.EventNewDeliveryAssignment,
			Data:  data,
		})
	}
}

func (n *shipmentNotifier) DriverAssigned(shipment *types.Shipment) {
	if n == nil || n.emit == nil || shipment == nil || shipment.DriverID == nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.Event{
		Topic: realtime.UserTopic(*shipment.DriverID),
		Event: realtime.EventNewDeliveryAssignment,
		Data:  map[string]any{"shipment": shipment},
	})
	if n.push != nil {
		driverID := *shipment.DriverID
		go func() {
			_ = n.push.Notify(context.Background(), driverID, "New delivery", "You have been assigned a delivery: "+shipment.TrackingNumber)
		}()
	}
}

func (n *shipmentNotifier) DeliveryUpdate(shipment *types.Shipment, event *types.TrackingEvent) {
	if n == nil || n.emit == nil || shipment == nil || event == nil {
		return
	}
	data := map[string]any{
		"shipment_id":     shipment.ID,
		"tracking_number": shipment.TrackingNumber,
		"status":          shipment.Status,
		"event":           event,
	}
	n.emit.Emit(context.Background(), realtime.Event{
		Topic: realtime.ShipmentTopic(shipment.ID),
		Event: realtime.EventDeliveryUpdate,
		Data:  data,
	})
	for _, userID := range []uuid.UUID{shipment.BuyerID, shipment.SellerID} {
		n.emit.Emit(context.Background(), realtime.Event{
			Topic: realtime.UserTopic(userID),
			Event: realtime.EventDeliveryUpdate,
			Data:  data,
		})
	}
}

func (n *shipmentNotifier) LocationUpdate(shipment *types.Shipment) {
	if n == nil || n.emit == nil || shipment == nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.Event{
		Topic: realtime.ShipmentTopic(shipment.ID),
		Event: realtime.EventLocationUpdate,
		Data: map[string]any{
			"shipment_id":      shipment.ID,
			"current_location": shipment.CurrentLocation.Data(),
		},
	})
}

// GroupBuyOpened is a region-scoped passthrough for the group-buy domain.
func (n *shipmentNotifier) GroupBuyOpened(region string, payload map[string]any) {
	if n == nil || n.emit == nil || region == "" {
		return
	}
	n.emit.Emit(context.Background(), realtime.Event{
		Topic: realtime.RegionTopic(region),
		Event: realtime.EventNewGroupBuy,
		Data:  payload,
	})
}
