package app

import (
	"gorm.io/gorm"

	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/realtime"
	"github.com/jumlahub/jumla-backend/internal/realtime/bus"
	"github.com/jumlahub/jumla-backend/internal/services"
)

type Services struct {
	Auth             services.AuthService
	Chat             services.ChatService
	Shipment         services.ShipmentService
	ShipmentNotifier services.ShipmentNotifier
}

// wireServices picks the emitter by deployment shape: with a Redis bus every
// event goes through the bus and comes back via the forwarder, so the mutation
// path never double-publishes locally.
func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, hub *realtime.Hub, eventBus bus.Bus) Services {
	log.Info("Wiring services...")

	var emitter services.Emitter
	if eventBus != nil {
		emitter = &services.RedisEmitter{Bus: eventBus, Log: log}
	} else {
		emitter = &services.HubEmitter{Hub: hub}
	}
	push := services.NewLogPushNotifier(log)

	chatNotifier := services.NewChatNotifier(emitter, push)
	shipmentNotifier := services.NewShipmentNotifier(emitter, push)

	return Services{
		Auth:             services.NewAuthService(log, cfg.JWTSecretKey),
		Chat:             services.NewChatService(db, log, reposet.Conversation, reposet.Message, chatNotifier),
		Shipment:         services.NewShipmentService(db, log, reposet.Shipment, reposet.TrackingEvent, shipmentNotifier),
		ShipmentNotifier: shipmentNotifier,
	}
}
