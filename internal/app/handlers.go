package app

import (
	"github.com/jumlahub/jumla-backend/internal/handlers"
	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/realtime"
)

type Handlers struct {
	WS       *handlers.WSHandler
	Chat     *handlers.ChatHandler
	Shipment *handlers.ShipmentHandler
	Quote    *handlers.QuoteHandler
	GroupBuy *handlers.GroupBuyHandler
}

func wireHandlers(log *logger.Logger, cfg Config, serviceset Services, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		WS:       handlers.NewWSHandler(hub, serviceset.Auth, serviceset.Chat, serviceset.Shipment, log, cfg.HeartbeatInterval, cfg.OutboundBuffer),
		Chat:     handlers.NewChatHandler(serviceset.Chat),
		Shipment: handlers.NewShipmentHandler(serviceset.Shipment),
		Quote:    handlers.NewQuoteHandler(serviceset.Shipment),
		GroupBuy: handlers.NewGroupBuyHandler(serviceset.ShipmentNotifier),
	}
}
