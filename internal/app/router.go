package app

import (
	"github.com/gin-gonic/gin"

	"github.com/jumlahub/jumla-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:  mw.Auth,
		WSHandler:       handlerset.WS,
		ChatHandler:     handlerset.Chat,
		ShipmentHandler: handlerset.Shipment,
		QuoteHandler:    handlerset.Quote,
		GroupBuyHandler: handlerset.GroupBuy,
		AllowOrigins:    cfg.AllowOrigins,
	})
}
