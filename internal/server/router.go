package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jumlahub/jumla-backend/internal/handlers"
	"github.com/jumlahub/jumla-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware  *middleware.AuthMiddleware
	WSHandler       *handlers.WSHandler
	ChatHandler     *handlers.ChatHandler
	ShipmentHandler *handlers.ShipmentHandler
	QuoteHandler    *handlers.QuoteHandler
	GroupBuyHandler *handlers.GroupBuyHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	// Tracking-code lookup; the code itself is the capability.
	router.GET("/track/:code", cfg.ShipmentHandler.Track)
	// The websocket endpoint authenticates before upgrading, so it stays
	// outside the middleware chain.
	router.GET("/ws", cfg.WSHandler.Serve)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	// Chat
	api.POST("/conversations", cfg.ChatHandler.StartConversation)
	api.GET("/conversations", cfg.ChatHandler.ListConversations)
	api.GET("/conversations/:id/messages", cfg.ChatHandler.ListMessages)
	api.POST("/conversations/:id/messages", cfg.ChatHandler.PostMessage)
	api.POST("/conversations/:id/read", cfg.ChatHandler.MarkRead)
	api.POST("/conversations/:id/offers", cfg.ChatHandler.MakeOffer)
	api.PATCH("/conversations/:id/offers/:messageID", cfg.ChatHandler.RespondToOffer)
	api.DELETE("/conversations/:id/messages/:messageID", cfg.ChatHandler.DeleteMessage)
	// Shipments
	api.POST("/shipments", cfg.ShipmentHandler.Create)
	api.GET("/shipments", cfg.ShipmentHandler.ListMine)
	api.GET("/shipments/:id", cfg.ShipmentHandler.Get)
	api.GET("/shipments/:id/tracking", cfg.ShipmentHandler.History)
	api.POST("/shipments/:id/assign", cfg.ShipmentHandler.AssignDriver)
	api.POST("/shipments/:id/tracking", cfg.ShipmentHandler.RecordTrackingEvent)
	api.POST("/shipments/:id/location", cfg.ShipmentHandler.UpdateLocation)
	api.POST("/shipments/:id/proof", cfg.ShipmentHandler.AttachProof)
	api.POST("/shipments/:id/rating", cfg.ShipmentHandler.Rate)
	// Quotes
	api.POST("/quotes", cfg.QuoteHandler.Quote)
	// Group buys (announcement passthrough)
	api.POST("/group-buys/announce", cfg.GroupBuyHandler.Announce)

	return router
}
