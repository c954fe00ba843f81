package app

import (
	"gorm.io/gorm"

	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/repos"
)

type Repos struct {
	Conversation  repos.ConversationRepo
	Message       repos.MessageRepo
	Shipment      repos.ShipmentRepo
	TrackingEvent repos.TrackingEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Conversation:  repos.NewConversationRepo(db, log),
		Message:       repos.NewMessageRepo(db, log),
		Shipment:      repos.NewShipmentRepo(db, log),
		TrackingEvent: repos.NewTrackingEventRepo(db, log),
	}
}
