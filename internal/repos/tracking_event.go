package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/types"
)

type TrackingEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, event *types.TrackingEvent) error
	ListByShipment(ctx context.Context, tx *gorm.DB, shipmentID uuid.UUID) ([]*types.TrackingEvent, error)
}

type trackingEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrackingEventRepo(db *gorm.DB, baseLog *logger.Logger) TrackingEventRepo {
	return &trackingEventRepo{db: db, log: baseLog.With("repo", "TrackingEventRepo")}
}

func (tr *trackingEventRepo) Create(ctx context.Context, tx *gorm.DB, event *types.TrackingEvent) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	return transaction.WithContext(ctx).Create(event).Error
}

func (tr *trackingEventRepo) ListByShipment(ctx context.Context, tx *gorm.DB, shipmentID uuid.UUID) ([]*types.TrackingEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.TrackingEvent
	if err := transaction.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
