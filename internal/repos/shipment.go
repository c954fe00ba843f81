package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/types"
)

type ShipmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, shipment *types.Shipment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Shipment, error)
	GetByTrackingNumber(ctx context.Context, tx *gorm.DB, trackingNumber string) (*types.Shipment, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Shipment, error)
	Save(ctx context.Context, tx *gorm.DB, shipment *types.Shipment) error
}

type shipmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShipmentRepo(db *gorm.DB, baseLog *logger.Logger) ShipmentRepo {
	return &shipmentRepo{db: db, log: baseLog.With("repo", "ShipmentRepo")}
}

func (sr *shipmentRepo) Create(ctx context.Context, tx *gorm.DB, shipment *types.Shipment) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).Create(shipment).Error
}

func (sr *shipmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Shipment, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var shipment types.Shipment
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&shipment).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (sr *shipmentRepo) GetByTrackingNumber(ctx context.Context, tx *gorm.DB, trackingNumber string) (*types.Shipment, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var shipment types.Shipment
	if err := transaction.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		First(&shipment).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (sr *shipmentRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Shipment, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Shipment
	if err := transaction.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ? OR driver_id = ?", userID, userID, userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *shipmentRepo) Save(ctx context.Context, tx *gorm.DB, shipment *types.Shipment) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).Save(shipment).Error
}
