package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

type TripRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewTripRepository(db *gorm.DB, log *zap.Logger) ports.TripRepository {
	return &TripRepository{
		db:  db,
		log: log,
	}
}

func (r *TripRepository) Save(ctx context.Context, t *domain.Trip) error {
	result := r.db.WithContext(ctx).Save(t)
	if result.Error != nil {
		r.log.Error("Failed to save trip", zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *TripRepository) FindByID(ctx context.Context, id string) (*domain.Trip, error) {
	var t domain.Trip
	result := r.db.WithContext(ctx).First(&t, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &t, nil
}

func (r *TripRepository) FindOpenByVehicle(ctx context.Context, vehicleID string) (*domain.Trip, error) {
	var t domain.Trip
	result := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status = ?", vehicleID, domain.TripStatusInProgress).
		First(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &t, nil
}

func (r *TripRepository) FindByHolder(ctx context.Context, holderID string, limit, offset int) ([]domain.Trip, error) {
	var trips []domain.Trip
	result := r.db.WithContext(ctx).
		Where("holder_id = ?", holderID).
		Order("start_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&trips)
	if result.Error != nil {
		return nil, result.Error
	}
	return trips, nil
}
