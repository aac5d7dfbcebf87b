package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

type ReservationRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewReservationRepository(db *gorm.DB, log *zap.Logger) ports.ReservationRepository {
	return &ReservationRepository{
		db:  db,
		log: log,
	}
}

func (r *ReservationRepository) Save(ctx context.Context, res *domain.Reservation) error {
	result := r.db.WithContext(ctx).Save(res)
	if result.Error != nil {
		r.log.Error("Failed to save reservation", zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var res domain.Reservation
	result := r.db.WithContext(ctx).First(&res, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &res, nil
}

func (r *ReservationRepository) FindByHolder(ctx context.Context, holderID string, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	query := r.db.WithContext(ctx).Where("holder_id = ?", holderID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	result := query.Order("created_at DESC").Find(&reservations)
	if result.Error != nil {
		return nil, result.Error
	}
	return reservations, nil
}

func (r *ReservationRepository) FindOpenByVehicleAndHolder(ctx context.Context, vehicleID, holderID string) (*domain.Reservation, error) {
	var res domain.Reservation
	result := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND holder_id = ? AND status IN ?",
			vehicleID, holderID, []domain.ReservationStatus{
				domain.ReservationStatusActive,
				domain.ReservationStatusScheduled,
			}).
		First(&res)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &res, nil
}

func (r *ReservationRepository) FindExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	result := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", domain.ReservationStatusActive, now).
		Find(&reservations)
	if result.Error != nil {
		return nil, result.Error
	}
	return reservations, nil
}

func (r *ReservationRepository) FindDueScheduled(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	result := r.db.WithContext(ctx).
		Where("status = ? AND activate_at <= ?", domain.ReservationStatusScheduled, now).
		Find(&reservations)
	if result.Error != nil {
		return nil, result.Error
	}
	return reservations, nil
}
