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

type VehicleRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewVehicleRepository(db *gorm.DB, log *zap.Logger) ports.VehicleRepository {
	return &VehicleRepository{
		db:  db,
		log: log,
	}
}

func (r *VehicleRepository) Save(ctx context.Context, v *domain.Vehicle) error {
	result := r.db.WithContext(ctx).Save(v)
	if result.Error != nil {
		r.log.Error("Failed to save vehicle", zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *VehicleRepository) FindByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	result := r.db.WithContext(ctx).Preload("Station").First(&v, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &v, nil
}

func (r *VehicleRepository) FindBySerial(ctx context.Context, serial string) (*domain.Vehicle, error) {
	var v domain.Vehicle
	result := r.db.WithContext(ctx).Preload("Station").First(&v, "serial_code = ?", serial)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &v, nil
}

func (r *VehicleRepository) FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.Vehicle, error) {
	var vehicles []domain.Vehicle
	query := r.db.WithContext(ctx).Preload("Station")
	if status, ok := filter["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if stationID, ok := filter["station_id"]; ok {
		query = query.Where("station_id = ?", stationID)
	}

	result := query.Find(&vehicles)
	if result.Error != nil {
		return nil, result.Error
	}
	return vehicles, nil
}

// UpdateStatusGuarded performs the conditional status write every vehicle
// transition goes through. The WHERE clause re-checks the expected status
// so two racing requests cannot both win the same vehicle.
func (r *VehicleRepository) UpdateStatusGuarded(ctx context.Context, id string, expected, next domain.VehicleStatus, stationID, reservedBy *string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Vehicle{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]interface{}{
			"status":      next,
			"station_id":  stationID,
			"reserved_by": reservedBy,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		r.log.Error("Failed guarded vehicle status update",
			zap.String("vehicle_id", id),
			zap.String("expected", string(expected)),
			zap.String("next", string(next)),
			zap.Error(result.Error),
		)
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
