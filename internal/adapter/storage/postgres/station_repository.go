package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

type StationRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStationRepository(db *gorm.DB, log *zap.Logger) ports.StationRepository {
	return &StationRepository{
		db:  db,
		log: log,
	}
}

func (r *StationRepository) Save(ctx context.Context, s *domain.Station) error {
	result := r.db.WithContext(ctx).Save(s)
	if result.Error != nil {
		r.log.Error("Failed to save station", zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *StationRepository) FindByID(ctx context.Context, id string) (*domain.Station, error) {
	var s domain.Station
	result := r.db.WithContext(ctx).First(&s, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &s, nil
}

func (r *StationRepository) FindAll(ctx context.Context) ([]domain.Station, error) {
	var stations []domain.Station
	result := r.db.WithContext(ctx).Order("name").Find(&stations)
	if result.Error != nil {
		return nil, result.Error
	}
	return stations, nil
}

// AdjustAvailable applies the delta atomically and clamps at zero so a
// double-processed booking event cannot drive the counter negative.
func (r *StationRepository) AdjustAvailable(ctx context.Context, id string, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Station{}).
		Where("id = ?", id).
		Update("available_count", gorm.Expr("GREATEST(available_count + ?, 0)", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
