package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

type UserRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserRepository(db *gorm.DB, log *zap.Logger) ports.UserRepository {
	return &UserRepository{
		db:  db,
		log: log,
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	result := r.db.WithContext(ctx).First(&u, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &u, nil
}

// CanReserve delegates the eligibility ruling to the puede_hacer_reservas
// stored function so the database stays the single authority on blocking
// conditions (debt, sanctions, open incidents).
func (r *UserRepository) CanReserve(ctx context.Context, userID string) (bool, error) {
	var allowed bool
	result := r.db.WithContext(ctx).
		Raw("SELECT puede_hacer_reservas(?)", userID).
		Scan(&allowed)
	if result.Error != nil {
		r.log.Error("Failed to evaluate reservation eligibility",
			zap.String("user_id", userID),
			zap.Error(result.Error),
		)
		return false, result.Error
	}
	return allowed, nil
}

func (r *UserRepository) HasActiveTrip(ctx context.Context, userID string) (bool, error) {
	var active bool
	result := r.db.WithContext(ctx).
		Raw("SELECT tiene_viaje_activo(?)", userID).
		Scan(&active)
	if result.Error != nil {
		r.log.Error("Failed to check active trip",
			zap.String("user_id", userID),
			zap.Error(result.Error),
		)
		return false, result.Error
	}
	return active, nil
}

func (r *UserRepository) ActiveTrip(ctx context.Context, userID string) (*domain.Trip, error) {
	var t domain.Trip
	result := r.db.WithContext(ctx).
		Raw("SELECT * FROM obtener_viaje_activo(?)", userID).
		Scan(&t)
	if result.Error != nil {
		return nil, result.Error
	}
	if t.ID == "" {
		return nil, nil
	}
	return &t, nil
}
