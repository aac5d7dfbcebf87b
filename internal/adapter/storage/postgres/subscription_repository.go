package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigeb/internal/domain"
	"github.com/seu-repo/sigeb/internal/ports"
)

type SubscriptionRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewSubscriptionRepository(db *gorm.DB, log *zap.Logger) ports.SubscriptionRepository {
	return &SubscriptionRepository{
		db:  db,
		log: log,
	}
}

func (r *SubscriptionRepository) Save(ctx context.Context, s *domain.Subscription) error {
	result := r.db.WithContext(ctx).Save(s)
	if result.Error != nil {
		r.log.Error("Failed to save subscription", zap.Error(result.Error))
		return result.Error
	}
	return nil
}

func (r *SubscriptionRepository) FindActiveByUser(ctx context.Context, userID string) (*domain.Subscription, error) {
	var s domain.Subscription
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.SubscriptionStatusActive).
		Order("expires_at DESC").
		First(&s)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &s, nil
}
