package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"thermo-monitor-backend/internal/model"
)

// SubscriptionRepository persists browser push subscriptions.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *model.PushSubscription) error
	FindByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	FindByUser(ctx context.Context, userID uint) ([]model.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
}

type subscriptionRepo struct {
	db *gorm.DB
}

// Upsert creates the subscription or, for a known endpoint, replaces its keys and owner.
func (r *subscriptionRepo) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "user_id"}),
	}).Create(sub).Error
}

func (r *subscriptionRepo) FindByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := r.db.WithContext(ctx).Where("endpoint = ?", endpoint).First(&sub).Error; err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

func (r *subscriptionRepo) FindByUser(ctx context.Context, userID uint) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepo) Delete(ctx context.Context, endpoint string) error {
	return r.db.WithContext(ctx).Where("endpoint = ?", endpoint).Delete(&model.PushSubscription{}).Error
}
