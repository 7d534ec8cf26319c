package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"thermo-monitor-backend/internal/model"
)

// UserRepository persists accounts.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Paginate(ctx context.Context, req PageRequest) (*Page[model.User], error)
	Create(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, user *model.User) error
}

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userRepo) Paginate(ctx context.Context, req PageRequest) (*Page[model.User], error) {
	return paginate[model.User](ctx, r.db, req, func(q *gorm.DB) *gorm.DB {
		return q.Order("id")
	})
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user %q: %w", user.Email, err)
	}
	return nil
}

// Delete removes the user together with everything owned through their devices.
func (r *userRepo) Delete(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&model.Device{}).Select("id").Where("user_id = ?", user.ID)
		if err := tx.Where("device_id IN (?)", owned).Delete(&model.Alert{}).Error; err != nil {
			return fmt.Errorf("failed to delete alerts of user %d: %w", user.ID, err)
		}
		if err := tx.Where("device_id IN (?)", owned).Delete(&model.SensorData{}).Error; err != nil {
			return fmt.Errorf("failed to delete readings of user %d: %w", user.ID, err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.Device{}).Error; err != nil {
			return fmt.Errorf("failed to delete devices of user %d: %w", user.ID, err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.PushSubscription{}).Error; err != nil {
			return fmt.Errorf("failed to delete subscriptions of user %d: %w", user.ID, err)
		}
		res := tx.Delete(&model.User{}, user.ID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user %d: %w", user.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
