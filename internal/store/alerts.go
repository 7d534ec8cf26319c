package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"thermo-monitor-backend/internal/model"
)

// AlertRepository persists alerts. Listing methods return active alerts only.
type AlertRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Alert, error)
	// FindByUser returns the alert only when it belongs to one of userID's devices.
	FindByUser(ctx context.Context, userID, alertID uint) (*model.Alert, error)
	PaginateByDevice(ctx context.Context, deviceID uint, req PageRequest) (*Page[model.Alert], error)
	PaginateByUser(ctx context.Context, userID uint, req PageRequest) (*Page[model.Alert], error)
	ActiveByType(ctx context.Context, alertType model.AlertType) ([]model.Alert, error)
	Create(ctx context.Context, alert *model.Alert) error
	Resolve(ctx context.Context, alert *model.Alert, at time.Time) error
	Delete(ctx context.Context, alert *model.Alert) error
}

type alertRepo struct {
	db *gorm.DB
}

func (r *alertRepo) FindByID(ctx context.Context, id uint) (*model.Alert, error) {
	var alert model.Alert
	if err := r.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &alert, nil
}

func (r *alertRepo) FindByUser(ctx context.Context, userID, alertID uint) (*model.Alert, error) {
	var alert model.Alert
	if err := r.db.WithContext(ctx).
		Joins("JOIN devices ON devices.id = alerts.device_id").
		Where("alerts.id = ? AND devices.user_id = ?", alertID, userID).
		First(&alert).Error; err != nil {
		return nil, notFound(err)
	}
	return &alert, nil
}

func (r *alertRepo) PaginateByDevice(ctx context.Context, deviceID uint, req PageRequest) (*Page[model.Alert], error) {
	return paginate[model.Alert](ctx, r.db, req, func(q *gorm.DB) *gorm.DB {
		return q.Where("device_id = ? AND resolved_at IS NULL", deviceID).
			Order("created_at DESC").
			Order("id DESC")
	})
}

func (r *alertRepo) PaginateByUser(ctx context.Context, userID uint, req PageRequest) (*Page[model.Alert], error) {
	return paginate[model.Alert](ctx, r.db, req, func(q *gorm.DB) *gorm.DB {
		return q.Joins("JOIN devices ON devices.id = alerts.device_id").
			Where("devices.user_id = ? AND alerts.resolved_at IS NULL", userID).
			Order("alerts.created_at DESC").
			Order("alerts.id DESC")
	})
}

func (r *alertRepo) ActiveByType(ctx context.Context, alertType model.AlertType) ([]model.Alert, error) {
	var alerts []model.Alert
	if err := r.db.WithContext(ctx).
		Where("alert_type = ? AND resolved_at IS NULL", alertType).
		Order("created_at DESC").
		Order("id DESC").
		Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch %s alerts: %w", alertType, err)
	}
	return alerts, nil
}

func (r *alertRepo) Create(ctx context.Context, alert *model.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

// Resolve overwrites resolved_at unconditionally.
func (r *alertRepo) Resolve(ctx context.Context, alert *model.Alert, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Alert{}).Where("id = ?", alert.ID).Update("resolved_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *alertRepo) Delete(ctx context.Context, alert *model.Alert) error {
	res := r.db.WithContext(ctx).Delete(&model.Alert{}, alert.ID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete alert %d: %w", alert.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
