package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"thermo-monitor-backend/internal/model"
)

// DeviceRepository persists devices and their ownership.
type DeviceRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Device, error)
	FindBySerialNumber(ctx context.Context, serial string) (*model.Device, error)
	// FindByUser returns the device only when userID owns it.
	FindByUser(ctx context.Context, userID, deviceID uint) (*model.Device, error)
	PaginateByUser(ctx context.Context, userID uint, req PageRequest) (*Page[model.Device], error)
	Create(ctx context.Context, device *model.Device) error
	SetActive(ctx context.Context, device *model.Device, active bool) error
	TransferOwnership(ctx context.Context, device *model.Device, newOwnerID uint) error
	Delete(ctx context.Context, device *model.Device) error
	ActiveDevices(ctx context.Context) ([]model.Device, error)
}

type deviceRepo struct {
	db *gorm.DB
}

func (r *deviceRepo) FindByID(ctx context.Context, id uint) (*model.Device, error) {
	var device model.Device
	if err := r.db.WithContext(ctx).First(&device, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

func (r *deviceRepo) FindBySerialNumber(ctx context.Context, serial string) (*model.Device, error) {
	var device model.Device
	if err := r.db.WithContext(ctx).Where("serial_number = ?", serial).First(&device).Error; err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

func (r *deviceRepo) FindByUser(ctx context.Context, userID, deviceID uint) (*model.Device, error) {
	var device model.Device
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", deviceID, userID).
		First(&device).Error; err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

// PaginateByUser lists only the user's active devices.
func (r *deviceRepo) PaginateByUser(ctx context.Context, userID uint, req PageRequest) (*Page[model.Device], error) {
	return paginate[model.Device](ctx, r.db, req, func(q *gorm.DB) *gorm.DB {
		return q.Where("user_id = ? AND is_active = ?", userID, true).Order("id")
	})
}

func (r *deviceRepo) Create(ctx context.Context, device *model.Device) error {
	if err := r.db.WithContext(ctx).Create(device).Error; err != nil {
		return fmt.Errorf("failed to create device %q: %w", device.SerialNumber, err)
	}
	return nil
}

func (r *deviceRepo) SetActive(ctx context.Context, device *model.Device, active bool) error {
	res := r.db.WithContext(ctx).Model(device).Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to update device %d: %w", device.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	device.IsActive = active
	return nil
}

// TransferOwnership reassigns the device inside a transaction. ErrNotFound is
// returned when the new owner does not exist.
func (r *deviceRepo) TransferOwnership(ctx context.Context, device *model.Device, newOwnerID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner model.User
		if err := tx.Select("id").First(&owner, newOwnerID).Error; err != nil {
			return notFound(err)
		}
		res := tx.Model(&model.Device{}).Where("id = ?", device.ID).Update("user_id", newOwnerID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to transfer device %d to user %d: %w", device.ID, newOwnerID, err)
	}
	device.UserID = newOwnerID
	return nil
}

// Delete removes the device with its readings and alerts.
func (r *deviceRepo) Delete(ctx context.Context, device *model.Device) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("device_id = ?", device.ID).Delete(&model.Alert{}).Error; err != nil {
			return fmt.Errorf("failed to delete alerts of device %d: %w", device.ID, err)
		}
		if err := tx.Where("device_id = ?", device.ID).Delete(&model.SensorData{}).Error; err != nil {
			return fmt.Errorf("failed to delete readings of device %d: %w", device.ID, err)
		}
		res := tx.Delete(&model.Device{}, device.ID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete device %d: %w", device.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *deviceRepo) ActiveDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch active devices: %w", err)
	}
	return devices, nil
}
