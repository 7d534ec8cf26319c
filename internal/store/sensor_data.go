package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"thermo-monitor-backend/internal/model"
)

// SensorDataRepository stores append-only readings.
type SensorDataRepository interface {
	Create(ctx context.Context, reading *model.SensorData) error
	// LatestByDevice returns nil, nil when the device has no readings.
	LatestByDevice(ctx context.Context, deviceID uint) (*model.SensorData, error)
	PaginateByDevice(ctx context.Context, deviceID uint, req PageRequest) (*Page[model.SensorData], error)
	PaginateByUser(ctx context.Context, userID uint, req PageRequest) (*Page[model.SensorData], error)
	Statistics(ctx context.Context, deviceID uint) (*Statistics, error)
}

type sensorDataRepo struct {
	db *gorm.DB
}

func (r *sensorDataRepo) Create(ctx context.Context, reading *model.SensorData) error {
	if err := r.db.WithContext(ctx).Create(reading).Error; err != nil {
		return fmt.Errorf("failed to store reading for device %d: %w", reading.DeviceID, err)
	}
	return nil
}

func (r *sensorDataRepo) LatestByDevice(ctx context.Context, deviceID uint) (*model.SensorData, error) {
	var rows []model.SensorData
	if err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("recorded_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *sensorDataRepo) PaginateByDevice(ctx context.Context, deviceID uint, req PageRequest) (*Page[model.SensorData], error) {
	return paginate[model.SensorData](ctx, r.db, req, func(q *gorm.DB) *gorm.DB {
		return q.Where("device_id = ?", deviceID).Order("recorded_at DESC").Order("id DESC")
	})
}

// PaginateByUser lists readings across every device the user owns, newest first.
func (r *sensorDataRepo) PaginateByUser(ctx context.Context, userID uint, req PageRequest) (*Page[model.SensorData], error) {
	return paginate[model.SensorData](ctx, r.db, req, func(q *gorm.DB) *gorm.DB {
		return q.Joins("JOIN devices ON devices.id = sensor_data.device_id").
			Where("devices.user_id = ?", userID).
			Order("sensor_data.recorded_at DESC").
			Order("sensor_data.id DESC")
	})
}

func (r *sensorDataRepo) Statistics(ctx context.Context, deviceID uint) (*Statistics, error) {
	var agg struct {
		TotalReadings      int64
		AverageTemperature *float64
		MinTemperature     *float64
		MaxTemperature     *float64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.SensorData{}).
		Select("COUNT(*) AS total_readings, AVG(temperature) AS average_temperature, "+
			"MIN(temperature) AS min_temperature, MAX(temperature) AS max_temperature").
		Where("device_id = ?", deviceID).
		Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate readings for device %d: %w", deviceID, err)
	}

	latest, err := r.LatestByDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return &Statistics{
		TotalReadings:      agg.TotalReadings,
		AverageTemperature: agg.AverageTemperature,
		MinTemperature:     agg.MinTemperature,
		MaxTemperature:     agg.MaxTemperature,
		LatestReading:      latest,
	}, nil
}
