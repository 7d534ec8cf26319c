package model

import (
	"fmt"
	"time"
)

// SensorData is a single temperature measurement. Rows are append-only.
type SensorData struct {
	ID          uint      `gorm:"primaryKey"`
	DeviceID    uint      `gorm:"not null;index:idx_sensor_data_device_recorded,priority:1"`
	Temperature float64   `gorm:"not null"`
	RecordedAt  time.Time `gorm:"not null;index:idx_sensor_data_device_recorded,priority:2"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`

	// Associations
	Device *Device `gorm:"constraint:OnDelete:CASCADE"`
}

// TableName keeps the table name uncountable.
func (SensorData) TableName() string {
	return "sensor_data"
}

// FormattedTemperature renders the reading with two decimals, e.g. "23.46°C".
func (s SensorData) FormattedTemperature() string {
	return fmt.Sprintf("%.2f°C", s.Temperature)
}
