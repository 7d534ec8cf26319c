package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidAlert is returned when an alert with an unknown type or severity is saved.
var ErrInvalidAlert = errors.New("invalid alert")

// AlertType identifies which condition produced an alert.
type AlertType string

const (
	AlertTypeTemperatureWarning      AlertType = "temperature_warning"
	AlertTypeTemperatureCriticalLow  AlertType = "temperature_critical_low"
	AlertTypeTemperatureCriticalHigh AlertType = "temperature_critical_high"
	AlertTypeSensorOffline           AlertType = "sensor_offline"
)

// AlertSeverity is the coarse priority classification of an alert.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

type alertTypeInfo struct {
	description         string
	severity            AlertSeverity
	requiresTemperature bool
}

var alertTypes = map[AlertType]alertTypeInfo{
	AlertTypeTemperatureWarning:      {"Temperature Warning", SeverityWarning, true},
	AlertTypeTemperatureCriticalLow:  {"Critical Low Temperature", SeverityCritical, true},
	AlertTypeTemperatureCriticalHigh: {"Critical High Temperature", SeverityCritical, true},
	AlertTypeSensorOffline:           {"Sensor Offline", SeverityCritical, false},
}

// Valid reports whether t is one of the known alert types.
func (t AlertType) Valid() bool {
	_, ok := alertTypes[t]
	return ok
}

// Description returns a human-readable label for the alert type.
func (t AlertType) Description() string {
	return alertTypes[t].description
}

// Severity returns the severity every alert of this type carries.
func (t AlertType) Severity() AlertSeverity {
	return alertTypes[t].severity
}

// RequiresTemperature reports whether alerts of this type snapshot a temperature.
func (t AlertType) RequiresTemperature() bool {
	return alertTypes[t].requiresTemperature
}

var severities = map[AlertSeverity]struct{ description, priority string }{
	SeverityWarning:  {"Warning", "low"},
	SeverityCritical: {"Critical", "high"},
}

// Valid reports whether s is a known severity.
func (s AlertSeverity) Valid() bool {
	_, ok := severities[s]
	return ok
}

func (s AlertSeverity) Description() string { return severities[s].description }

// Priority maps the severity to "low" or "high".
func (s AlertSeverity) Priority() string { return severities[s].priority }

func (s AlertSeverity) IsCritical() bool { return s == SeverityCritical }

// Alert is a persisted threshold or liveness violation for a device.
// An alert is active until ResolvedAt is set.
type Alert struct {
	ID                   uint          `gorm:"primaryKey"`
	DeviceID             uint          `gorm:"not null;index;index:idx_alerts_device_type,priority:1"`
	SensorDataID         *uint         `gorm:"index"`
	AlertType            AlertType     `gorm:"size:64;not null;index;index:idx_alerts_device_type,priority:2"`
	Severity             AlertSeverity `gorm:"size:16;not null;index"`
	Message              string        `gorm:"type:text;not null"`
	Temperature          *float64      `gorm:"type:decimal(5,2)"`
	ThresholdMin         *float64      `gorm:"type:decimal(5,2)"`
	ThresholdMax         *float64      `gorm:"type:decimal(5,2)"`
	TimeoutMinutes       *int
	ConditionName        string `gorm:"size:64"`
	ConditionDescription string `gorm:"type:text"`
	ResolvedAt           *time.Time
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`

	// Associations
	Device *Device `gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate rejects alerts whose type or severity is not one of the known values.
func (a *Alert) BeforeCreate(*gorm.DB) error {
	if !a.AlertType.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAlert, a.AlertType)
	}
	if !a.Severity.Valid() {
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidAlert, a.Severity)
	}
	return nil
}

// IsActive reports whether the alert has not been resolved yet.
func (a *Alert) IsActive() bool {
	return a.ResolvedAt == nil
}

func (a *Alert) IsTemperatureAlert() bool {
	return a.AlertType.RequiresTemperature()
}

func (a *Alert) IsOfflineAlert() bool {
	return a.AlertType == AlertTypeSensorOffline
}

func (a *Alert) IsCritical() bool {
	return a.Severity.IsCritical()
}

// Priority derives "low"/"high" from the stored severity.
func (a *Alert) Priority() string {
	return a.Severity.Priority()
}
