// Package alerting turns temperature readings and device liveness into alerts.
package alerting

import (
	"fmt"
	"strconv"
	"strings"

	"thermo-monitor-backend/internal/model"
)

// Thresholds is the configured alerting policy. The warning band is
// WarningMin..WarningMax; the critical limits sit outside it.
type Thresholds struct {
	WarningMin            float64
	WarningMax            float64
	CriticalMin           float64
	CriticalMax           float64
	OfflineTimeoutMinutes int
}

// ThresholdSource supplies thresholds at evaluation time. A fresh read per call is fine.
type ThresholdSource interface {
	Thresholds() Thresholds
}

// Thresholds lets a fixed value act as its own source.
func (t Thresholds) Thresholds() Thresholds { return t }

// ThresholdFunc adapts a function to ThresholdSource.
type ThresholdFunc func() Thresholds

func (f ThresholdFunc) Thresholds() Thresholds { return f() }

// Condition is a named rule evaluated against a temperature or an offline duration.
// Threshold conditions carry Min and/or Max; the offline condition carries only TimeoutMinutes.
type Condition struct {
	Name           string
	Description    string
	MinThreshold   *float64
	MaxThreshold   *float64
	TimeoutMinutes *int
}

// IsMet reports whether temperature lies strictly outside the condition's bounds.
// A missing temperature never meets a condition.
func (c Condition) IsMet(temperature *float64) bool {
	if temperature == nil {
		return false
	}
	if c.MinThreshold != nil && *temperature < *c.MinThreshold {
		return true
	}
	if c.MaxThreshold != nil && *temperature > *c.MaxThreshold {
		return true
	}
	return false
}

// IsOfflineMet reports whether a device silent for lastSeenMinutesAgo exceeds the timeout.
func (c Condition) IsOfflineMet(lastSeenMinutesAgo *int) bool {
	if c.TimeoutMinutes == nil || lastSeenMinutesAgo == nil {
		return false
	}
	return *lastSeenMinutesAgo > *c.TimeoutMinutes
}

// Summary describes the bounds, e.g. "below 0°C or above 30°C".
func (c Condition) Summary() string {
	var parts []string
	if c.MinThreshold != nil {
		parts = append(parts, fmt.Sprintf("below %s°C", formatThreshold(*c.MinThreshold)))
	}
	if c.MaxThreshold != nil {
		parts = append(parts, fmt.Sprintf("above %s°C", formatThreshold(*c.MaxThreshold)))
	}
	if c.TimeoutMinutes != nil {
		parts = append(parts, fmt.Sprintf("offline for more than %d minutes", *c.TimeoutMinutes))
	}
	return strings.Join(parts, " or ")
}

// TemperatureWarning is met outside the warning band [WarningMin, WarningMax].
func TemperatureWarning(t Thresholds) Condition {
	return Condition{
		Name:         "temperature_warning",
		Description:  "Temperature outside normal range",
		MinThreshold: float64Ptr(t.WarningMin),
		MaxThreshold: float64Ptr(t.WarningMax),
	}
}

// CriticalLowTemperature is met below CriticalMin.
func CriticalLowTemperature(t Thresholds) Condition {
	return Condition{
		Name:         "critical_low_temperature",
		Description:  "Critical low temperature",
		MinThreshold: float64Ptr(t.CriticalMin),
	}
}

// CriticalHighTemperature is met above CriticalMax.
func CriticalHighTemperature(t Thresholds) Condition {
	return Condition{
		Name:         "critical_high_temperature",
		Description:  "Critical high temperature",
		MaxThreshold: float64Ptr(t.CriticalMax),
	}
}

// SensorOffline is met once a device has been silent longer than timeoutMinutes.
func SensorOffline(timeoutMinutes int) Condition {
	return Condition{
		Name:           "sensor_offline",
		Description:    "Sensor is offline or not responding",
		TimeoutMinutes: &timeoutMinutes,
	}
}

// SnapshotCondition rebuilds the condition an alert was raised under from the
// thresholds stored on it, so later config changes do not alter its summary.
func SnapshotCondition(a model.Alert) Condition {
	return Condition{
		Name:           a.ConditionName,
		Description:    a.ConditionDescription,
		MinThreshold:   a.ThresholdMin,
		MaxThreshold:   a.ThresholdMax,
		TimeoutMinutes: a.TimeoutMinutes,
	}
}

// formatThreshold prints thresholds without trailing zeros: 30, -10, 0.5.
func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func float64Ptr(v float64) *float64 { return &v }
