package alerting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"thermo-monitor-backend/internal/model"
)

var defaultThresholds = Thresholds{
	WarningMin:            0,
	WarningMax:            30,
	CriticalMin:           -10,
	CriticalMax:           45,
	OfflineTimeoutMinutes: 15,
}

func temp(v float64) *float64 { return &v }

func minutes(v int) *int { return &v }

func TestConditionIsMet_StrictBounds(t *testing.T) {
	warning := TemperatureWarning(defaultThresholds)
	low := CriticalLowTemperature(defaultThresholds)
	high := CriticalHighTemperature(defaultThresholds)

	for _, v := range []float64{-60, -20, -10.01, -10, -9.99, -0.01, 0, 0.01, 15, 29.99, 30, 30.01, 44.99, 45, 45.01, 100} {
		assert.Equal(t, v > 45, high.IsMet(temp(v)), "critical high at %v", v)
		assert.Equal(t, v < -10, low.IsMet(temp(v)), "critical low at %v", v)
		assert.Equal(t, v < 0 || v > 30, warning.IsMet(temp(v)), "warning at %v", v)
	}
}

func TestConditionIsMet_NilTemperature(t *testing.T) {
	configs := []Thresholds{
		defaultThresholds,
		{WarningMin: -100, WarningMax: 100, CriticalMin: -200, CriticalMax: 200},
		{},
	}
	for _, cfg := range configs {
		assert.False(t, TemperatureWarning(cfg).IsMet(nil))
		assert.False(t, CriticalLowTemperature(cfg).IsMet(nil))
		assert.False(t, CriticalHighTemperature(cfg).IsMet(nil))
		assert.False(t, SensorOffline(cfg.OfflineTimeoutMinutes).IsMet(nil))
	}
}

func TestConditionIsOfflineMet(t *testing.T) {
	offline := SensorOffline(15)

	assert.False(t, offline.IsOfflineMet(nil))
	assert.False(t, offline.IsOfflineMet(minutes(0)))
	assert.False(t, offline.IsOfflineMet(minutes(15)))
	assert.True(t, offline.IsOfflineMet(minutes(16)))
	assert.True(t, offline.IsOfflineMet(minutes(600)))
}

func TestConditionVariantsAreExclusive(t *testing.T) {
	offline := SensorOffline(15)
	assert.Nil(t, offline.MinThreshold)
	assert.Nil(t, offline.MaxThreshold)
	assert.False(t, offline.IsMet(temp(1000)), "offline condition never evaluates temperature")

	warning := TemperatureWarning(defaultThresholds)
	assert.Nil(t, warning.TimeoutMinutes)
	assert.False(t, warning.IsOfflineMet(minutes(1000)), "threshold condition never evaluates liveness")

	low := CriticalLowTemperature(defaultThresholds)
	assert.NotNil(t, low.MinThreshold)
	assert.Nil(t, low.MaxThreshold)

	high := CriticalHighTemperature(defaultThresholds)
	assert.Nil(t, high.MinThreshold)
	assert.NotNil(t, high.MaxThreshold)
}

func TestConditionSummary(t *testing.T) {
	assert.Equal(t, "below 0°C or above 30°C", TemperatureWarning(defaultThresholds).Summary())
	assert.Equal(t, "below -10°C", CriticalLowTemperature(defaultThresholds).Summary())
	assert.Equal(t, "above 45.5°C", CriticalHighTemperature(Thresholds{CriticalMax: 45.5}).Summary())
	assert.Equal(t, "offline for more than 15 minutes", SensorOffline(15).Summary())
}

func TestSnapshotCondition(t *testing.T) {
	alert := NewFactory().TemperatureWarning(defaultThresholds, model.Device{Name: "Lab"}, nil, 31)
	assert.Equal(t, "below 0°C or above 30°C", SnapshotCondition(*alert).Summary())

	offline := NewFactory().SensorOffline(model.Device{Name: "Lab"}, 20)
	assert.Equal(t, "offline for more than 20 minutes", SnapshotCondition(*offline).Summary())
}

func TestThresholdFunc(t *testing.T) {
	calls := 0
	src := ThresholdFunc(func() Thresholds {
		calls++
		return defaultThresholds
	})
	assert.Equal(t, defaultThresholds, src.Thresholds())
	assert.Equal(t, 1, calls)
}
