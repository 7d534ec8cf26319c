package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlertTypeLookups(t *testing.T) {
	testCases := []struct {
		alertType           AlertType
		description         string
		severity            AlertSeverity
		requiresTemperature bool
	}{
		{AlertTypeTemperatureWarning, "Temperature Warning", SeverityWarning, true},
		{AlertTypeTemperatureCriticalLow, "Critical Low Temperature", SeverityCritical, true},
		{AlertTypeTemperatureCriticalHigh, "Critical High Temperature", SeverityCritical, true},
		{AlertTypeSensorOffline, "Sensor Offline", SeverityCritical, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.alertType), func(t *testing.T) {
			assert.True(t, tc.alertType.Valid())
			assert.Equal(t, tc.description, tc.alertType.Description())
			assert.Equal(t, tc.severity, tc.alertType.Severity())
			assert.Equal(t, tc.requiresTemperature, tc.alertType.RequiresTemperature())
		})
	}

	assert.False(t, AlertType("acknowledged").Valid())
}

func TestSeverityPriority(t *testing.T) {
	assert.Equal(t, "low", SeverityWarning.Priority())
	assert.Equal(t, "high", SeverityCritical.Priority())
	assert.Equal(t, "Warning", SeverityWarning.Description())
	assert.True(t, SeverityCritical.IsCritical())
	assert.False(t, SeverityWarning.IsCritical())
	assert.False(t, AlertSeverity("info").Valid())
}

func TestAlertState(t *testing.T) {
	alert := &Alert{AlertType: AlertTypeSensorOffline, Severity: SeverityCritical}
	assert.True(t, alert.IsActive())
	assert.True(t, alert.IsOfflineAlert())
	assert.False(t, alert.IsTemperatureAlert())
	assert.Equal(t, "high", alert.Priority())

	now := time.Now()
	alert.ResolvedAt = &now
	assert.False(t, alert.IsActive())
}

func TestAlertBeforeCreate(t *testing.T) {
	testCases := []struct {
		name  string
		alert Alert
		valid bool
	}{
		{"offline", Alert{AlertType: AlertTypeSensorOffline, Severity: SeverityCritical}, true},
		{"warning", Alert{AlertType: AlertTypeTemperatureWarning, Severity: SeverityWarning}, true},
		{"unknown type", Alert{AlertType: "acknowledged", Severity: SeverityCritical}, false},
		{"unknown severity", Alert{AlertType: AlertTypeSensorOffline, Severity: "info"}, false},
		{"empty", Alert{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.alert.BeforeCreate(nil)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidAlert)
			}
		})
	}
}

func TestSensorDataFormattedTemperature(t *testing.T) {
	assert.Equal(t, "23.46°C", SensorData{Temperature: 23.456}.FormattedTemperature())
	assert.Equal(t, "-5.00°C", SensorData{Temperature: -5}.FormattedTemperature())
}
