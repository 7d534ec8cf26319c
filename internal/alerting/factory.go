package alerting

import (
	"fmt"

	"thermo-monitor-backend/internal/model"
)

// Factory builds unsaved alerts. It performs no I/O; temperature builders
// snapshot the thresholds they are given, which must be the same values the
// caller evaluated the reading against.
type Factory struct{}

// NewFactory creates a Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// TemperatureWarning builds a warning-band alert. reading may be nil.
func (f *Factory) TemperatureWarning(t Thresholds, device model.Device, reading *model.SensorData, temperature float64) *model.Alert {
	condition := TemperatureWarning(t)
	return f.temperatureAlert(model.AlertTypeTemperatureWarning, condition, device, reading, temperature)
}

// CriticalLowTemperature builds a critical-low alert; only the minimum is snapshotted.
func (f *Factory) CriticalLowTemperature(t Thresholds, device model.Device, reading *model.SensorData, temperature float64) *model.Alert {
	condition := CriticalLowTemperature(t)
	return f.temperatureAlert(model.AlertTypeTemperatureCriticalLow, condition, device, reading, temperature)
}

// CriticalHighTemperature builds a critical-high alert; only the maximum is snapshotted.
func (f *Factory) CriticalHighTemperature(t Thresholds, device model.Device, reading *model.SensorData, temperature float64) *model.Alert {
	condition := CriticalHighTemperature(t)
	return f.temperatureAlert(model.AlertTypeTemperatureCriticalHigh, condition, device, reading, temperature)
}

// SensorOffline builds an offline alert for a device silent longer than timeoutMinutes.
func (f *Factory) SensorOffline(device model.Device, timeoutMinutes int) *model.Alert {
	condition := SensorOffline(timeoutMinutes)
	return &model.Alert{
		DeviceID:             device.ID,
		AlertType:            model.AlertTypeSensorOffline,
		Severity:             model.AlertTypeSensorOffline.Severity(),
		Message:              offlineMessage(device, timeoutMinutes),
		ConditionName:        condition.Name,
		ConditionDescription: condition.Description,
		TimeoutMinutes:       &timeoutMinutes,
	}
}

func (f *Factory) temperatureAlert(alertType model.AlertType, condition Condition, device model.Device, reading *model.SensorData, temperature float64) *model.Alert {
	var sensorDataID *uint
	if reading != nil && reading.ID != 0 {
		id := reading.ID
		sensorDataID = &id
	}

	return &model.Alert{
		DeviceID:             device.ID,
		SensorDataID:         sensorDataID,
		AlertType:            alertType,
		Severity:             alertType.Severity(),
		Message:              temperatureMessage(device, temperature, condition),
		Temperature:          &temperature,
		ThresholdMin:         copyFloat(condition.MinThreshold),
		ThresholdMax:         copyFloat(condition.MaxThreshold),
		ConditionName:        condition.Name,
		ConditionDescription: condition.Description,
	}
}

func temperatureMessage(device model.Device, temperature float64, condition Condition) string {
	prefix := fmt.Sprintf("Temperature alert for device '%s': %s°C", device.Name, FormatTemperature(temperature))

	if condition.MinThreshold != nil && temperature < *condition.MinThreshold {
		return fmt.Sprintf("%s is below minimum threshold (%s°C)", prefix, formatThreshold(*condition.MinThreshold))
	}
	if condition.MaxThreshold != nil && temperature > *condition.MaxThreshold {
		return fmt.Sprintf("%s is above maximum threshold (%s°C)", prefix, formatThreshold(*condition.MaxThreshold))
	}
	// Unreachable when the service's evaluation order is respected.
	return prefix + " is outside normal range"
}

func offlineMessage(device model.Device, timeoutMinutes int) string {
	return fmt.Sprintf("Device '%s' has been offline for more than %d minutes", device.Name, timeoutMinutes)
}

// FormatTemperature renders a temperature with exactly two decimals.
func FormatTemperature(t float64) string {
	return fmt.Sprintf("%.2f", t)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
