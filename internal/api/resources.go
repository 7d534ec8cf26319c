package api

import (
	"time"

	"thermo-monitor-backend/internal/alerting"
	"thermo-monitor-backend/internal/model"
	"thermo-monitor-backend/internal/store"
)

type userResource struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResource(u model.User) userResource {
	return userResource{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

type deviceResource struct {
	ID           uint      `json:"id"`
	SerialNumber string    `json:"serial_number"`
	Name         string    `json:"name"`
	UserID       uint      `json:"user_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newDeviceResource(d model.Device) deviceResource {
	return deviceResource{
		ID:           d.ID,
		SerialNumber: d.SerialNumber,
		Name:         d.Name,
		UserID:       d.UserID,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type sensorDataResource struct {
	ID                   uint      `json:"id"`
	DeviceID             uint      `json:"device_id"`
	Temperature          float64   `json:"temperature"`
	FormattedTemperature string    `json:"formatted_temperature"`
	RecordedAt           time.Time `json:"recorded_at"`
	IsWithinNormalRange  bool      `json:"is_within_normal_range"`
	CreatedAt            time.Time `json:"created_at"`
}

// sensorDataConverter checks readings against the warning band, inclusive on both ends.
func sensorDataConverter(t alerting.Thresholds) func(model.SensorData) sensorDataResource {
	return func(s model.SensorData) sensorDataResource {
		return sensorDataResource{
			ID:                   s.ID,
			DeviceID:             s.DeviceID,
			Temperature:          s.Temperature,
			FormattedTemperature: s.FormattedTemperature(),
			RecordedAt:           s.RecordedAt,
			IsWithinNormalRange:  s.Temperature >= t.WarningMin && s.Temperature <= t.WarningMax,
			CreatedAt:            s.CreatedAt,
		}
	}
}

type alertResource struct {
	ID                   uint       `json:"id"`
	DeviceID             uint       `json:"device_id"`
	SensorDataID         *uint      `json:"sensor_data_id"`
	AlertType            string     `json:"alert_type"`
	AlertTypeDescription string     `json:"alert_type_description"`
	IsTemperatureAlert   bool       `json:"is_temperature_alert"`
	IsOfflineAlert       bool       `json:"is_offline_alert"`
	Severity             string     `json:"severity"`
	SeverityDescription  string     `json:"severity_description"`
	IsCritical           bool       `json:"is_critical"`
	Priority             string     `json:"priority"`
	Message              string     `json:"message"`
	Temperature          *float64   `json:"temperature"`
	ThresholdMin         *float64   `json:"threshold_min"`
	ThresholdMax         *float64   `json:"threshold_max"`
	ConditionName        string     `json:"condition_name"`
	ConditionDescription string     `json:"condition_description"`
	ConditionSummary     string     `json:"condition_summary"`
	TimeoutMinutes       *int       `json:"timeout_minutes"`
	IsActive             bool       `json:"is_active"`
	ResolvedAt           *time.Time `json:"resolved_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func newAlertResource(a model.Alert) alertResource {
	return alertResource{
		ID:                   a.ID,
		DeviceID:             a.DeviceID,
		SensorDataID:         a.SensorDataID,
		AlertType:            string(a.AlertType),
		AlertTypeDescription: a.AlertType.Description(),
		IsTemperatureAlert:   a.IsTemperatureAlert(),
		IsOfflineAlert:       a.IsOfflineAlert(),
		Severity:             string(a.Severity),
		SeverityDescription:  a.Severity.Description(),
		IsCritical:           a.IsCritical(),
		Priority:             a.Priority(),
		Message:              a.Message,
		Temperature:          a.Temperature,
		ThresholdMin:         a.ThresholdMin,
		ThresholdMax:         a.ThresholdMax,
		ConditionName:        a.ConditionName,
		ConditionDescription: a.ConditionDescription,
		ConditionSummary:     alerting.SnapshotCondition(a).Summary(),
		TimeoutMinutes:       a.TimeoutMinutes,
		IsActive:             a.IsActive(),
		ResolvedAt:           a.ResolvedAt,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

type statisticsResource struct {
	TotalReadings      int64               `json:"total_readings"`
	AverageTemperature *float64            `json:"average_temperature"`
	MinTemperature     *float64            `json:"min_temperature"`
	MaxTemperature     *float64            `json:"max_temperature"`
	LatestReading      *sensorDataResource `json:"latest_reading"`
}

func newStatisticsResource(s *store.Statistics, t alerting.Thresholds) statisticsResource {
	res := statisticsResource{
		TotalReadings:      s.TotalReadings,
		AverageTemperature: s.AverageTemperature,
		MinTemperature:     s.MinTemperature,
		MaxTemperature:     s.MaxTemperature,
	}
	if s.LatestReading != nil {
		latest := sensorDataConverter(t)(*s.LatestReading)
		res.LatestReading = &latest
	}
	return res
}
