package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"thermo-monitor-backend/internal/metrics"
	"thermo-monitor-backend/internal/model"
)

// AlertRepository persists alerts. Create assigns identity and timestamps.
type AlertRepository interface {
	Create(ctx context.Context, alert *model.Alert) error
	Resolve(ctx context.Context, alert *model.Alert, at time.Time) error
}

// ReadingFinder returns the most recent reading of a device by recorded_at,
// or nil when the device has never reported.
type ReadingFinder interface {
	LatestByDevice(ctx context.Context, deviceID uint) (*model.SensorData, error)
}

// Service decides which alert, if any, a reading or a liveness check produces,
// and is the only component that creates alerts.
type Service struct {
	alerts     AlertRepository
	readings   ReadingFinder
	thresholds ThresholdSource
	factory    *Factory
	clock      Clock
	log        zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger used for fired alerts.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates an evaluation service.
func NewService(alerts AlertRepository, readings ReadingFinder, thresholds ThresholdSource, opts ...Option) *Service {
	s := &Service{
		alerts:     alerts,
		readings:   readings,
		thresholds: thresholds,
		factory:    NewFactory(),
		clock:      SystemClock,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateSensorData checks a reading against the critical-high, critical-low and
// warning conditions in that order. The first match is persisted and the rest are
// skipped, so at most one alert is returned. A nil reading produces no alert.
func (s *Service) EvaluateSensorData(ctx context.Context, device model.Device, reading *model.SensorData) ([]*model.Alert, error) {
	if reading == nil {
		return nil, nil
	}
	temperature := &reading.Temperature
	// One read per call: the alert snapshots the same bounds that fired.
	t := s.thresholds.Thresholds()

	var alert *model.Alert
	switch {
	case CriticalHighTemperature(t).IsMet(temperature):
		alert = s.factory.CriticalHighTemperature(t, device, reading, *temperature)
	case CriticalLowTemperature(t).IsMet(temperature):
		alert = s.factory.CriticalLowTemperature(t, device, reading, *temperature)
	case TemperatureWarning(t).IsMet(temperature):
		alert = s.factory.TemperatureWarning(t, device, reading, *temperature)
	default:
		return nil, nil
	}

	if err := s.create(ctx, alert); err != nil {
		return nil, err
	}
	return []*model.Alert{alert}, nil
}

// CheckDeviceOffline creates a sensor-offline alert when the device's latest reading
// is older than the configured timeout. Devices that never reported are not flagged,
// and existing unresolved offline alerts do not suppress a new one.
func (s *Service) CheckDeviceOffline(ctx context.Context, device model.Device) (*model.Alert, error) {
	timeout := s.thresholds.Thresholds().OfflineTimeoutMinutes
	condition := SensorOffline(timeout)

	lastSeen, err := s.lastSeenMinutesAgo(ctx, device)
	if err != nil {
		return nil, err
	}
	if !condition.IsOfflineMet(lastSeen) {
		return nil, nil
	}

	alert := s.factory.SensorOffline(device, timeout)
	if err := s.create(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// Resolve stamps the alert as resolved at the current time. It is not guarded:
// resolving twice moves ResolvedAt forward.
func (s *Service) Resolve(ctx context.Context, alert *model.Alert) error {
	at := s.clock.Now()
	if err := s.alerts.Resolve(ctx, alert, at); err != nil {
		return fmt.Errorf("resolve alert %d: %w", alert.ID, err)
	}
	alert.ResolvedAt = &at
	metrics.AlertsResolved.Inc()
	return nil
}

func (s *Service) lastSeenMinutesAgo(ctx context.Context, device model.Device) (*int, error) {
	latest, err := s.readings.LatestByDevice(ctx, device.ID)
	if err != nil {
		return nil, fmt.Errorf("latest reading for device %d: %w", device.ID, err)
	}
	if latest == nil {
		return nil, nil
	}

	minutes := int(s.clock.Now().Sub(latest.RecordedAt).Minutes())
	if minutes < 0 {
		minutes = -minutes
	}
	return &minutes, nil
}

func (s *Service) create(ctx context.Context, alert *model.Alert) error {
	if err := s.alerts.Create(ctx, alert); err != nil {
		return fmt.Errorf("create %s alert for device %d: %w", alert.AlertType, alert.DeviceID, err)
	}
	metrics.AlertsCreated.WithLabelValues(string(alert.AlertType), string(alert.Severity)).Inc()
	s.log.Info().
		Uint("alert_id", alert.ID).
		Uint("device_id", alert.DeviceID).
		Str("alert_type", string(alert.AlertType)).
		Str("severity", string(alert.Severity)).
		Msg(alert.Message)
	return nil
}
