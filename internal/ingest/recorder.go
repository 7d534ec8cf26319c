package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"thermo-monitor-backend/internal/logger"
	"thermo-monitor-backend/internal/metrics"
	"thermo-monitor-backend/internal/model"
	"thermo-monitor-backend/internal/notification"
	"thermo-monitor-backend/internal/store"
)

// Accepted temperature range for a single reading, in °C.
const (
	MinTemperature = -50.0
	MaxTemperature = 100.0
)

var (
	// ErrDeviceNotFound is returned when no device has the given serial number.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrInvalidReading is returned for out-of-range temperatures or future timestamps.
	ErrInvalidReading = errors.New("invalid reading")
)

// Ingestion sources, used as metric labels.
const (
	SourceHTTP = "http"
	SourceMQTT = "mqtt"
)

// Reading is an unvalidated measurement as received from a device.
type Reading struct {
	DeviceSerial string
	Temperature  float64
	// RecordedAt defaults to the time of ingestion.
	RecordedAt *time.Time
}

// Result is what recording a reading produced.
type Result struct {
	Device  *model.Device
	Reading *model.SensorData
	Alerts  []*model.Alert
}

// DeviceFinder resolves devices by serial number.
type DeviceFinder interface {
	FindBySerialNumber(ctx context.Context, serial string) (*model.Device, error)
}

// ReadingWriter appends readings.
type ReadingWriter interface {
	Create(ctx context.Context, reading *model.SensorData) error
}

// Evaluator turns a stored reading into alerts.
type Evaluator interface {
	EvaluateSensorData(ctx context.Context, device model.Device, reading *model.SensorData) ([]*model.Alert, error)
}

// Recorder validates, stores and evaluates readings, then hands created alerts
// to the notification dispatcher.
type Recorder struct {
	devices    DeviceFinder
	readings   ReadingWriter
	evaluator  Evaluator
	dispatcher notification.Dispatcher
	now        func() time.Time
	log        zerolog.Logger
}

// NewRecorder creates a Recorder. A nil dispatcher discards alerts.
func NewRecorder(devices DeviceFinder, readings ReadingWriter, evaluator Evaluator, dispatcher notification.Dispatcher) *Recorder {
	if dispatcher == nil {
		dispatcher = notification.Discard
	}
	return &Recorder{
		devices:    devices,
		readings:   readings,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
		log:        logger.WithComponent("ingest"),
	}
}

// Validate checks the reading against the accepted range and the current time.
func Validate(r Reading, now time.Time) error {
	if r.DeviceSerial == "" {
		return fmt.Errorf("%w: device_serial is required", ErrInvalidReading)
	}
	if r.Temperature < MinTemperature || r.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature %.2f must be between %v and %v",
			ErrInvalidReading, r.Temperature, MinTemperature, MaxTemperature)
	}
	if r.RecordedAt != nil && r.RecordedAt.After(now) {
		return fmt.Errorf("%w: recorded_at %s is in the future", ErrInvalidReading, r.RecordedAt.Format(time.RFC3339))
	}
	return nil
}

// Record stores one reading. When evaluation fails the stored reading is still
// returned together with the error.
func (r *Recorder) Record(ctx context.Context, in Reading, source string) (*Result, error) {
	now := r.now()
	if err := Validate(in, now); err != nil {
		return nil, err
	}

	device, err := r.devices.FindBySerialNumber(ctx, in.DeviceSerial)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, in.DeviceSerial)
		}
		return nil, fmt.Errorf("failed to look up device %s: %w", in.DeviceSerial, err)
	}

	recordedAt := now
	if in.RecordedAt != nil {
		recordedAt = in.RecordedAt.UTC()
	}
	reading := &model.SensorData{
		DeviceID:    device.ID,
		Temperature: in.Temperature,
		RecordedAt:  recordedAt,
	}
	if err := r.readings.Create(ctx, reading); err != nil {
		return nil, err
	}
	metrics.ReadingsRecorded.WithLabelValues(source).Inc()

	result := &Result{Device: device, Reading: reading}
	alerts, err := r.evaluator.EvaluateSensorData(ctx, *device, reading)
	if err != nil {
		return result, fmt.Errorf("failed to evaluate reading %d: %w", reading.ID, err)
	}
	result.Alerts = alerts

	for _, alert := range alerts {
		r.dispatcher.Dispatch(alert.ID)
	}

	r.log.Debug().
		Str("source", source).
		Str("device_serial", device.SerialNumber).
		Float64("temperature", reading.Temperature).
		Int("alerts", len(alerts)).
		Msg("reading recorded")
	return result, nil
}
