package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermo-monitor-backend/internal/alerting"
	"thermo-monitor-backend/internal/model"
	"thermo-monitor-backend/internal/store"
)

type fakeDevices map[string]*model.Device

func (f fakeDevices) FindBySerialNumber(_ context.Context, serial string) (*model.Device, error) {
	if d, ok := f[serial]; ok {
		return d, nil
	}
	return nil, store.ErrNotFound
}

type fakeReadings struct {
	stored []*model.SensorData
	err    error
}

func (f *fakeReadings) Create(_ context.Context, r *model.SensorData) error {
	if f.err != nil {
		return f.err
	}
	r.ID = uint(len(f.stored) + 1)
	f.stored = append(f.stored, r)
	return nil
}

type fakeAlerts struct {
	nextID uint
	err    error
}

func (f *fakeAlerts) Create(_ context.Context, a *model.Alert) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	a.ID = f.nextID
	return nil
}

func (f *fakeAlerts) Resolve(context.Context, *model.Alert, time.Time) error { return nil }

type recordingDispatcher struct{ ids []uint }

func (d *recordingDispatcher) Dispatch(id uint) { d.ids = append(d.ids, id) }

var now = time.Date(2025, 5, 5, 8, 30, 0, 0, time.UTC)

type harness struct {
	recorder   *Recorder
	readings   *fakeReadings
	alerts     *fakeAlerts
	dispatched *recordingDispatcher
}

func newHarness() *harness {
	h := &harness{
		readings:   &fakeReadings{},
		alerts:     &fakeAlerts{},
		dispatched: &recordingDispatcher{},
	}
	thresholds := alerting.Thresholds{WarningMin: 0, WarningMax: 30, CriticalMin: -10, CriticalMax: 45, OfflineTimeoutMinutes: 15}
	evaluator := alerting.NewService(h.alerts, nil, thresholds)
	devices := fakeDevices{"SN-1": {ID: 4, SerialNumber: "SN-1", Name: "Fridge", UserID: 2, IsActive: true}}
	h.recorder = NewRecorder(devices, h.readings, evaluator, h.dispatched)
	h.recorder.now = func() time.Time { return now }
	return h
}

func at(t time.Time) *time.Time { return &t }

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		reading Reading
		valid   bool
	}{
		{"typical", Reading{DeviceSerial: "a", Temperature: 21.5}, true},
		{"lower bound", Reading{DeviceSerial: "a", Temperature: -50}, true},
		{"upper bound", Reading{DeviceSerial: "a", Temperature: 100}, true},
		{"too cold", Reading{DeviceSerial: "a", Temperature: -50.01}, false},
		{"too hot", Reading{DeviceSerial: "a", Temperature: 100.5}, false},
		{"missing serial", Reading{Temperature: 20}, false},
		{"recorded now", Reading{DeviceSerial: "a", Temperature: 20, RecordedAt: at(now)}, true},
		{"recorded in the future", Reading{DeviceSerial: "a", Temperature: 20, RecordedAt: at(now.Add(time.Second))}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.reading, now)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidReading)
			}
		})
	}
}

func TestRecord_NormalReading(t *testing.T) {
	h := newHarness()

	res, err := h.recorder.Record(context.Background(), Reading{DeviceSerial: "SN-1", Temperature: 20}, SourceHTTP)
	require.NoError(t, err)

	assert.Equal(t, uint(4), res.Reading.DeviceID)
	assert.Equal(t, now, res.Reading.RecordedAt, "defaults to ingestion time")
	assert.Empty(t, res.Alerts)
	assert.Empty(t, h.dispatched.ids)
	assert.Len(t, h.readings.stored, 1)
}

func TestRecord_CriticalReadingDispatchesAlert(t *testing.T) {
	h := newHarness()
	recorded := now.Add(-time.Minute)

	res, err := h.recorder.Record(context.Background(),
		Reading{DeviceSerial: "SN-1", Temperature: 50, RecordedAt: &recorded}, SourceMQTT)
	require.NoError(t, err)

	require.Len(t, res.Alerts, 1)
	assert.Equal(t, model.AlertTypeTemperatureCriticalHigh, res.Alerts[0].AlertType)
	assert.Equal(t, recorded, res.Reading.RecordedAt)
	assert.Equal(t, []uint{res.Alerts[0].ID}, h.dispatched.ids)
}

func TestRecord_Errors(t *testing.T) {
	t.Run("unknown device", func(t *testing.T) {
		h := newHarness()
		_, err := h.recorder.Record(context.Background(), Reading{DeviceSerial: "nope", Temperature: 20}, SourceHTTP)
		assert.ErrorIs(t, err, ErrDeviceNotFound)
		assert.Empty(t, h.readings.stored)
	})

	t.Run("invalid reading is not stored", func(t *testing.T) {
		h := newHarness()
		_, err := h.recorder.Record(context.Background(), Reading{DeviceSerial: "SN-1", Temperature: 120}, SourceHTTP)
		assert.ErrorIs(t, err, ErrInvalidReading)
		assert.Empty(t, h.readings.stored)
	})

	t.Run("storage failure", func(t *testing.T) {
		h := newHarness()
		storageErr := errors.New("disk full")
		h.readings.err = storageErr
		_, err := h.recorder.Record(context.Background(), Reading{DeviceSerial: "SN-1", Temperature: 20}, SourceHTTP)
		assert.ErrorIs(t, err, storageErr)
	})

	t.Run("alert persistence failure keeps the reading", func(t *testing.T) {
		h := newHarness()
		alertErr := errors.New("alerts table locked")
		h.alerts.err = alertErr
		res, err := h.recorder.Record(context.Background(), Reading{DeviceSerial: "SN-1", Temperature: -30}, SourceHTTP)
		assert.ErrorIs(t, err, alertErr)
		require.NotNil(t, res)
		assert.NotZero(t, res.Reading.ID)
		assert.Empty(t, h.dispatched.ids)
	})
}
