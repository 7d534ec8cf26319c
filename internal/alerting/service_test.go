package alerting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermo-monitor-backend/internal/model"
)

// fakeAlertRepo is an in-memory AlertRepository.
type fakeAlertRepo struct {
	created   []*model.Alert
	resolved  []time.Time
	createErr error
	nextID    uint
}

func (f *fakeAlertRepo) Create(_ context.Context, alert *model.Alert) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	alert.ID = f.nextID
	f.created = append(f.created, alert)
	return nil
}

func (f *fakeAlertRepo) Resolve(_ context.Context, alert *model.Alert, at time.Time) error {
	f.resolved = append(f.resolved, at)
	return nil
}

// fakeReadings maps device IDs to their latest reading.
type fakeReadings struct {
	latest map[uint]*model.SensorData
	err    error
}

func (f *fakeReadings) LatestByDevice(_ context.Context, deviceID uint) (*model.SensorData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.latest[deviceID], nil
}

var fixedNow = time.Date(2025, 10, 24, 12, 0, 0, 0, time.UTC)

func newTestService(repo *fakeAlertRepo, readings *fakeReadings) *Service {
	return NewService(repo, readings, defaultThresholds,
		WithClock(ClockFunc(func() time.Time { return fixedNow })))
}

func TestEvaluateSensorData_Priority(t *testing.T) {
	device := model.Device{ID: 1, Name: "Walk-in cooler"}

	testCases := []struct {
		name        string
		temperature float64
		expected    model.AlertType
	}{
		{"critical high wins over warning", 50, model.AlertTypeTemperatureCriticalHigh},
		{"critical low wins over warning", -20, model.AlertTypeTemperatureCriticalLow},
		{"warning above band", 35, model.AlertTypeTemperatureWarning},
		{"warning below band", -5, model.AlertTypeTemperatureWarning},
		{"critical max boundary is only a warning", 45, model.AlertTypeTemperatureWarning},
		{"critical min boundary is only a warning", -10, model.AlertTypeTemperatureWarning},
		{"normal", 20, ""},
		{"warning max boundary", 30, ""},
		{"warning min boundary", 0, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeAlertRepo{}
			svc := newTestService(repo, &fakeReadings{})
			reading := &model.SensorData{ID: 9, DeviceID: 1, Temperature: tc.temperature}

			alerts, err := svc.EvaluateSensorData(context.Background(), device, reading)
			require.NoError(t, err)

			if tc.expected == "" {
				assert.Empty(t, alerts)
				assert.Empty(t, repo.created)
				return
			}
			require.Len(t, alerts, 1)
			require.Len(t, repo.created, 1, "exactly one create per fired alert")
			assert.Equal(t, tc.expected, alerts[0].AlertType)
			assert.Equal(t, uint(1), alerts[0].ID)
			assert.Equal(t, uint(9), *alerts[0].SensorDataID)
		})
	}
}

func TestEvaluateSensorData_NeverMoreThanOne(t *testing.T) {
	for v := -60.0; v <= 110; v += 0.5 {
		repo := &fakeAlertRepo{}
		alerts, err := newTestService(repo, &fakeReadings{}).
			EvaluateSensorData(context.Background(), model.Device{ID: 1}, &model.SensorData{Temperature: v})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(alerts), 1, "temperature %v", v)
		assert.Len(t, repo.created, len(alerts))
	}
}

func TestEvaluateSensorData_NilReading(t *testing.T) {
	repo := &fakeAlertRepo{}
	alerts, err := newTestService(repo, &fakeReadings{}).EvaluateSensorData(context.Background(), model.Device{ID: 1}, nil)

	assert.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Empty(t, repo.created)
}

func TestEvaluateSensorData_PropagatesStorageError(t *testing.T) {
	storageErr := errors.New("connection refused")
	repo := &fakeAlertRepo{createErr: storageErr}

	alerts, err := newTestService(repo, &fakeReadings{}).
		EvaluateSensorData(context.Background(), model.Device{ID: 1}, &model.SensorData{Temperature: 99})

	assert.ErrorIs(t, err, storageErr)
	assert.Nil(t, alerts)
}

func TestEvaluateSensorData_UsesFreshThresholds(t *testing.T) {
	current := defaultThresholds
	repo := &fakeAlertRepo{}
	svc := NewService(repo, &fakeReadings{}, ThresholdFunc(func() Thresholds { return current }))
	device := model.Device{ID: 1}

	alerts, err := svc.EvaluateSensorData(context.Background(), device, &model.SensorData{Temperature: 40})
	require.NoError(t, err)
	assert.Equal(t, model.AlertTypeTemperatureWarning, alerts[0].AlertType)

	current.CriticalMax = 35
	alerts, err = svc.EvaluateSensorData(context.Background(), device, &model.SensorData{Temperature: 40})
	require.NoError(t, err)
	assert.Equal(t, model.AlertTypeTemperatureCriticalHigh, alerts[0].AlertType)
}

func TestCheckDeviceOffline(t *testing.T) {
	device := model.Device{ID: 5, Name: "Server room"}

	t.Run("silent past timeout creates offline alert", func(t *testing.T) {
		repo := &fakeAlertRepo{}
		readings := &fakeReadings{latest: map[uint]*model.SensorData{
			5: {ID: 1, DeviceID: 5, RecordedAt: fixedNow.Add(-20 * time.Minute)},
		}}

		alert, err := newTestService(repo, readings).CheckDeviceOffline(context.Background(), device)
		require.NoError(t, err)
		require.NotNil(t, alert)

		assert.Equal(t, model.AlertTypeSensorOffline, alert.AlertType)
		assert.Equal(t, model.SeverityCritical, alert.Severity)
		require.NotNil(t, alert.TimeoutMinutes)
		assert.Equal(t, 15, *alert.TimeoutMinutes)
		assert.Contains(t, alert.Message, "Server room")
		assert.Contains(t, alert.Message, "15 minutes")
		assert.Nil(t, alert.SensorDataID)
		assert.Len(t, repo.created, 1)
	})

	t.Run("exactly at timeout does not fire", func(t *testing.T) {
		repo := &fakeAlertRepo{}
		readings := &fakeReadings{latest: map[uint]*model.SensorData{
			5: {RecordedAt: fixedNow.Add(-15 * time.Minute)},
		}}

		alert, err := newTestService(repo, readings).CheckDeviceOffline(context.Background(), device)
		assert.NoError(t, err)
		assert.Nil(t, alert)
		assert.Empty(t, repo.created)
	})

	t.Run("one minute past timeout fires", func(t *testing.T) {
		repo := &fakeAlertRepo{}
		readings := &fakeReadings{latest: map[uint]*model.SensorData{
			5: {RecordedAt: fixedNow.Add(-16 * time.Minute)},
		}}

		alert, err := newTestService(repo, readings).CheckDeviceOffline(context.Background(), device)
		assert.NoError(t, err)
		assert.NotNil(t, alert)
	})

	t.Run("never reported device is not flagged", func(t *testing.T) {
		repo := &fakeAlertRepo{}

		alert, err := newTestService(repo, &fakeReadings{}).CheckDeviceOffline(context.Background(), device)
		assert.NoError(t, err)
		assert.Nil(t, alert)
		assert.Empty(t, repo.created)
	})

	t.Run("repeated sweeps are not deduplicated", func(t *testing.T) {
		repo := &fakeAlertRepo{}
		readings := &fakeReadings{latest: map[uint]*model.SensorData{
			5: {RecordedAt: fixedNow.Add(-time.Hour)},
		}}
		svc := newTestService(repo, readings)

		for i := 0; i < 3; i++ {
			_, err := svc.CheckDeviceOffline(context.Background(), device)
			require.NoError(t, err)
		}
		assert.Len(t, repo.created, 3)
	})

	t.Run("lookup failure is propagated", func(t *testing.T) {
		lookupErr := errors.New("timeout")
		alert, err := newTestService(&fakeAlertRepo{}, &fakeReadings{err: lookupErr}).
			CheckDeviceOffline(context.Background(), device)

		assert.ErrorIs(t, err, lookupErr)
		assert.Nil(t, alert)
	})
}

func TestResolve_SecondCallOverwrites(t *testing.T) {
	repo := &fakeAlertRepo{}
	now := fixedNow
	svc := NewService(repo, &fakeReadings{}, defaultThresholds,
		WithClock(ClockFunc(func() time.Time { return now })))
	alert := &model.Alert{ID: 1}

	require.NoError(t, svc.Resolve(context.Background(), alert))
	assert.Equal(t, fixedNow, *alert.ResolvedAt)

	now = fixedNow.Add(time.Hour)
	require.NoError(t, svc.Resolve(context.Background(), alert))
	assert.Equal(t, fixedNow.Add(time.Hour), *alert.ResolvedAt)
	assert.Len(t, repo.resolved, 2)
}

func TestEvaluateSensorData_SnapshotMatchesFiredBound(t *testing.T) {
	var reads int
	src := ThresholdFunc(func() Thresholds {
		reads++
		th := defaultThresholds
		if reads > 1 {
			th.CriticalMax = 60
		}
		return th
	})
	repo := &fakeAlertRepo{}
	svc := NewService(repo, &fakeReadings{}, src)

	alerts, err := svc.EvaluateSensorData(context.Background(), model.Device{ID: 1, Name: "d"}, &model.SensorData{ID: 5, Temperature: 50})
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	assert.Equal(t, 1, reads, "thresholds are read once per evaluation")
	assert.Equal(t, model.AlertTypeTemperatureCriticalHigh, alerts[0].AlertType)
	require.NotNil(t, alerts[0].ThresholdMax)
	assert.Equal(t, 45.0, *alerts[0].ThresholdMax)
	assert.Equal(t, "Temperature alert for device 'd': 50.00°C is above maximum threshold (45°C)", alerts[0].Message)
}
