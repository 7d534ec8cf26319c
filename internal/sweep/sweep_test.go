package sweep

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermo-monitor-backend/config"
	"thermo-monitor-backend/internal/model"
)

type staticDevices struct {
	devices []model.Device
	err     error
}

func (s staticDevices) ActiveDevices(context.Context) ([]model.Device, error) {
	return s.devices, s.err
}

// scriptedChecker reports devices in offline as silent and fails for those in failing.
type scriptedChecker struct {
	offline  map[uint]bool
	failing  map[uint]bool
	inFlight int32
	maxSeen  int32
	calls    int32
}

func (c *scriptedChecker) CheckDeviceOffline(_ context.Context, d model.Device) (*model.Alert, error) {
	atomic.AddInt32(&c.calls, 1)
	n := atomic.AddInt32(&c.inFlight, 1)
	defer atomic.AddInt32(&c.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&c.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&c.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if c.failing[d.ID] {
		return nil, errors.New("lookup failed")
	}
	if c.offline[d.ID] {
		return &model.Alert{ID: 100 + d.ID, DeviceID: d.ID, AlertType: model.AlertTypeSensorOffline}, nil
	}
	return nil, nil
}

type collectingDispatcher struct {
	mu  sync.Mutex
	ids []uint
}

func (d *collectingDispatcher) Dispatch(id uint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, id)
}

func devices(n int) []model.Device {
	out := make([]model.Device, n)
	for i := range out {
		out[i] = model.Device{ID: uint(i + 1), SerialNumber: "SN", IsActive: true}
	}
	return out
}

func TestSweepOnce_ChecksEveryDevice(t *testing.T) {
	checker := &scriptedChecker{offline: map[uint]bool{2: true, 5: true}}
	dispatcher := &collectingDispatcher{}
	svc := NewService(config.SweepConfig{Concurrency: 3}, staticDevices{devices: devices(8)}, checker, dispatcher)

	summary, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, summary.Checked)
	assert.Equal(t, 0, summary.Failed)
	assert.Len(t, summary.Offline, 2)
	assert.Equal(t, int32(8), checker.calls)
	assert.LessOrEqual(t, checker.maxSeen, int32(3), "concurrency is bounded")
	assert.ElementsMatch(t, []uint{102, 105}, dispatcher.ids)
}

func TestSweepOnce_FailuresDoNotStopOthers(t *testing.T) {
	checker := &scriptedChecker{
		offline: map[uint]bool{3: true},
		failing: map[uint]bool{1: true, 2: true},
	}
	svc := NewService(config.SweepConfig{Concurrency: 2}, staticDevices{devices: devices(4)}, checker, nil)

	summary, err := svc.SweepOnce(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "lookup failed")
	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, summary.Offline, 1)
	assert.Equal(t, int32(4), checker.calls)
}

func TestSweepOnce_ListingError(t *testing.T) {
	listErr := errors.New("db down")
	svc := NewService(config.SweepConfig{}, staticDevices{err: listErr}, &scriptedChecker{}, nil)

	summary, err := svc.SweepOnce(context.Background())
	assert.ErrorIs(t, err, listErr)
	assert.Nil(t, summary)
}

func TestRun_DisabledReturnsImmediately(t *testing.T) {
	checker := &scriptedChecker{}
	svc := NewService(config.SweepConfig{Enabled: false}, staticDevices{devices: devices(1)}, checker, nil)

	svc.Run(context.Background())
	assert.Equal(t, int32(0), checker.calls)
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	checker := &scriptedChecker{}
	svc := NewService(config.SweepConfig{Enabled: true, Interval: 10 * time.Millisecond, Concurrency: 1},
		staticDevices{devices: devices(1)}, checker, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&checker.calls) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
