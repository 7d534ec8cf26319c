package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"thermo-monitor-backend/config"
	"thermo-monitor-backend/internal/logger"
	"thermo-monitor-backend/internal/metrics"
	"thermo-monitor-backend/internal/model"
	"thermo-monitor-backend/internal/notification"
)

// DeviceLister returns the devices that should be checked for liveness.
type DeviceLister interface {
	ActiveDevices(ctx context.Context) ([]model.Device, error)
}

// OfflineChecker creates an offline alert for a silent device.
type OfflineChecker interface {
	CheckDeviceOffline(ctx context.Context, device model.Device) (*model.Alert, error)
}

// Summary reports the outcome of one sweep.
type Summary struct {
	Checked int
	Offline []*model.Alert
	Failed  int
}

// Service periodically checks every active device for missing readings.
type Service struct {
	cfg        config.SweepConfig
	devices    DeviceLister
	checker    OfflineChecker
	dispatcher notification.Dispatcher
	log        zerolog.Logger
}

// NewService creates a sweep service. A nil dispatcher discards alerts.
func NewService(cfg config.SweepConfig, devices DeviceLister, checker OfflineChecker, dispatcher notification.Dispatcher) *Service {
	if dispatcher == nil {
		dispatcher = notification.Discard
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Service{
		cfg:        cfg,
		devices:    devices,
		checker:    checker,
		dispatcher: dispatcher,
		log:        logger.WithComponent("sweep"),
	}
}

// Run sweeps immediately and then once per interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info().Msg("offline sweep is disabled, not starting")
		return
	}
	s.log.Info().Dur("interval", s.cfg.Interval).Msg("starting offline sweep")

	s.runOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("offline sweep shutting down")
			return
		case <-timer.C:
			s.runOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	summary, err := s.SweepOnce(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("offline sweep finished with errors")
	}
	if summary != nil {
		s.log.Info().
			Int("checked", summary.Checked).
			Int("offline", len(summary.Offline)).
			Int("failed", summary.Failed).
			Msg("offline sweep complete")
	}
}

// SweepOnce checks every active device. Devices are checked independently, so
// one failure does not stop the others; all failures are joined into the
// returned error.
func (s *Service) SweepOnce(ctx context.Context) (*Summary, error) {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	devices, err := s.devices.ActiveDevices(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		summary = &Summary{Checked: len(devices)}
		errs    []error
		g       errgroup.Group
	)
	g.SetLimit(s.cfg.Concurrency)

	for _, device := range devices {
		device := device
		g.Go(func() error {
			alert, err := s.checker.CheckDeviceOffline(ctx, device)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				errs = append(errs, fmt.Errorf("device %s: %w", device.SerialNumber, err))
				metrics.SweepDevices.WithLabelValues("error").Inc()
			case alert != nil:
				summary.Offline = append(summary.Offline, alert)
				metrics.SweepDevices.WithLabelValues("offline").Inc()
			default:
				metrics.SweepDevices.WithLabelValues("online").Inc()
			}
			return nil
		})
	}
	// Goroutines always return nil; per-device errors are collected in errs.
	_ = g.Wait()

	for _, alert := range summary.Offline {
		s.dispatcher.Dispatch(alert.ID)
	}
	return summary, errors.Join(errs...)
}
