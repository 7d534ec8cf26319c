package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"thermo-monitor-backend/internal/logger"
	"thermo-monitor-backend/internal/metrics"
	"thermo-monitor-backend/internal/model"
	"thermo-monitor-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Dispatcher accepts IDs of freshly created alerts for delivery.
type Dispatcher interface {
	Dispatch(alertID uint)
}

// Discard is a Dispatcher that drops every alert, used when push is disabled.
var Discard Dispatcher = discard{}

type discard struct{}

func (discard) Dispatch(uint) {}

// Lookup is the read/write surface the workers need from storage.
type Lookup interface {
	FindAlert(ctx context.Context, id uint) (*model.Alert, error)
	FindDevice(ctx context.Context, id uint) (*model.Device, error)
	SubscriptionsForUser(ctx context.Context, userID uint) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// StoreLookup adapts a store.Store to Lookup.
func StoreLookup(s store.Store) Lookup {
	return storeLookup{s}
}

type storeLookup struct{ s store.Store }

func (l storeLookup) FindAlert(ctx context.Context, id uint) (*model.Alert, error) {
	return l.s.Alerts().FindByID(ctx, id)
}

func (l storeLookup) FindDevice(ctx context.Context, id uint) (*model.Device, error) {
	return l.s.Devices().FindByID(ctx, id)
}

func (l storeLookup) SubscriptionsForUser(ctx context.Context, userID uint) ([]model.PushSubscription, error) {
	return l.s.Subscriptions().FindByUser(ctx, userID)
}

func (l storeLookup) DeleteSubscription(ctx context.Context, endpoint string) error {
	return l.s.Subscriptions().Delete(ctx, endpoint)
}

// Payload is the JSON body delivered to the browser.
type Payload struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	AlertID  uint   `json:"alert_id"`
	DeviceID uint   `json:"device_id"`
	Severity string `json:"severity"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan uint
	lookup  Lookup
	webpush *webpush.Options
	sender  NotificationSender
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, lookup Lookup, webpushOptions *webpush.Options) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan uint, size*16),
		lookup:  lookup,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
		log:     logger.WithComponent("notification"),
	}
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has returned.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.log.Debug().Int("worker", id).Msg("worker started")
	for {
		select {
		case alertID := <-wp.jobs:
			wp.notifyOwner(ctx, alertID)
		case <-ctx.Done():
			wp.log.Debug().Int("worker", id).Msg("worker shutting down")
			return
		}
	}
}

// Dispatch queues an alert without blocking. When the queue is full, or the
// workers have stopped and nothing drains it, the notification is dropped; the
// alert itself is already stored.
func (wp *WorkerPool) Dispatch(alertID uint) {
	select {
	case wp.jobs <- alertID:
	default:
		metrics.NotificationsSent.WithLabelValues("dropped").Inc()
		wp.log.Warn().Uint("alert_id", alertID).Msg("notification queue full, dropping alert")
	}
}

// notifyOwner pushes the alert to every subscription of the device owner.
func (wp *WorkerPool) notifyOwner(ctx context.Context, alertID uint) {
	log := wp.log.With().Uint("alert_id", alertID).Logger()

	alert, err := wp.lookup.FindAlert(ctx, alertID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load alert")
		return
	}
	device, err := wp.lookup.FindDevice(ctx, alert.DeviceID)
	if err != nil {
		log.Error().Err(err).Uint("device_id", alert.DeviceID).Msg("failed to load device")
		return
	}
	subscriptions, err := wp.lookup.SubscriptionsForUser(ctx, device.UserID)
	if err != nil {
		log.Error().Err(err).Uint("user_id", device.UserID).Msg("failed to load subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(Payload{
		Title:    alert.AlertType.Description(),
		Body:     alert.Message,
		AlertID:  alert.ID,
		DeviceID: alert.DeviceID,
		Severity: string(alert.Severity),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode payload")
		return
	}

	log.Info().Int("subscriptions", len(subscriptions)).Msg("sending alert notifications")
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("error").Inc()
		wp.log.Warn().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send notification")
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		metrics.NotificationsSent.WithLabelValues("expired").Inc()
		wp.log.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired, deleting")
		if err := wp.lookup.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
		return
	}
	metrics.NotificationsSent.WithLabelValues("success").Inc()
}
