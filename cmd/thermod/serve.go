package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/spf13/cobra"

	"thermo-monitor-backend/internal/alerting"
	"thermo-monitor-backend/internal/api"
	"thermo-monitor-backend/internal/auth"
	"thermo-monitor-backend/internal/ingest"
	"thermo-monitor-backend/internal/logger"
	"thermo-monitor-backend/internal/mqtt"
	"thermo-monitor-backend/internal/notification"
	"thermo-monitor-backend/internal/sweep"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the offline sweep and optional MQTT ingestion",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, appStore, err := bootstrap()
	if err != nil {
		return err
	}
	log := logger.WithComponent("serve")

	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must be configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	thresholds := thresholdsFrom(cfg)
	alerts := alerting.NewService(appStore.Alerts(), appStore.SensorData(), thresholds,
		alerting.WithLogger(logger.WithComponent("alerting")))

	var webpushOptions *webpush.Options
	var dispatcher notification.Dispatcher = notification.Discard
	var pool *notification.WorkerPool
	if cfg.Push.Enabled {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, notification.StoreLookup(appStore), webpushOptions)
		pool.Start(ctx)
		dispatcher = pool
	} else {
		log.Warn().Msg("push notifications disabled")
	}

	recorder := ingest.NewRecorder(appStore.Devices(), appStore.SensorData(), alerts, dispatcher)

	sweeper := sweep.NewService(cfg.Sweep, appStore.Devices(), alerts, dispatcher)
	go sweeper.Run(ctx)

	if cfg.MQTT.Enabled {
		sub := mqtt.NewSubscriber(cfg.MQTT, recorder)
		if err := sub.Start(); err != nil {
			return fmt.Errorf("start mqtt subscriber: %w", err)
		}
		defer sub.Stop()
	}

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, nil)
	handler := api.NewHandler(api.Deps{
		Store:      appStore,
		Alerts:     alerts,
		Recorder:   recorder,
		Issuer:     issuer,
		Thresholds: thresholds,
		WebPush:    webpushOptions,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		CacheTTL:        time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
		Verifier:        issuer,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping services")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	stop()
	if pool != nil {
		pool.Wait()
	}

	log.Info().Msg("server gracefully stopped")
	return nil
}
