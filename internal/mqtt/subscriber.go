package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"thermo-monitor-backend/config"
	"thermo-monitor-backend/internal/ingest"
	"thermo-monitor-backend/internal/logger"
	"thermo-monitor-backend/internal/parse"
)

// handleTimeout bounds the work done for a single message.
const handleTimeout = 10 * time.Second

// Recorder is the ingestion path shared with the HTTP endpoint.
type Recorder interface {
	Record(ctx context.Context, in ingest.Reading, source string) (*ingest.Result, error)
}

// Message is the JSON body devices publish.
type Message struct {
	DeviceSerial string   `json:"device_serial"`
	Temperature  *float64 `json:"temperature"`
	RecordedAt   string   `json:"recorded_at"`
}

// Subscriber records readings published to the configured topic.
type Subscriber struct {
	cfg      config.MQTTConfig
	recorder Recorder
	client   paho.Client
	log      zerolog.Logger
}

// NewSubscriber creates a subscriber. Call Start to connect.
func NewSubscriber(cfg config.MQTTConfig, recorder Recorder) *Subscriber {
	return &Subscriber{
		cfg:      cfg,
		recorder: recorder,
		log:      logger.WithComponent("mqtt"),
	}
}

// Start connects to the broker. The subscription is (re)established on every connect.
func (s *Subscriber) Start() error {
	opts := paho.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
	}
	if s.cfg.Password != "" {
		opts.SetPassword(s.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetOnConnectHandler(func(c paho.Client) {
		token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, func(_ paho.Client, msg paho.Message) {
			if err := s.Handle(msg.Topic(), msg.Payload()); err != nil {
				s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("dropping message")
			}
		})
		if token.Wait() && token.Error() != nil {
			s.log.Error().Err(token.Error()).Str("topic", s.cfg.Topic).Msg("failed to subscribe")
			return
		}
		s.log.Info().Str("topic", s.cfg.Topic).Msg("subscribed")
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.log.Warn().Err(err).Msg("connection to broker lost")
	})

	s.client = paho.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return nil
}

// Stop disconnects from the broker.
func (s *Subscriber) Stop() {
	if s.client != nil {
		s.client.Disconnect(250)
	}
}

// Handle decodes one message and records it. The device serial falls back to
// the topic segment before "/temperature" when the body omits it.
func (s *Subscriber) Handle(topic string, payload []byte) error {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %v", ingest.ErrInvalidReading, err)
	}
	if msg.Temperature == nil {
		return fmt.Errorf("%w: temperature is required", ingest.ErrInvalidReading)
	}

	reading := ingest.Reading{
		DeviceSerial: msg.DeviceSerial,
		Temperature:  *msg.Temperature,
	}
	if reading.DeviceSerial == "" {
		serial, ok := parse.SerialFromTopic(topic)
		if !ok {
			return fmt.Errorf("%w: no device serial in payload or topic %q", ingest.ErrInvalidReading, topic)
		}
		reading.DeviceSerial = serial
	}
	if msg.RecordedAt != "" {
		ts, err := parse.Timestamp(msg.RecordedAt, time.UTC)
		if err != nil {
			return fmt.Errorf("%w: %v", ingest.ErrInvalidReading, err)
		}
		reading.RecordedAt = &ts
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	res, err := s.recorder.Record(ctx, reading, ingest.SourceMQTT)
	if err != nil {
		if errors.Is(err, ingest.ErrDeviceNotFound) || errors.Is(err, ingest.ErrInvalidReading) {
			return err
		}
		return fmt.Errorf("failed to record reading from %s: %w", reading.DeviceSerial, err)
	}
	s.log.Debug().
		Str("device_serial", reading.DeviceSerial).
		Uint("reading_id", res.Reading.ID).
		Int("alerts", len(res.Alerts)).
		Msg("reading received")
	return nil
}
