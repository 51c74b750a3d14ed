package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatehouse/internal/logger"
	"gatehouse/internal/metrics"
	"gatehouse/internal/models"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	maxPayloadSize = 1 << 20
	alertQoS       = 1
)

var (
	// ErrNotConnected is returned when publishing while the broker is unreachable.
	ErrNotConnected = errors.New("mqtt: not connected")
	// ErrPublishFailed wraps broker-side publish failures.
	ErrPublishFailed = errors.New("mqtt: publish failed")
)

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
}

// PublishFunc sends payload to topic.
type PublishFunc func(topic string, payload []byte) error

// MQTTNotifier publishes alert events as JSON to <prefix>/<severity>.
type MQTTNotifier struct {
	client  pahomqtt.Client
	publish PublishFunc
	prefix  string
	metrics *metrics.Metrics
}

var _ AlertNotifier = (*MQTTNotifier)(nil)

// Connect dials the broker and returns a notifier bound to it.
func Connect(cfg MQTTConfig, m *metrics.Metrics) (*MQTTNotifier, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("mqtt: broker url is required")
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetMaxReconnectInterval(time.Minute).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			logger.Named("mqtt").Warnw("MQTT connection lost", "error", err)
		})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt: connect timeout after %v", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", err)
	}

	n := NewMQTTNotifier(cfg.TopicPrefix, clientPublisher(client), m)
	n.client = client
	return n, nil
}

// NewMQTTNotifier creates a notifier that sends through publish.
func NewMQTTNotifier(prefix string, publish PublishFunc, m *metrics.Metrics) *MQTTNotifier {
	return &MQTTNotifier{
		publish: publish,
		prefix:  strings.TrimSuffix(prefix, "/"),
		metrics: m,
	}
}

func clientPublisher(client pahomqtt.Client) PublishFunc {
	return func(topic string, payload []byte) error {
		if !client.IsConnectionOpen() {
			return ErrNotConnected
		}
		token := client.Publish(topic, alertQoS, false, payload)
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, publishTimeout)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("%w: %w", ErrPublishFailed, err)
		}
		return nil
	}
}

// Topic returns the topic an alert of the given severity is published on.
func (n *MQTTNotifier) Topic(severity models.AlertSeverity) string {
	return n.prefix + "/" + string(severity)
}

// AlertChanged publishes event. Failures are logged and counted, never returned.
func (n *MQTTNotifier) AlertChanged(event AlertEvent) {
	if event.Alert == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Named("mqtt").Errorw("failed to encode alert event", "error", err, "alert_id", event.Alert.ID)
		n.metrics.AlertPublished(false)
		return
	}
	if len(payload) > maxPayloadSize {
		logger.Named("mqtt").Errorw("alert event exceeds payload limit", "alert_id", event.Alert.ID, "size", len(payload))
		n.metrics.AlertPublished(false)
		return
	}

	topic := n.Topic(event.Alert.Severity)
	if err := n.publish(topic, payload); err != nil {
		logger.Named("mqtt").Warnw("failed to publish alert event",
			"error", err,
			"topic", topic,
			"alert_id", event.Alert.ID,
			"event", event.Event,
		)
		n.metrics.AlertPublished(false)
		return
	}
	n.metrics.AlertPublished(true)
}

// Close disconnects from the broker, allowing pending publishes to finish.
func (n *MQTTNotifier) Close() {
	if n.client != nil && n.client.IsConnected() {
		n.client.Disconnect(250)
	}
}
