package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/itohio/kuuki/pkg/record"
)

// DefaultTopic is where records are published when none is configured.
const DefaultTopic = "kuuki/record"

// MQTT publishes each record as a JSON document to a broker topic.
type MQTT struct {
	client mqtt.Client
	topic  string
	log    *zap.Logger
}

// NewMQTT connects to the broker and returns a publishing sink. An
// empty topic selects DefaultTopic; a nil logger disables logging.
func NewMQTT(broker, topic string, log *zap.Logger) (*MQTT, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	if log == nil {
		log = zap.NewNop()
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	clientID := fmt.Sprintf("kuuki-%s-%d", hostname, os.Getpid())

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, token.Error())
	}
	log.Info("connected to MQTT broker", zap.String("broker", broker), zap.String("topic", topic))

	return &MQTT{client: client, topic: topic, log: log}, nil
}

func (m *MQTT) Name() string { return "mqtt" }

func (m *MQTT) Emit(rec record.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if token := m.client.Publish(m.topic, 0, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", m.topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight publishes a
// short grace period.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
