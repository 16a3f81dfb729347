package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/config"
	"github.com/arnavshah/crew-scheduler-api/pkg/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher is the subset of the paho client used for publishing.
type Publisher interface {
	IsConnected() bool
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier publishes events on <prefix>/missions/<mission id>/assignments
// so dashboards can refresh in real time.
type MQTTNotifier struct {
	client   Publisher
	prefix   string
	qos      byte
	retained bool
	timeout  time.Duration
}

// NewMQTTNotifier connects to the configured broker.
func NewMQTTNotifier(cfg config.MQTTConfig, log logger.Logger) (*MQTTNotifier, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(mqtt.Client) {
		log.Infof("connected to MQTT broker %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warnf("MQTT connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return NewMQTTNotifierWithClient(client, cfg.TopicPrefix, cfg.QoS, cfg.Retained), nil
}

// NewMQTTNotifierWithClient wraps an existing publisher.
func NewMQTTNotifierWithClient(client Publisher, prefix string, qos byte, retained bool) *MQTTNotifier {
	return &MQTTNotifier{client: client, prefix: prefix, qos: qos, retained: retained, timeout: 5 * time.Second}
}

// Topic returns the topic events for missionID are published on.
func (m *MQTTNotifier) Topic(missionID string) string {
	return fmt.Sprintf("%s/missions/%s/assignments", m.prefix, missionID)
}

func (m *MQTTNotifier) Notify(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.Topic(ev.MissionID), m.qos, m.retained, payload)

	timeout := m.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt publish to %s timed out", m.Topic(ev.MissionID))
	}
	return token.Error()
}

// Close disconnects from the broker.
func (m *MQTTNotifier) Close() {
	if m.client.IsConnected() {
		m.client.Disconnect(250)
	}
}
