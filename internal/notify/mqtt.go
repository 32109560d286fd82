// Package notify pushes per-user events to the Mini App over MQTT.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	EventPayment = "payment"
	EventPrayers = "prayers"
)

type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, userID int64, ev Event) error
	Close()
}

// Topic is where the events of one user are published.
func Topic(userID int64) string {
	return fmt.Sprintf("islamapp/users/%d/events", userID)
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, int64, Event) error { return nil }
func (Nop) Close()                                      {}

// publishClient is the part of mqtt.Client the publisher needs.
type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type MQTT struct {
	client  publishClient
	conn    mqtt.Client
	timeout time.Duration
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("[notify] connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("[notify] MQTT connection lost")
}

// Connect dials the broker; paho keeps reconnecting on its own afterwards.
func Connect(brokerURL, clientID string) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &MQTT{client: c, conn: c, timeout: 5 * time.Second}, nil
}

func (m *MQTT) Publish(ctx context.Context, userID int64, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	topic := Topic(userID)
	token := m.client.Publish(topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.timeout):
		return fmt.Errorf("publish to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	log.Debug().Str("topic", topic).Str("type", ev.Type).Msg("[notify] event published")
	return nil
}

func (m *MQTT) Close() {
	if m.conn != nil {
		m.conn.Disconnect(250)
		log.Info().Msg("[notify] MQTT client disconnected")
	}
}
