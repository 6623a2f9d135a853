package transport

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"smartgarden/internal/logger"
	"smartgarden/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	defaultReconnectDelay = 5 * time.Second
	defaultKeepAlive      = 10 * time.Second // heartbeats both directions
	connectTimeout        = 10 * time.Second
	disconnectQuiesceMs   = 250

	subscribeQoS = 1
)

// Config holds broker settings for the MQTT adapter.
type Config struct {
	BrokerURL      string
	ClientID       string
	Username       string
	Password       string
	ReconnectDelay time.Duration
	KeepAlive      time.Duration
}

// MQTTAdapter wraps a paho client behind the Adapter contract. One adapter is
// constructed per view session and owned by it; there is no shared singleton.
type MQTTAdapter struct {
	cfg Config
	log *logger.Logger

	mu     sync.Mutex
	client mqtt.Client
	subs   map[string]struct{} // outstanding topics, unsubscribed on Disconnect
}

var _ Adapter = (*MQTTAdapter)(nil)

// NewMQTTAdapter builds a disconnected adapter. The client ID gets a random
// suffix so two sessions against the same broker never evict each other.
func NewMQTTAdapter(cfg Config, log *logger.Logger) *MQTTAdapter {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = defaultKeepAlive
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "smartgarden-console"
	}
	cfg.ClientID = fmt.Sprintf("%s-%s", cfg.ClientID, uuid.NewString()[:8])
	return &MQTTAdapter{
		cfg:  cfg,
		log:  log.Named("transport"),
		subs: make(map[string]struct{}),
	}
}

// Connect establishes the broker connection. onConnected fires once per
// successful connection, including automatic reconnections after a drop;
// onError fires on the initial failure and on every lost connection.
func (a *MQTTAdapter) Connect(onConnected func(), onError func(error)) error {
	a.mu.Lock()
	if a.client != nil {
		a.mu.Unlock()
		return nil // already connected or connecting
	}

	opts := mqtt.NewClientOptions().
		AddBroker(a.cfg.BrokerURL).
		SetClientID(a.cfg.ClientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(a.cfg.ReconnectDelay).
		SetConnectRetry(true).
		SetConnectRetryInterval(a.cfg.ReconnectDelay).
		SetKeepAlive(a.cfg.KeepAlive).
		SetCleanSession(true)

	if a.cfg.Username != "" {
		opts.SetUsername(a.cfg.Username)
	}
	if a.cfg.Password != "" {
		opts.SetPassword(a.cfg.Password)
	}

	opts.SetOnConnectHandler(func(mqtt.Client) {
		a.log.Infow("mqtt_connected", "broker", a.cfg.BrokerURL)
		if onConnected != nil {
			onConnected()
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		a.log.Warnw("mqtt_connection_lost", "err", err)
		if onError != nil {
			onError(err)
		}
	})

	client := mqtt.NewClient(opts)
	a.client = client
	a.mu.Unlock()

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		err := fmt.Errorf("connect to %s: timeout after %s", a.cfg.BrokerURL, connectTimeout)
		if onError != nil {
			onError(err)
		}
		return err
	}
	if err := token.Error(); err != nil {
		wrapped := fmt.Errorf("connect to %s: %w", a.cfg.BrokerURL, err)
		if onError != nil {
			onError(wrapped)
		}
		return wrapped
	}
	return nil
}

// Subscribe registers a handler for one topic. It fails fast with
// ErrNotConnected while the connection is down; pending subscriptions are
// never queued. Every inbound message is JSON-decoded before forwarding; a
// decode failure is logged and the message dropped.
func (a *MQTTAdapter) Subscribe(topic string, h Handler) (*Subscription, error) {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return nil, ErrNotConnected
	}

	token := client.Subscribe(topic, subscribeQoS, func(_ mqtt.Client, msg mqtt.Message) {
		var decoded models.StateMessage
		if err := json.Unmarshal(msg.Payload(), &decoded); err != nil {
			a.log.Warnw("mqtt_decode_failed", "topic", msg.Topic(), "err", err)
			return
		}
		h(decoded)
	})
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}

	a.mu.Lock()
	a.subs[topic] = struct{}{}
	a.mu.Unlock()
	return &Subscription{Topic: topic}, nil
}

// Disconnect unsubscribes every outstanding topic, then tears the connection
// down. Safe to call repeatedly and when never connected.
func (a *MQTTAdapter) Disconnect() {
	a.mu.Lock()
	client := a.client
	a.client = nil
	topics := make([]string, 0, len(a.subs))
	for t := range a.subs {
		topics = append(topics, t)
	}
	a.subs = make(map[string]struct{})
	a.mu.Unlock()

	if client == nil {
		return
	}
	if client.IsConnected() && len(topics) > 0 {
		if token := client.Unsubscribe(topics...); token.Wait() && token.Error() != nil {
			a.log.Warnw("mqtt_unsubscribe_failed", "err", token.Error())
		}
	}
	client.Disconnect(disconnectQuiesceMs)
	a.log.Infow("mqtt_disconnected")
}

// IsConnected reports the live connection state.
func (a *MQTTAdapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client != nil && a.client.IsConnected()
}
