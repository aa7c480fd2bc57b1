// Package mqtt wraps the Eclipse Paho client into per-worker sessions.
// Paho's background dispatch goroutine pushes lifecycle and message events
// onto channels the worker drains synchronously, so no worker logic ever
// mutates state from a callback.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/mqttbench/infra/logger"
	"github.com/kilianp07/mqttbench/internal/eventbus"
)

// ErrReadyTimeout marks an expired connect+subscribe wait. Fatal for the
// affected worker.
var ErrReadyTimeout = errors.New("timed out waiting for connect and subscribe acknowledgment")

// Status marks a connection lifecycle transition reported by the client.
type Status int

const (
	StatusConnected Status = iota + 1
	StatusSubscribed
	StatusConnectionLost
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Session is one MQTT connection subscribing to a single verification topic.
type Session struct {
	cli      pahoClient
	log      logger.Logger
	status   *eventbus.TypedBus[Status]
	statusCh <-chan Status
	inbound  *eventbus.TypedBus[[]byte]
	messages <-chan []byte
}

// Dial connects to the broker and subscribes to subscribeTopic. The inbound
// buffer must be sized for the expected message volume; events overflowing
// it are dropped by the bus and count as unobserved.
func Dial(cfg Config, subscribeTopic string, qos byte, buffer int, log logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	status := eventbus.NewTyped[Status]()
	inbound := eventbus.NewTyped[[]byte]()
	s := &Session{
		log:      log,
		status:   status,
		statusCh: status.SubscribeBuffered(4),
		inbound:  inbound,
		messages: inbound.SubscribeBuffered(buffer),
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL()).
		SetClientID(fmt.Sprintf("%s-%s", cfg.ClientID, uuid.NewString())).
		SetConnectTimeout(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.OnConnect = func(c paho.Client) {
		status.Publish(StatusConnected)
		token := c.Subscribe(subscribeTopic, qos, func(_ paho.Client, msg paho.Message) {
			inbound.Publish(msg.Payload())
		})
		go func() {
			if token.Wait() && token.Error() != nil {
				log.Errorf("subscribe %s: %v", subscribeTopic, token.Error())
				return
			}
			status.Publish(StatusSubscribed)
		}()
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
		status.Publish(StatusConnectionLost)
	}

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.BrokerURL(), token.Error())
	}
	s.cli = cli
	return s, nil
}

// WaitReady blocks until both the connection and the subscription are
// acknowledged, or the timeout expires.
func (s *Session) WaitReady(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	var connected, subscribed bool
	for !connected || !subscribed {
		select {
		case st := <-s.statusCh:
			switch st {
			case StatusConnected:
				connected = true
			case StatusSubscribed:
				subscribed = true
			case StatusConnectionLost:
				return fmt.Errorf("connection lost before ready")
			}
		case <-timer.C:
			return ErrReadyTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Publish sends one message and waits for the client acknowledgment.
func (s *Session) Publish(topic string, qos byte, payload []byte) error {
	token := s.cli.Publish(topic, qos, false, payload)
	token.Wait()
	return token.Error()
}

// Messages delivers raw verification payloads.
func (s *Session) Messages() <-chan []byte { return s.messages }

// Close stops event delivery and disconnects.
func (s *Session) Close() {
	s.status.Close()
	s.inbound.Close()
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
}
