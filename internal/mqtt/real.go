package mqtt

import (
	"errors"
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/rf-sniffer/internal/logic"
)

const publishTimeout = 5 * time.Second

// RealPublisher publishes to a broker. Messages produced while disconnected
// are held in an outbox and flushed on reconnect.
type RealPublisher struct {
	client paho.Client
	box    *outbox
	now    func() time.Time
}

// NewRealPublisher starts connecting to broker in the background and
// returns immediately; paho keeps retrying until Close.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := &RealPublisher{box: newOutbox(DefaultOutboxSize), now: time.Now}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: p.now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func (p *RealPublisher) onConnect(paho.Client) {
	msgs, dropped := p.box.take()
	log.Printf("mqtt: connected, flushing %d buffered messages (%d dropped)", len(msgs), dropped)
	for i, m := range msgs {
		if err := p.send(m); err != nil {
			log.Printf("mqtt: flush: %v", err)
			for _, rest := range msgs[i:] {
				p.box.add(rest)
			}
			return
		}
	}
	if len(msgs) > 0 {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
		p.publish(message{topic: TopicSystem, payload: payload, qos: 1})
	}
}

func (p *RealPublisher) send(m message) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("publish timeout")
	}
	return token.Error()
}

// publish sends m now or queues it when the broker is unreachable.
func (p *RealPublisher) publish(m message) error {
	if !p.client.IsConnectionOpen() {
		p.box.add(m)
		return nil
	}
	if err := p.send(m); err != nil {
		p.box.add(m)
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// Publish sends a capture or transmit event (QoS 0, not retained).
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(message{topic: Topic, payload: payload})
}

// PublishSystem sends a lifecycle event at QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered is the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	return p.box.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
