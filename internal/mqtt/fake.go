package mqtt

import (
	"github.com/sweeney/rf-sniffer/internal/logic"
)

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Events holds every decoded, undecoded and transmit event published.
	Events []logic.Event

	// Payloads holds the JSON payload of each entry in Events.
	Payloads [][]byte

	// SystemEvents holds the STARTUP, HEARTBEAT and SHUTDOWN events.
	SystemEvents []SystemEvent

	// SystemPayloads holds the JSON payload of each entry in SystemEvents.
	SystemPayloads [][]byte

	// PublishError, if set, is returned by Publish and nothing is recorded.
	PublishError error

	// PublishSystemError, if set, is returned by PublishSystem.
	PublishSystemError error

	// Closed is set once Close has been called.
	Closed bool

	// Connected is what IsConnected reports.
	Connected bool
}

// NewFakePublisher creates a disconnected FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the event and its payload.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event and its payload.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the publisher closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports the Connected field.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// SystemEventNames lists the recorded system events in order.
func (f *FakePublisher) SystemEventNames() []string {
	out := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		out[i] = e.Event
	}
	return out
}
