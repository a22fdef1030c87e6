package mqtt

import (
	"log"
	"sync"
)

// DefaultOutboxSize is how many messages are held while disconnected.
const DefaultOutboxSize = 100

type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages produced while the broker is unreachable. Once full,
// the oldest message is dropped for each new one.
type outbox struct {
	mu      sync.Mutex
	msgs    []message
	limit   int
	dropped int
}

func newOutbox(limit int) *outbox {
	return &outbox{limit: limit}
}

func (o *outbox) add(m message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.msgs) == o.limit {
		if o.dropped == 0 {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", o.limit)
		}
		o.dropped++
		copy(o.msgs, o.msgs[1:])
		o.msgs[len(o.msgs)-1] = m
		return
	}
	o.msgs = append(o.msgs, m)
}

// take empties the outbox, oldest first, and reports how many messages were
// dropped since the last take.
func (o *outbox) take() ([]message, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	msgs, dropped := o.msgs, o.dropped
	o.msgs, o.dropped = nil, 0
	return msgs, dropped
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.msgs)
}
