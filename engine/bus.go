package engine

import (
	"sync"

	"github.com/hupe1980/costpilot/core"
)

// bus delivers one execution's events to its single listener in emission
// order. Delivery is fire and forget: the buffer absorbs a slow consumer,
// and when it is exhausted (consumer gone or stalled) events are dropped so
// the run is never blocked on delivery. The engine's side effects do not
// depend on anyone draining the channel.
type bus struct {
	ch chan core.Event

	mu     sync.Mutex
	closed bool
}

func newBus(buffer int) *bus {
	if buffer < 1 {
		buffer = 1
	}
	return &bus{ch: make(chan core.Event, buffer)}
}

// events returns the listener side of the bus.
func (b *bus) events() <-chan core.Event {
	return b.ch
}

// emit offers an event to the listener without blocking. Returns false when
// the event was dropped.
func (b *bus) emit(ev core.Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	select {
	case b.ch <- ev:
		return true
	default:
		return false
	}
}

// status emits a progress event.
func (b *bus) status(executionID, step, message, agent string) {
	b.emit(core.NewStatusEvent(executionID, step, message, agent))
}

// close ends the event sequence. Emissions after close are no-ops.
func (b *bus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.ch)
	}
}
