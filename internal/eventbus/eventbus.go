// Package eventbus provides a small in-process publish/subscribe bus used
// to decouple solve and telemetry producers from their consumers.
package eventbus

import (
	"sync"
	"time"

	"github.com/sunpeak/dispatchd/core/model"
)

// Event is implemented by every message type carried on the bus.
type Event interface {
	EventKind() string
}

// SolveEvent is published after a dispatch solve completes successfully.
type SolveEvent struct {
	RunID string
	Plan  model.DispatchPlan
	At    time.Time
}

func (SolveEvent) EventKind() string { return "solve" }

// TelemetryEvent carries a fresh plant telemetry snapshot.
type TelemetryEvent struct {
	Telemetry model.PlantTelemetry
	At        time.Time
}

func (TelemetryEvent) EventKind() string { return "telemetry" }

// WeatherEvent carries a fresh weather observation.
type WeatherEvent struct {
	Weather model.WeatherSnapshot
	At      time.Time
}

func (WeatherEvent) EventKind() string { return "weather" }

// Bus fans events out to subscribers. Delivery is non-blocking: a
// subscriber that does not drain its channel misses events rather than
// stalling the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// New creates an empty Bus.
func New() *Bus { return &Bus{} }

// Publish sends the event to all subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its channel.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes the bus and all subscriber channels. Further publishes
// are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
