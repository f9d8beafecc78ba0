// Package progress carries structured stage-progress events from the stage
// runner to whichever consumer is listening: the console, the TUI log pane,
// or a test harness. Stages never write to stdout directly.

package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Event is one progress notification emitted while a stage runs.
type Event struct {
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Normalize applies defaults and canonical formatting.
func (e *Event) Normalize(now time.Time) {
	if e == nil {
		return
	}
	e.Stage = strings.TrimSpace(e.Stage)
	e.Message = strings.TrimSpace(e.Message)
	if e.Timestamp.IsZero() {
		if now.IsZero() {
			now = time.Now()
		}
		e.Timestamp = now.UTC()
	}
}

// Sink consumes progress events.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function into a Sink.
type SinkFunc func(Event)

// Publish executes f(e).
func (f SinkFunc) Publish(e Event) {
	if f == nil {
		return
	}
	f(e)
}

// Emit normalizes and publishes a formatted event. A nil sink drops the
// event, so callers never guard.
func Emit(sink Sink, stage, format string, args ...any) {
	if sink == nil {
		return
	}
	event := Event{Stage: stage, Message: fmt.Sprintf(format, args...)}
	event.Normalize(time.Now())
	sink.Publish(event)
}

// Multi fans one event out to several sinks.
func Multi(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return SinkFunc(func(e Event) {
		for _, s := range filtered {
			s.Publish(e)
		}
	})
}

// NewConsoleSink renders events as single lines to the given writer.
func NewConsoleSink(w io.Writer) Sink {
	return SinkFunc(func(e Event) {
		fmt.Fprintf(w, "[%s] %s\n", e.Stage, e.Message)
	})
}

// Capture is a sink that records every event, for tests and the TUI.
type Capture struct {
	mu     sync.Mutex
	events []Event
}

// NewCapture returns an empty capture sink.
func NewCapture() *Capture {
	return &Capture{}
}

// Publish records the event.
func (c *Capture) Publish(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of the recorded events in arrival order.
func (c *Capture) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Reset clears the recorded events.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
