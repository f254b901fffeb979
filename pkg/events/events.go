// Package events carries submission lifecycle notifications to external
// listeners.
package events

import (
	"context"
	"sync"
)

const (
	// Success is dispatched after a submission completes.
	Success = "web3forms:success"
	// Error is dispatched when validation, rendering or relaying fails.
	Error = "web3forms:error"
)

// Event is a named notification with an arbitrary payload.
type Event struct {
	Name   string `json:"name"`
	Detail any    `json:"detail,omitempty"`
}

// ErrorDetail is the payload of Error events.
type ErrorDetail struct {
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}

// Sink receives events.
type Sink interface {
	Dispatch(ctx context.Context, event Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event)

// Dispatch implements Sink.
func (f SinkFunc) Dispatch(ctx context.Context, event Event) {
	if f != nil {
		f(ctx, event)
	}
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) {})

// Fanout dispatches to each sink in order.
func Fanout(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, event Event) {
		for _, sink := range sinks {
			if sink != nil {
				sink.Dispatch(ctx, event)
			}
		}
	})
}

// Recorder keeps dispatched events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Dispatch implements Sink.
func (r *Recorder) Dispatch(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
