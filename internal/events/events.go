// Package events carries domain events from the use cases to the brokers.
package events

import (
	"context"
	"errors"
	"time"
)

type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// Multi delivers an event to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, key string, value any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, key, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithTimeout bounds every publish by d. The deadline is detached from the
// caller's cancellation, so an event for an already committed write is not
// dropped when the request goes away, and a stalled broker cannot hold the
// request for longer than d.
func WithTimeout(p Publisher, d time.Duration) Publisher {
	return timeoutPublisher{next: p, d: d}
}

type timeoutPublisher struct {
	next Publisher
	d    time.Duration
}

func (t timeoutPublisher) Publish(ctx context.Context, key string, value any) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.d)
	defer cancel()
	return t.next.Publish(ctx, key, value)
}

type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Recorder keeps every published event in memory.
type Recorder struct {
	Events []Event
}

type Event struct {
	Key   string
	Value any
}

func (r *Recorder) Publish(_ context.Context, key string, value any) error {
	r.Events = append(r.Events, Event{Key: key, Value: value})
	return nil
}
