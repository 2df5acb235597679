package notify

import (
	"context"
	"sync"
)

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.RWMutex
	events []*ConfirmationEvent
	err    error
	closed bool
}

var _ Publisher = (*RecordingPublisher)(nil)

// NewRecordingPublisher returns an empty recorder.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{events: make([]*ConfirmationEvent, 0)}
}

// PublishConfirmation stores event unless an error was set.
func (r *RecordingPublisher) PublishConfirmation(ctx context.Context, event *ConfirmationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

// Close marks the recorder closed.
func (r *RecordingPublisher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Events returns a copy of the published events.
func (r *RecordingPublisher) Events() []*ConfirmationEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ConfirmationEvent, len(r.events))
	copy(out, r.events)
	return out
}

// SetError makes later publishes fail with err.
func (r *RecordingPublisher) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// IsClosed reports whether Close was called.
func (r *RecordingPublisher) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
