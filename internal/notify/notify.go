// Package notify publishes confirmation outcomes to subscribers.
package notify

import (
	"context"
	"time"

	"github.com/lugondev/go-umi/internal/confirm"
	"github.com/lugondev/go-umi/internal/journal"
)

// ConfirmationEvent is published once a submission reaches an outcome.
type ConfirmationEvent struct {
	Signature string        `json:"signature"`
	Cluster   string        `json:"cluster"`
	State     confirm.State `json:"state"`
	Slot      uint64        `json:"slot,omitempty"`
	Error     string        `json:"error,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
	PublishedAt time.Time `json:"published_at"`
}

// FromEntry converts a journal entry to an event.
func FromEntry(e *journal.Entry) *ConfirmationEvent {
	return &ConfirmationEvent{
		Signature:   e.Signature,
		Cluster:     e.Cluster,
		State:       e.State,
		Slot:        e.Slot,
		Error:       e.Error,
		SubmittedAt: e.CreatedAt,
		PublishedAt: time.Now().UTC(),
	}
}

// Publisher delivers confirmation events.
type Publisher interface {
	// PublishConfirmation publishes to "umi.confirmations.{cluster}".
	PublishConfirmation(ctx context.Context, event *ConfirmationEvent) error

	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

var _ Publisher = NoopPublisher{}

// PublishConfirmation discards event.
func (NoopPublisher) PublishConfirmation(context.Context, *ConfirmationEvent) error { return nil }

// Close does nothing.
func (NoopPublisher) Close() error { return nil }
