// Package journal records submitted transactions and their confirmation
// outcomes so that abandoned or timed out waits can be rechecked later.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lugondev/go-umi/internal/confirm"
	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/pkg/types"
)

// Entry is one journalled submission.
type Entry struct {
	ID        string        `json:"id" db:"id"`
	Signature string        `json:"signature" db:"signature"`
	Cluster   string        `json:"cluster" db:"cluster"`
	State     confirm.State `json:"state" db:"state"`
	Strategy  string        `json:"strategy" db:"strategy"`
	Slot      uint64        `json:"slot" db:"slot"`
	Error     string        `json:"error,omitempty" db:"error"`

	// LastValidBlockHeight bounds a blockhash submission. Zero when unknown.
	LastValidBlockHeight uint64 `json:"last_valid_block_height,omitempty" db:"last_valid_block_height"`

	// NonceAccount and NonceValue describe a durable nonce submission.
	NonceAccount string `json:"nonce_account,omitempty" db:"nonce_account"`
	NonceValue   string `json:"nonce_value,omitempty" db:"nonce_value"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewEntry creates a submitted entry with a fresh ID.
func NewEntry(signature, cluster, strategy string) *Entry {
	now := time.Now().UTC()
	return &Entry{
		ID:        uuid.NewString(),
		Signature: signature,
		Cluster:   cluster,
		State:     confirm.StateSubmitted,
		Strategy:  strategy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStrategy records the strategy kind and the data needed to decide
// later that the transaction can no longer land.
func (e *Entry) SetStrategy(s types.ConfirmationStrategy) {
	e.Strategy = string(s.Kind())
	switch {
	case s.Nonce != nil:
		e.NonceAccount = s.Nonce.NonceAccount.String()
		if s.Nonce.NonceValue != (types.Hash{}) {
			e.NonceValue = s.Nonce.NonceValue.String()
		}
	case s.Blockhash != nil:
		e.LastValidBlockHeight = s.Blockhash.LastValidBlockHeight
	}
}

// Settled reports whether the entry holds a final ledger outcome.
func (e *Entry) Settled() bool {
	return e.State.Terminal()
}

// Repository persists journal entries. Entries are keyed by signature.
type Repository interface {
	// Save inserts e, replacing any entry with the same signature.
	Save(ctx context.Context, e *Entry) error

	// Update changes the state, slot and error of an existing entry.
	Update(ctx context.Context, e *Entry) error

	// UpdateBatch applies Update to every entry in one round trip where the
	// backend allows it.
	UpdateBatch(ctx context.Context, entries []*Entry) error

	// FindBySignature returns nil when no entry exists.
	FindBySignature(ctx context.Context, signature string) (*Entry, error)

	// FindPending returns entries without a final outcome, oldest first,
	// skipping the first offset of them. A zero limit means no limit.
	FindPending(ctx context.Context, limit int, offset int) ([]*Entry, error)

	// List returns entries newest first. A zero limit means no limit.
	List(ctx context.Context, limit int, offset int) ([]*Entry, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// pendingStates are the states FindPending selects.
var pendingStates = []confirm.State{
	confirm.StateSubmitted,
	confirm.StatePending,
	confirm.StateAbandoned,
	confirm.StateTimedOut,
}

// PendingStates returns the states of entries without a final outcome.
func PendingStates() []string {
	out := make([]string, len(pendingStates))
	for i, s := range pendingStates {
		out[i] = string(s)
	}
	return out
}

// CheckPage rejects a negative limit or offset.
func CheckPage(what string, limit, offset int) error {
	if limit < 0 || offset < 0 {
		return errors.JournalFailure(what, fmt.Errorf("invalid page: limit %d, offset %d", limit, offset))
	}
	return nil
}
