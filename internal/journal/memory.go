package journal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lugondev/go-umi/internal/errors"
)

// MemoryRepository keeps entries in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]*Entry)}
}

// Save stores a copy of e. Re-saving a signature keeps its ID and creation
// time.
func (r *MemoryRepository) Save(ctx context.Context, e *Entry) error {
	if e == nil || e.Signature == "" {
		return errors.JournalFailure("save entry", fmt.Errorf("entry has no signature"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *e
	if existing, ok := r.entries[e.Signature]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	}
	r.entries[e.Signature] = &stored
	return nil
}

// Update changes the state, slot and error of the entry for e.Signature.
func (r *MemoryRepository) Update(ctx context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateLocked(e)
}

// UpdateBatch applies Update to every entry under one lock.
func (r *MemoryRepository) UpdateBatch(ctx context.Context, entries []*Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		if err := r.updateLocked(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryRepository) updateLocked(e *Entry) error {
	existing, ok := r.entries[e.Signature]
	if !ok {
		return errors.JournalFailure("update entry", fmt.Errorf("no entry for signature %s", e.Signature))
	}
	existing.State = e.State
	existing.Slot = e.Slot
	existing.Error = e.Error
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

// FindBySignature returns a copy of the entry, nil when absent.
func (r *MemoryRepository) FindBySignature(ctx context.Context, signature string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[signature]
	if !ok {
		return nil, nil
	}
	out := *e
	return &out, nil
}

// FindPending returns unsettled entries oldest first. Entries created at
// the same instant are ordered by signature so pages are stable.
func (r *MemoryRepository) FindPending(ctx context.Context, limit int, offset int) ([]*Entry, error) {
	if err := CheckPage("find pending entries", limit, offset); err != nil {
		return nil, err
	}
	all := r.snapshot()
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Signature < all[j].Signature
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	pending := make([]*Entry, 0)
	for _, e := range all {
		if !e.Settled() {
			pending = append(pending, e)
		}
	}
	return page(pending, limit, offset), nil
}

// List returns entries newest first.
func (r *MemoryRepository) List(ctx context.Context, limit int, offset int) ([]*Entry, error) {
	if err := CheckPage("list entries", limit, offset); err != nil {
		return nil, err
	}
	all := r.snapshot()
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Signature > all[j].Signature
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return page(all, limit, offset), nil
}

func page(entries []*Entry, limit, offset int) []*Entry {
	if offset >= len(entries) {
		return []*Entry{}
	}
	entries = entries[offset:]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func (r *MemoryRepository) snapshot() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		c := *e
		out = append(out, &c)
	}
	return out
}

// Ping always succeeds.
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (r *MemoryRepository) Close() error {
	return nil
}
