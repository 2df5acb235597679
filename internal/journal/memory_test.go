package journal

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-umi/internal/config"
	"github.com/lugondev/go-umi/internal/confirm"
	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/pkg/types"
)

func entryAt(sig string, state confirm.State, created time.Time) *Entry {
	e := NewEntry(sig, "devnet", "blockhash")
	e.State = state
	e.CreatedAt = created
	e.UpdatedAt = created
	return e
}

func TestNewEntry(t *testing.T) {
	e := NewEntry("sig", "devnet", "nonce")
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, confirm.StateSubmitted, e.State)
	assert.False(t, e.Settled())
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)

	other := NewEntry("sig", "devnet", "nonce")
	assert.NotEqual(t, e.ID, other.ID)
}

func TestEntrySetStrategy(t *testing.T) {
	blockhash := NewEntry("sig", "devnet", "")
	blockhash.SetStrategy(types.NewBlockhashStrategy(types.BlockhashWithExpiry{LastValidBlockHeight: 4242}))
	assert.Equal(t, "blockhash", blockhash.Strategy)
	assert.Equal(t, uint64(4242), blockhash.LastValidBlockHeight)
	assert.Empty(t, blockhash.NonceAccount)

	account := solana.NewWallet().PublicKey()
	value := solana.HashFromBytes(bytes.Repeat([]byte{7}, 32))
	nonce := NewEntry("sig", "devnet", "")
	nonce.SetStrategy(types.NewNonceStrategy(account, value, 10))
	assert.Equal(t, "nonce", nonce.Strategy)
	assert.Equal(t, account.String(), nonce.NonceAccount)
	assert.Equal(t, value.String(), nonce.NonceValue)
	assert.Zero(t, nonce.LastValidBlockHeight)

	sampled := NewEntry("sig", "devnet", "")
	sampled.SetStrategy(types.NewNonceStrategy(account, solana.Hash{}, 0))
	assert.Empty(t, sampled.NonceValue)
}

func TestMemoryRepositorySaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	e := NewEntry("sig-1", "devnet", "blockhash")
	require.NoError(t, repo.Save(ctx, e))

	got, err := repo.FindBySignature(ctx, "sig-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e.ID, got.ID)

	// Returned entries are copies.
	got.State = confirm.StateFailed
	again, err := repo.FindBySignature(ctx, "sig-1")
	require.NoError(t, err)
	assert.Equal(t, confirm.StateSubmitted, again.State)

	missing, err := repo.FindBySignature(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryRepositorySaveKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	first := NewEntry("sig", "devnet", "blockhash")
	require.NoError(t, repo.Save(ctx, first))

	second := NewEntry("sig", "devnet", "blockhash")
	second.State = confirm.StatePending
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.FindBySignature(ctx, "sig")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, confirm.StatePending, got.State)
}

func TestMemoryRepositorySaveRejectsEmpty(t *testing.T) {
	repo := NewMemoryRepository()
	err := repo.Save(context.Background(), &Entry{})
	assert.ErrorIs(t, err, errors.ErrJournalFailure)
}

func TestMemoryRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.Save(ctx, NewEntry("sig", "devnet", "blockhash")))

	require.NoError(t, repo.Update(ctx, &Entry{Signature: "sig", State: confirm.StateFailed, Slot: 42, Error: "boom"}))

	got, err := repo.FindBySignature(ctx, "sig")
	require.NoError(t, err)
	assert.Equal(t, confirm.StateFailed, got.State)
	assert.Equal(t, uint64(42), got.Slot)
	assert.Equal(t, "boom", got.Error)
	assert.Equal(t, "devnet", got.Cluster)

	err = repo.Update(ctx, &Entry{Signature: "unknown", State: confirm.StateFailed})
	assert.ErrorIs(t, err, errors.ErrJournalFailure)
}

func TestMemoryRepositoryUpdateBatch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.Save(ctx, NewEntry("a", "devnet", "blockhash")))
	require.NoError(t, repo.Save(ctx, NewEntry("b", "devnet", "blockhash")))

	require.NoError(t, repo.UpdateBatch(ctx, []*Entry{
		{Signature: "a", State: confirm.StateFinalized, Slot: 1},
		{Signature: "b", State: confirm.StateExpired},
	}))

	a, _ := repo.FindBySignature(ctx, "a")
	b, _ := repo.FindBySignature(ctx, "b")
	assert.Equal(t, confirm.StateFinalized, a.State)
	assert.Equal(t, confirm.StateExpired, b.State)

	pending, err := repo.FindPending(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMemoryRepositoryFindPending(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, entryAt("done", confirm.StateFinalized, base)))
	require.NoError(t, repo.Save(ctx, entryAt("abandoned", confirm.StateAbandoned, base.Add(2*time.Second))))
	require.NoError(t, repo.Save(ctx, entryAt("submitted", confirm.StateSubmitted, base.Add(time.Second))))
	require.NoError(t, repo.Save(ctx, entryAt("timed-out", confirm.StateTimedOut, base.Add(3*time.Second))))

	pending, err := repo.FindPending(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "submitted", pending[0].Signature)
	assert.Equal(t, "abandoned", pending[1].Signature)
	assert.Equal(t, "timed-out", pending[2].Signature)

	limited, err := repo.FindPending(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	rest, err := repo.FindPending(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "timed-out", rest[0].Signature)
}

func TestMemoryRepositoryFindPendingStableOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	at := time.Now().UTC()

	for _, sig := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Save(ctx, entryAt(sig, confirm.StateAbandoned, at)))
	}

	first, err := repo.FindPending(ctx, 2, 0)
	require.NoError(t, err)
	second, err := repo.FindPending(ctx, 2, 2)
	require.NoError(t, err)

	var sigs []string
	for _, e := range append(first, second...) {
		sigs = append(sigs, e.Signature)
	}
	assert.Equal(t, []string{"a", "b", "c"}, sigs)
}

func TestMemoryRepositoryRejectsNegativePage(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.List(ctx, 10, -1)
	assert.ErrorIs(t, err, errors.ErrJournalFailure)
	_, err = repo.List(ctx, -1, 0)
	assert.ErrorIs(t, err, errors.ErrJournalFailure)
	_, err = repo.FindPending(ctx, 10, -1)
	assert.ErrorIs(t, err, errors.ErrJournalFailure)
	_, err = repo.FindPending(ctx, -5, 0)
	assert.ErrorIs(t, err, errors.ErrJournalFailure)
}

func TestMemoryRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Now().UTC()
	for i, sig := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, entryAt(sig, confirm.StateConfirmed, base.Add(time.Duration(i)*time.Second))))
	}

	all, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Signature)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].Signature)

	empty, err := repo.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPendingStates(t *testing.T) {
	for _, s := range PendingStates() {
		assert.False(t, confirm.State(s).Terminal(), s)
	}
	assert.Contains(t, PendingStates(), "abandoned")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	repo, err := Open(ctx, &config.JournalConfig{Enabled: true, Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryRepository{}, repo)
	require.NoError(t, repo.Close())

	_, err = Open(ctx, &config.JournalConfig{Enabled: false})
	assert.Error(t, err)

	_, err = Open(ctx, &config.JournalConfig{Enabled: true, Type: "mongodb"})
	assert.Error(t, err)
}
