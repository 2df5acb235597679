package umi

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-umi/internal/confirm"
	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/internal/journal"
	"github.com/lugondev/go-umi/internal/metrics"
	"github.com/lugondev/go-umi/internal/notify"
	"github.com/lugondev/go-umi/internal/rpc"
	"github.com/lugondev/go-umi/pkg/types"
)

// MaxRecheckBatch is the largest number of signatures the ledger accepts in
// one getSignatureStatuses request.
const MaxRecheckBatch = 256

// Recheck looks up every journalled submission without a final outcome and
// records the states it learns, one getSignatureStatuses request per page of
// MaxRecheckBatch entries. It returns the entries that changed.
//
// A signature the ledger does not know is marked expired once its blockhash
// window has closed or its durable nonce has advanced. Without that data it
// is left untouched.
func (c *Context) Recheck(ctx context.Context) ([]*journal.Entry, error) {
	if c.journal == nil {
		return nil, errors.JournalFailure("recheck", fmt.Errorf("journal is disabled"))
	}

	changed := make([]*journal.Entry, 0)
	scanned := 0
	offset := 0
	for {
		page, err := c.journal.FindPending(ctx, MaxRecheckBatch, offset)
		if err != nil {
			return changed, err
		}
		if len(page) == 0 {
			break
		}
		scanned += len(page)

		updated, err := c.recheckPage(ctx, page)
		if err != nil {
			return changed, err
		}
		changed = append(changed, updated...)

		// Settled entries drop out of the pending set; the rest keep
		// their position.
		remaining := len(page)
		for _, e := range updated {
			if e.Settled() {
				remaining--
			}
		}
		offset += remaining

		if len(page) < MaxRecheckBatch {
			break
		}
	}

	if len(changed) > 0 {
		_ = c.metrics.IncrementCounter(ctx, metrics.MetricJournalRechecked, uint64(len(changed)))
	}
	c.GetLogger().Info("journal rechecked",
		"pending", scanned,
		"changed", len(changed),
	)
	return changed, nil
}

// recheckPage updates one page of pending entries.
func (c *Context) recheckPage(ctx context.Context, page []*journal.Entry) ([]*journal.Entry, error) {
	entries := make([]*journal.Entry, 0, len(page))
	sigs := make([]solana.Signature, 0, len(page))
	for _, e := range page {
		sig, err := solana.SignatureFromBase58(e.Signature)
		if err != nil {
			c.GetLogger().Warn("skipping journal entry with malformed signature",
				"id", e.ID,
				"signature", e.Signature,
			)
			continue
		}
		entries = append(entries, e)
		sigs = append(sigs, sig)
	}
	if len(sigs) == 0 {
		return nil, nil
	}

	// Expiry is read before the statuses so a transaction that lands in
	// between is still seen by the status read.
	expired, err := c.expiredEntries(ctx, entries)
	if err != nil {
		return nil, err
	}

	statuses, err := c.rpc.GetSignatureStatuses(ctx, sigs, &rpc.GetSignatureStatusesOpts{SearchTransactionHistory: true})
	if err != nil {
		return nil, err
	}

	changed := make([]*journal.Entry, 0)
	for i, status := range statuses {
		e := entries[i]
		if status == nil {
			if expired[i] {
				e.State = confirm.StateExpired
				e.Error = ""
				changed = append(changed, e)
			}
			continue
		}
		state := stateFromStatus(status)
		if state == e.State && status.Slot == e.Slot {
			continue
		}
		e.State = state
		e.Slot = status.Slot
		if state == confirm.StateFailed {
			e.Error = fmt.Sprintf("%v", status.Err)
		}
		changed = append(changed, e)
	}
	if len(changed) == 0 {
		return changed, nil
	}

	if err := c.journal.UpdateBatch(ctx, changed); err != nil {
		return nil, err
	}

	for _, e := range changed {
		if e.Settled() {
			if err := c.publisher.PublishConfirmation(ctx, notify.FromEntry(e)); err != nil {
				c.GetLogger().Warn("failed to publish confirmation",
					"signature", e.Signature,
					"error", err,
				)
			}
		}
	}
	return changed, nil
}

// expiredEntries reports, per entry, whether its transaction can no longer
// land. The finalized block height is read at most once.
func (c *Context) expiredEntries(ctx context.Context, entries []*journal.Entry) ([]bool, error) {
	out := make([]bool, len(entries))
	var height *uint64
	for i, e := range entries {
		switch {
		case e.LastValidBlockHeight > 0:
			if height == nil {
				h, err := c.rpc.GetBlockHeight(ctx, types.CommitmentFinalized)
				if err != nil {
					return nil, err
				}
				height = &h
			}
			out[i] = *height > e.LastValidBlockHeight
		case e.NonceAccount != "" && e.NonceValue != "":
			advanced, err := c.nonceAdvanced(ctx, e)
			if err != nil {
				return nil, err
			}
			out[i] = advanced
		}
	}
	return out, nil
}

// nonceAdvanced reports whether the nonce stored for e no longer equals the
// one its transaction used. A missing or malformed account is not evidence.
func (c *Context) nonceAdvanced(ctx context.Context, e *journal.Entry) (bool, error) {
	account, err := solana.PublicKeyFromBase58(e.NonceAccount)
	if err != nil {
		return false, nil
	}
	expected, err := solana.HashFromBase58(e.NonceValue)
	if err != nil {
		return false, nil
	}

	acc, err := c.rpc.GetAccount(ctx, account, &rpc.GetAccountOpts{Commitment: types.CommitmentFinalized})
	if err != nil {
		return false, err
	}
	if !acc.Exists() {
		return false, nil
	}
	stored, err := rpc.DecodeNonce(acc.Account.Data)
	if err != nil {
		c.GetLogger().Warn("unreadable nonce account",
			"signature", e.Signature,
			"account", e.NonceAccount,
			"error", err,
		)
		return false, nil
	}
	return stored != expected, nil
}

// stateFromStatus maps a ledger status to the journal state it proves.
func stateFromStatus(status *types.TransactionStatus) confirm.State {
	switch {
	case status.Err != nil:
		return confirm.StateFailed
	case status.Commitment == types.CommitmentFinalized:
		return confirm.StateFinalized
	case status.Commitment == types.CommitmentConfirmed:
		return confirm.StateConfirmed
	default:
		return confirm.StatePending
	}
}
