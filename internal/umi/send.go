package umi

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-umi/internal/confirm"
	"github.com/lugondev/go-umi/internal/eddsa"
	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/internal/journal"
	"github.com/lugondev/go-umi/internal/notify"
	"github.com/lugondev/go-umi/internal/rpc"
	"github.com/lugondev/go-umi/pkg/types"
)

// SendOptions tune SendWithOptions.
type SendOptions struct {
	Send *rpc.SendOpts

	// Commitment is the confirmation target. Defaults to the client
	// commitment, at least confirmed.
	Commitment types.Commitment
}

// SendResult describes a submitted transaction.
type SendResult struct {
	Signature solana.Signature

	// Confirmation is what the tracker observed, nil when submission failed.
	Confirmation *confirm.Result
}

// State returns the last observed confirmation state.
func (r *SendResult) State() confirm.State {
	if r == nil || r.Confirmation == nil {
		return ""
	}
	return r.Confirmation.State
}

// SendAndConfirm builds a transaction from ixs paid by the payer, signs it
// with the payer and signers, submits it and waits for confirmation.
func (c *Context) SendAndConfirm(ctx context.Context, ixs []solana.Instruction, signers ...eddsa.Signer) (*SendResult, error) {
	return c.SendWithOptions(ctx, ixs, SendOptions{}, signers...)
}

// SendWithOptions is SendAndConfirm with explicit options.
//
// The submission is journalled before confirmation starts so an abandoned
// or timed out wait can be rechecked later. A non-nil SendResult is returned
// whenever the transaction was submitted, even when confirmation failed.
func (c *Context) SendWithOptions(ctx context.Context, ixs []solana.Instruction, opts SendOptions, signers ...eddsa.Signer) (*SendResult, error) {
	if c.payer == nil {
		return nil, errors.MissingSigner("payer")
	}

	blockhash, err := c.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := c.transactions.Build(ixs, blockhash.Blockhash, c.payer.PublicKey())
	if err != nil {
		return nil, err
	}
	all := eddsa.UniqueSigners(append([]eddsa.Signer{c.payer}, signers...)...)
	if err := c.transactions.Sign(tx, all...); err != nil {
		return nil, err
	}

	sig, err := c.rpc.SendTransaction(ctx, tx, opts.Send)
	if err != nil {
		return nil, err
	}

	strategy := types.NewBlockhashStrategy(blockhash)
	entry := c.record(ctx, sig, strategy)

	result, err := c.rpc.ConfirmTransaction(ctx, sig, rpc.ConfirmOpts{
		Strategy:   strategy,
		Commitment: opts.Commitment,
		OnTransition: func(t confirm.Transition) {
			if t.To == confirm.StatePending && entry != nil {
				c.updateEntry(ctx, entry, t.To, 0, nil)
			}
		},
	})

	out := &SendResult{Signature: sig, Confirmation: result}
	if result != nil {
		var slot uint64
		if result.Status != nil {
			slot = result.Status.Slot
		}
		if entry != nil {
			c.updateEntry(ctx, entry, result.State, slot, err)
		}
		if result.State.Terminal() {
			c.publish(ctx, entry, sig, result.State, slot, err)
		}
	}
	return out, err
}

// SendConfirmAndFetch submits ixs, waits for finalization and then reads
// address at finalized commitment.
func (c *Context) SendConfirmAndFetch(ctx context.Context, ixs []solana.Instruction, address solana.PublicKey, signers ...eddsa.Signer) (types.MaybeAccount, *SendResult, error) {
	result, err := c.SendWithOptions(ctx, ixs, SendOptions{Commitment: types.CommitmentFinalized}, signers...)
	if err != nil {
		return types.MaybeAccount{}, result, err
	}
	if result.State() != confirm.StateFinalized {
		return types.MaybeAccount{}, result, errors.ErrConfirmationTimeout.WithDetails(map[string]any{
			"signature": result.Signature.String(),
			"state":     string(result.State()),
		})
	}

	account, err := c.rpc.GetAccount(ctx, address, &rpc.GetAccountOpts{Commitment: types.CommitmentFinalized})
	return account, result, err
}

// record journals a fresh submission. Journal failures are logged and do
// not fail the send.
func (c *Context) record(ctx context.Context, sig solana.Signature, strategy types.ConfirmationStrategy) *journal.Entry {
	if c.journal == nil {
		return nil
	}
	entry := journal.NewEntry(sig.String(), string(c.rpc.GetCluster()), string(strategy.Kind()))
	entry.SetStrategy(strategy)
	if err := c.journal.Save(context.WithoutCancel(ctx), entry); err != nil {
		c.GetLogger().Error("failed to journal submission",
			"signature", entry.Signature,
			"error", err,
		)
		return nil
	}
	return entry
}

// updateEntry records a state change. It keeps working after ctx is done
// so abandoned waits are still journalled.
func (c *Context) updateEntry(ctx context.Context, entry *journal.Entry, state confirm.State, slot uint64, cause error) {
	entry.State = state
	entry.Slot = slot
	entry.Error = ""
	if cause != nil && state == confirm.StateFailed {
		entry.Error = cause.Error()
	}
	if err := c.journal.Update(context.WithoutCancel(ctx), entry); err != nil {
		c.GetLogger().Error("failed to update journal entry",
			"signature", entry.Signature,
			"state", state,
			"error", err,
		)
	}
}

func (c *Context) publish(ctx context.Context, entry *journal.Entry, sig solana.Signature, state confirm.State, slot uint64, cause error) {
	var event *notify.ConfirmationEvent
	if entry != nil {
		event = notify.FromEntry(entry)
	} else {
		event = notify.FromEntry(&journal.Entry{
			Signature: sig.String(),
			Cluster:   string(c.rpc.GetCluster()),
			State:     state,
			Slot:      slot,
		})
		if cause != nil && state == confirm.StateFailed {
			event.Error = cause.Error()
		}
	}
	if err := c.publisher.PublishConfirmation(context.WithoutCancel(ctx), event); err != nil {
		c.GetLogger().Warn("failed to publish confirmation",
			"signature", event.Signature,
			"error", err,
		)
	}
}
