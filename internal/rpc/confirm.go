package rpc

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lugondev/go-umi/internal/confirm"
	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/pkg/types"
)

// Durable nonce account layout: version (4) ‖ state (4) ‖ authority (32) ‖
// nonce (32) ‖ fee calculator (8).
const (
	nonceValueOffset = 40
	nonceValueEnd    = nonceValueOffset + 32
)

// ConfirmOpts are options for ConfirmTransaction.
type ConfirmOpts struct {
	Strategy types.ConfirmationStrategy

	// Commitment is the target, confirmed or finalized. Defaults to the
	// client commitment, raised to confirmed when lower.
	Commitment types.Commitment

	// OnTransition receives every state change.
	OnTransition func(confirm.Transition)
}

// ConfirmTransaction waits for sig to reach the requested commitment.
//
// A transaction that landed with an execution error returns
// ErrTransactionFailed; when its logs name a known failure the cause is a
// *programs.ProgramError.
func (c *Client) ConfirmTransaction(ctx context.Context, sig solana.Signature, opts ConfirmOpts) (*confirm.Result, error) {
	commitment := opts.Commitment
	if !commitment.Valid() {
		commitment = c.config.Commitment
	}
	if !commitment.AtLeast(types.CommitmentConfirmed) {
		commitment = types.CommitmentConfirmed
	}

	tracker := confirm.NewTracker(&trackerSource{client: c}, c.config.Confirm).
		WithLogger(c.logger).
		WithMetrics(c.metrics).
		OnTransition(opts.OnTransition)

	result, err := tracker.Confirm(ctx, sig, opts.Strategy, commitment)
	if result.State == confirm.StateFailed {
		err = c.explainFailure(ctx, sig, err)
	}
	return result, err
}

// explainFailure attaches the resolved program error to a failed outcome.
func (c *Client) explainFailure(ctx context.Context, sig solana.Signature, failed error) error {
	var base *errors.Error
	if !errors.As(failed, &base) {
		return failed
	}

	tx, err := c.GetTransaction(ctx, sig, &GetTransactionOpts{Commitment: types.CommitmentConfirmed})
	if err != nil || tx == nil || tx.Meta == nil {
		c.logger.Warn("failed to fetch logs of failed transaction",
			"signature", sig.String(),
			"error", err,
		)
		return failed
	}

	execErr := &errors.ExecutionError{
		Message:       "transaction failed",
		Logs:          tx.Meta.LogMessages,
		Err:           tx.Meta.Err,
		UnitsConsumed: tx.Meta.ComputeUnitsConsumed,
	}
	return base.WithCause(c.resolve(ctx, execErr, tx.Transaction))
}

// trackerSource adapts the client to the confirmation tracker. Calls are
// made once per poll; the tracker treats failures as transient.
type trackerSource struct {
	client *Client
}

func (s *trackerSource) SignatureStatus(ctx context.Context, sig solana.Signature) (*types.TransactionStatus, error) {
	c := s.client
	result, err := call(ctx, c, "getSignatureStatuses", func(ctx context.Context) (*rpc.GetSignatureStatusesResult, error) {
		return c.rpc.GetSignatureStatuses(ctx, false, sig)
	})
	if err != nil {
		return nil, err
	}
	statuses, err := convertStatuses([]solana.Signature{sig}, result)
	if err != nil {
		return nil, err
	}
	return statuses[0], nil
}

func (s *trackerSource) BlockHeight(ctx context.Context, commitment types.Commitment) (uint64, error) {
	c := s.client
	return call(ctx, c, "getBlockHeight", func(ctx context.Context) (uint64, error) {
		return c.rpc.GetBlockHeight(ctx, commitment.RPC())
	})
}

func (s *trackerSource) NonceValue(ctx context.Context, account solana.PublicKey, minContextSlot uint64) (solana.Hash, error) {
	opts := &GetAccountOpts{Commitment: types.CommitmentFinalized}
	if minContextSlot > 0 {
		opts.MinContextSlot = &minContextSlot
	}
	acc, err := s.client.GetAccount(ctx, account, opts)
	if err != nil {
		return solana.Hash{}, err
	}
	if !acc.Exists() {
		return solana.Hash{}, errors.ErrAccountNotFound.WithDetails(map[string]any{
			"address": account.String(),
		})
	}
	return DecodeNonce(acc.Account.Data)
}

// DecodeNonce reads the stored nonce from durable nonce account data.
func DecodeNonce(data []byte) (solana.Hash, error) {
	if len(data) < nonceValueEnd {
		return solana.Hash{}, fmt.Errorf("nonce account data too short: %d bytes", len(data))
	}
	var nonce solana.Hash
	copy(nonce[:], data[nonceValueOffset:nonceValueEnd])
	return nonce, nil
}
