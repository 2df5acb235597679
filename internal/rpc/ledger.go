package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/pkg/types"
)

// AccountHeaderSize is the per-account storage overhead, in bytes, the
// ledger charges rent for on top of the account data.
const AccountHeaderSize = 128

// GetRentOpts are options for GetRent.
type GetRentOpts struct {
	// IncludeHeader adds the rent for the account header.
	IncludeHeader bool
}

// GetTransactionOpts are options for GetTransaction.
type GetTransactionOpts struct {
	Commitment types.Commitment
}

// GetSignatureStatusesOpts are options for GetSignatureStatuses.
type GetSignatureStatusesOpts struct {
	// SearchTransactionHistory looks beyond the recent status cache.
	SearchTransactionHistory bool
}

// GetBalance returns the native balance of pk.
func (c *Client) GetBalance(ctx context.Context, pk solana.PublicKey) (types.SolAmount, error) {
	result, err := withRetry(ctx, c, "getBalance", func(ctx context.Context) (*rpc.GetBalanceResult, error) {
		return c.rpc.GetBalance(ctx, pk, c.commitment(""))
	})
	if err != nil {
		return 0, err
	}
	return types.Lamports(result.Value), nil
}

// AccountExists reports whether pk holds a non-zero balance. A zero-balance
// account that exists on the ledger is reported as absent.
func (c *Client) AccountExists(ctx context.Context, pk solana.PublicKey) (bool, error) {
	balance, err := c.GetBalance(ctx, pk)
	if err != nil {
		return false, err
	}
	return balance > 0, nil
}

// GetRent returns the rent for bytes of account data.
//
// The rent for an empty account is read once and amortized over the header
// size, so the result is perByte*bytes. That value excludes the account
// header and is below the rent-exempt minimum of a new account; set
// IncludeHeader to add the empty-account rent and get the amount needed to
// fund one. All arithmetic is on integer lamports.
func (c *Client) GetRent(ctx context.Context, bytes uint64, opts *GetRentOpts) (types.SolAmount, error) {
	headerRent, err := withRetry(ctx, c, "getMinimumBalanceForRentExemption", func(ctx context.Context) (uint64, error) {
		return c.rpc.GetMinimumBalanceForRentExemption(ctx, 0, c.commitment(""))
	})
	if err != nil {
		return 0, err
	}

	perByte := types.Lamports(headerRent / AccountHeaderSize)
	rent, ok := perByte.Mul(bytes)
	if !ok {
		return 0, errors.ErrAmountOverflow.WithDetails(map[string]any{"bytes": bytes})
	}
	if opts != nil && opts.IncludeHeader {
		if rent, ok = rent.Add(types.Lamports(headerRent)); !ok {
			return 0, errors.ErrAmountOverflow.WithDetails(map[string]any{"bytes": bytes})
		}
	}
	return rent, nil
}

// GetSlot returns the current slot.
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	return withRetry(ctx, c, "getSlot", func(ctx context.Context) (uint64, error) {
		return c.rpc.GetSlot(ctx, c.commitment(""))
	})
}

// GetBlockHeight returns the current block height at commitment.
func (c *Client) GetBlockHeight(ctx context.Context, commitment types.Commitment) (uint64, error) {
	return withRetry(ctx, c, "getBlockHeight", func(ctx context.Context) (uint64, error) {
		return c.rpc.GetBlockHeight(ctx, c.commitment(commitment))
	})
}

// GetLatestBlockhash returns a recent blockhash and its expiry height.
func (c *Client) GetLatestBlockhash(ctx context.Context) (types.BlockhashWithExpiry, error) {
	result, err := withRetry(ctx, c, "getLatestBlockhash", func(ctx context.Context) (*rpc.GetLatestBlockhashResult, error) {
		return c.rpc.GetLatestBlockhash(ctx, c.commitment(""))
	})
	if err != nil {
		return types.BlockhashWithExpiry{}, err
	}
	if result == nil || result.Value == nil {
		return types.BlockhashWithExpiry{}, errors.NetworkFailure("getLatestBlockhash", fmt.Errorf("empty response"))
	}
	return types.BlockhashWithExpiry{
		Blockhash:            result.Value.Blockhash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}, nil
}

// GetBlockTime returns the estimated production time of slot, or nil when
// the node has no timestamp for it.
func (c *Client) GetBlockTime(ctx context.Context, slot uint64) (*time.Time, error) {
	result, err := withRetry(ctx, c, "getBlockTime", func(ctx context.Context) (*solana.UnixTimeSeconds, error) {
		return c.rpc.GetBlockTime(ctx, slot)
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	t := result.Time()
	return &t, nil
}

// GetGenesisHash returns the genesis hash of the cluster.
func (c *Client) GetGenesisHash(ctx context.Context) (solana.Hash, error) {
	return withRetry(ctx, c, "getGenesisHash", func(ctx context.Context) (solana.Hash, error) {
		return c.rpc.GetGenesisHash(ctx)
	})
}

// GetTransaction fetches a processed transaction with its metadata. It
// returns nil when the ledger does not know sig, and ErrMissingMeta when the
// node returned the transaction without metadata.
func (c *Client) GetTransaction(ctx context.Context, sig solana.Signature, opts *GetTransactionOpts) (*types.TransactionWithMeta, error) {
	var commitment types.Commitment
	if opts != nil {
		commitment = opts.Commitment
	}
	maxVersion := uint64(0)
	result, err := withRetry(ctx, c, "getTransaction", func(ctx context.Context) (*rpc.GetTransactionResult, error) {
		return c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			Commitment:                     c.commitment(commitment),
			MaxSupportedTransactionVersion: &maxVersion,
		})
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return convertTransaction(sig, result)
}

// convertTransaction converts an RPC transaction result.
func convertTransaction(sig solana.Signature, result *rpc.GetTransactionResult) (*types.TransactionWithMeta, error) {
	if result.Meta == nil {
		return nil, errors.ErrMissingMeta.WithDetails(map[string]any{"signature": sig.String()})
	}

	out := &types.TransactionWithMeta{
		Signature: sig,
		Slot:      result.Slot,
		Meta: &types.TransactionStatusMeta{
			Err:                  result.Meta.Err,
			Fee:                  types.Lamports(result.Meta.Fee),
			PreBalances:          result.Meta.PreBalances,
			PostBalances:         result.Meta.PostBalances,
			LogMessages:          result.Meta.LogMessages,
			ComputeUnitsConsumed: result.Meta.ComputeUnitsConsumed,
		},
	}
	if result.BlockTime != nil {
		t := result.BlockTime.Time()
		out.BlockTime = &t
	}
	if result.Transaction != nil {
		tx, err := result.Transaction.GetTransaction()
		if err != nil {
			return nil, errors.SerializationFailed("transaction", err)
		}
		out.Transaction = tx
	}
	return out, nil
}

// GetSignatureStatuses looks up sigs in one request. The result has the
// same length and order as sigs, with nil for unknown signatures.
func (c *Client) GetSignatureStatuses(ctx context.Context, sigs []solana.Signature, opts *GetSignatureStatusesOpts) ([]*types.TransactionStatus, error) {
	if len(sigs) == 0 {
		return []*types.TransactionStatus{}, nil
	}
	search := opts != nil && opts.SearchTransactionHistory
	result, err := withRetry(ctx, c, "getSignatureStatuses", func(ctx context.Context) (*rpc.GetSignatureStatusesResult, error) {
		return c.rpc.GetSignatureStatuses(ctx, search, sigs...)
	})
	if err != nil {
		return nil, err
	}
	return convertStatuses(sigs, result)
}

func convertStatuses(sigs []solana.Signature, result *rpc.GetSignatureStatusesResult) ([]*types.TransactionStatus, error) {
	if result == nil || len(result.Value) != len(sigs) {
		got := 0
		if result != nil {
			got = len(result.Value)
		}
		return nil, errors.NetworkFailure("getSignatureStatuses",
			fmt.Errorf("expected %d statuses, got %d", len(sigs), got))
	}

	statuses := make([]*types.TransactionStatus, len(sigs))
	for i, v := range result.Value {
		if v == nil {
			continue
		}
		statuses[i] = &types.TransactionStatus{
			Slot:          v.Slot,
			Confirmations: v.Confirmations,
			Err:           v.Err,
			Commitment:    types.CommitmentFromStatus(v.ConfirmationStatus),
		}
	}
	return statuses, nil
}
