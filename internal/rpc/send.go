package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/internal/metrics"
	"github.com/lugondev/go-umi/pkg/types"
)

// SendOpts are options for SendTransaction.
type SendOpts struct {
	SkipPreflight       bool
	PreflightCommitment types.Commitment

	// MaxRetries is forwarded to the node, which rebroadcasts on its own.
	// The client itself never resubmits.
	MaxRetries *uint

	MinContextSlot *uint64
}

// SimulateOpts are options for SimulateTransaction.
type SimulateOpts struct {
	VerifySignatures       bool
	ReplaceRecentBlockhash bool
	Commitment             types.Commitment

	// Accounts are returned as they would be after execution.
	Accounts []solana.PublicKey
}

// SimulationResult is the outcome of a dry run.
type SimulationResult struct {
	Logs          []string
	UnitsConsumed *uint64

	// Accounts holds the post-execution state of SimulateOpts.Accounts, in order.
	Accounts []types.MaybeAccount

	// Err is the translated execution failure, nil when execution succeeded.
	Err error
}

// AirdropOpts are options for Airdrop.
type AirdropOpts struct {
	// Strategy governs confirmation. When nil a fresh blockhash is fetched
	// before requesting funds.
	Strategy *types.ConfirmationStrategy

	Commitment types.Commitment
}

// SendTransaction serializes and submits tx once.
//
// Failures carrying execution logs are passed to the resolver and surface
// as *programs.ProgramError when resolved, or as *errors.ExecutionError
// otherwise. Other failures are returned unchanged.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, opts *SendOpts) (solana.Signature, error) {
	if opts == nil {
		opts = &SendOpts{}
	}
	raw, err := c.serializer.Serialize(tx)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := call(ctx, c, "sendTransaction", func(ctx context.Context) (solana.Signature, error) {
		return c.rpc.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{
			SkipPreflight:       opts.SkipPreflight,
			PreflightCommitment: c.commitment(opts.PreflightCommitment),
			MaxRetries:          opts.MaxRetries,
			MinContextSlot:      opts.MinContextSlot,
		})
	})
	if err != nil {
		_ = c.metrics.IncrementCounter(ctx, metrics.MetricSendFailures, 1)
		c.logger.Warn("transaction submission failed", "error", err)
		if execErr := executionErrorFromRPC(err); execErr != nil {
			return solana.Signature{}, c.resolve(ctx, execErr, tx)
		}
		return solana.Signature{}, err
	}

	_ = c.metrics.IncrementCounter(ctx, metrics.MetricTransactionsSent, 1)
	c.logger.Debug("transaction submitted", "signature", sig.String())
	return sig, nil
}

// SimulateTransaction dry-runs tx against current ledger state. Execution
// failures are reported in SimulationResult.Err; the returned error is only
// set when the simulation itself could not be performed.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction, opts *SimulateOpts) (*SimulationResult, error) {
	if opts == nil {
		opts = &SimulateOpts{}
	}
	rpcOpts := &rpc.SimulateTransactionOpts{
		SigVerify:              opts.VerifySignatures,
		ReplaceRecentBlockhash: opts.ReplaceRecentBlockhash,
		Commitment:             c.commitment(opts.Commitment),
	}
	if len(opts.Accounts) > 0 {
		rpcOpts.Accounts = &rpc.SimulateTransactionAccountsOpts{
			Encoding:  solana.EncodingBase64,
			Addresses: opts.Accounts,
		}
	}

	resp, err := withRetry(ctx, c, "simulateTransaction", func(ctx context.Context) (*rpc.SimulateTransactionResponse, error) {
		return c.rpc.SimulateTransactionWithOpts(ctx, tx, rpcOpts)
	})
	if err != nil {
		if execErr := executionErrorFromRPC(err); execErr != nil {
			return nil, c.resolve(ctx, execErr, tx)
		}
		return nil, err
	}
	if resp == nil || resp.Value == nil {
		return nil, errors.NetworkFailure("simulateTransaction", fmt.Errorf("empty response"))
	}

	value := resp.Value
	result := &SimulationResult{
		Logs:          value.Logs,
		UnitsConsumed: value.UnitsConsumed,
	}
	if len(opts.Accounts) > 0 {
		result.Accounts = make([]types.MaybeAccount, len(opts.Accounts))
		for i, pk := range opts.Accounts {
			result.Accounts[i] = types.MaybeAccount{PublicKey: pk}
			if i < len(value.Accounts) && value.Accounts[i] != nil {
				result.Accounts[i].Account = convertAccount(pk, value.Accounts[i])
			}
		}
	}
	if value.Err != nil {
		result.Err = c.resolve(ctx, &errors.ExecutionError{
			Message:       "transaction simulation failed",
			Logs:          value.Logs,
			Err:           value.Err,
			UnitsConsumed: value.UnitsConsumed,
		}, tx)
	}
	return result, nil
}

// Airdrop requests amount for pk and waits until the confirmation machine
// reaches the requested commitment.
func (c *Client) Airdrop(ctx context.Context, pk solana.PublicKey, amount types.SolAmount, opts *AirdropOpts) (solana.Signature, error) {
	if opts == nil {
		opts = &AirdropOpts{}
	}

	var strategy types.ConfirmationStrategy
	if opts.Strategy != nil {
		strategy = *opts.Strategy
	} else {
		blockhash, err := c.GetLatestBlockhash(ctx)
		if err != nil {
			return solana.Signature{}, err
		}
		strategy = types.NewBlockhashStrategy(blockhash)
	}

	sig, err := call(ctx, c, "requestAirdrop", func(ctx context.Context) (solana.Signature, error) {
		return c.rpc.RequestAirdrop(ctx, pk, amount.Lamports(), c.commitment(opts.Commitment))
	})
	if err != nil {
		return solana.Signature{}, errors.NetworkFailure("requestAirdrop", err)
	}

	c.logger.Info("airdrop requested",
		"address", pk.String(),
		"amount", amount.String(),
		"signature", sig.String(),
	)

	if _, err := c.ConfirmTransaction(ctx, sig, ConfirmOpts{Strategy: strategy, Commitment: opts.Commitment}); err != nil {
		return sig, err
	}
	return sig, nil
}

// resolve translates an execution failure.
func (c *Client) resolve(ctx context.Context, execErr *errors.ExecutionError, tx *solana.Transaction) error {
	if pe := c.resolver.ResolveError(execErr, tx); pe != nil {
		_ = c.metrics.IncrementCounter(ctx, metrics.MetricProgramErrors, 1)
		c.logger.Debug("program error resolved",
			"program", pe.ProgramID.String(),
			"code", pe.Code,
			"name", pe.Name,
		)
		return pe
	}
	return execErr
}

// executionErrorFromRPC extracts the preflight failure carried in a
// JSON-RPC error's data. It returns nil when err carries no logs.
func executionErrorFromRPC(err error) *errors.ExecutionError {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return nil
	}
	data, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return nil
	}
	rawLogs, ok := data["logs"].([]interface{})
	if !ok || len(rawLogs) == 0 {
		return nil
	}

	logs := make([]string, 0, len(rawLogs))
	for _, l := range rawLogs {
		if s, ok := l.(string); ok {
			logs = append(logs, s)
		}
	}

	execErr := &errors.ExecutionError{
		Message: rpcErr.Message,
		Logs:    logs,
		Err:     data["err"],
		Cause:   err,
	}
	if units, ok := toUint64(data["unitsConsumed"]); ok {
		execErr.UnitsConsumed = &units
	}
	return execErr
}

func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < 0 {
			return 0, false
		}
		return uint64(i), true
	default:
		return 0, false
	}
}
