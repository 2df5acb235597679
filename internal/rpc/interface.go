package rpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-umi/internal/confirm"
	"github.com/lugondev/go-umi/pkg/types"
)

// Interface is the ledger surface the rest of go-umi depends on.
type Interface interface {
	GetEndpoint() string
	GetCluster() types.Cluster

	GetAccount(ctx context.Context, pk solana.PublicKey, opts *GetAccountOpts) (types.MaybeAccount, error)
	GetAccounts(ctx context.Context, pks []solana.PublicKey, opts *GetAccountOpts) ([]types.MaybeAccount, error)
	GetProgramAccounts(ctx context.Context, programID solana.PublicKey, opts *GetProgramAccountsOpts) ([]types.Account, error)
	GetBalance(ctx context.Context, pk solana.PublicKey) (types.SolAmount, error)
	GetRent(ctx context.Context, bytes uint64, opts *GetRentOpts) (types.SolAmount, error)
	AccountExists(ctx context.Context, pk solana.PublicKey) (bool, error)

	GetSlot(ctx context.Context) (uint64, error)
	GetBlockHeight(ctx context.Context, commitment types.Commitment) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (types.BlockhashWithExpiry, error)
	GetBlockTime(ctx context.Context, slot uint64) (*time.Time, error)
	GetGenesisHash(ctx context.Context) (solana.Hash, error)

	GetTransaction(ctx context.Context, sig solana.Signature, opts *GetTransactionOpts) (*types.TransactionWithMeta, error)
	GetSignatureStatuses(ctx context.Context, sigs []solana.Signature, opts *GetSignatureStatusesOpts) ([]*types.TransactionStatus, error)

	SendTransaction(ctx context.Context, tx *solana.Transaction, opts *SendOpts) (solana.Signature, error)
	SimulateTransaction(ctx context.Context, tx *solana.Transaction, opts *SimulateOpts) (*SimulationResult, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature, opts ConfirmOpts) (*confirm.Result, error)
	Airdrop(ctx context.Context, pk solana.PublicKey, amount types.SolAmount, opts *AirdropOpts) (solana.Signature, error)

	Call(ctx context.Context, method string, params []any, out any) error

	Close() error
}

// Call issues a raw JSON-RPC request and decodes the result into out.
func (c *Client) Call(ctx context.Context, method string, params []any, out any) error {
	if out == nil {
		var discard json.RawMessage
		out = &discard
	}
	_, err := withRetry(ctx, c, method, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.rpc.RPCCallForInto(ctx, out, method, params)
	})
	return err
}
