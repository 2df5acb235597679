package rpc

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/pkg/types"
)

// DataSlice limits the returned account data to Length bytes from Offset.
type DataSlice struct {
	Offset uint64
	Length uint64
}

func (d *DataSlice) toRPC() *rpc.DataSlice {
	if d == nil {
		return nil
	}
	offset, length := d.Offset, d.Length
	return &rpc.DataSlice{Offset: &offset, Length: &length}
}

// GetAccountOpts are options for account reads.
type GetAccountOpts struct {
	// Commitment overrides the client default.
	Commitment types.Commitment

	// MinContextSlot rejects answers from nodes behind this slot.
	MinContextSlot *uint64

	DataSlice *DataSlice
}

func (o *GetAccountOpts) orDefault() *GetAccountOpts {
	if o == nil {
		return &GetAccountOpts{}
	}
	return o
}

// Filter narrows a program account scan. Exactly one field is set.
type Filter struct {
	DataSize *uint64
	Memcmp   *Memcmp
}

// Memcmp matches accounts whose data holds Bytes at Offset.
type Memcmp struct {
	Offset uint64
	Bytes  []byte
}

// DataSizeFilter matches accounts whose data is exactly size bytes.
func DataSizeFilter(size uint64) Filter {
	return Filter{DataSize: &size}
}

// MemcmpFilter matches accounts whose data holds b at offset.
func MemcmpFilter(offset uint64, b []byte) Filter {
	return Filter{Memcmp: &Memcmp{Offset: offset, Bytes: b}}
}

func (f Filter) toRPC() rpc.RPCFilter {
	var out rpc.RPCFilter
	if f.DataSize != nil {
		out.DataSize = *f.DataSize
	}
	if f.Memcmp != nil {
		out.Memcmp = &rpc.RPCFilterMemcmp{
			Offset: f.Memcmp.Offset,
			Bytes:  solana.Base58(f.Memcmp.Bytes),
		}
	}
	return out
}

// GetProgramAccountsOpts are options for program account scans.
type GetProgramAccountsOpts struct {
	Commitment types.Commitment
	Filters    []Filter
	DataSlice  *DataSlice
}

// GetAccount fetches one account. An address with no account is reported as
// a MaybeAccount whose Exists is false, not as an error.
func (c *Client) GetAccount(ctx context.Context, pk solana.PublicKey, opts *GetAccountOpts) (types.MaybeAccount, error) {
	opts = opts.orDefault()
	result, err := withRetry(ctx, c, "getAccountInfo", func(ctx context.Context) (*rpc.GetAccountInfoResult, error) {
		return c.rpc.GetAccountInfoWithOpts(ctx, pk, &rpc.GetAccountInfoOpts{
			Encoding:       solana.EncodingBase64,
			Commitment:     c.commitment(opts.Commitment),
			DataSlice:      opts.DataSlice.toRPC(),
			MinContextSlot: opts.MinContextSlot,
		})
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return types.MaybeAccount{PublicKey: pk}, nil
	}
	if err != nil {
		return types.MaybeAccount{}, err
	}
	if result == nil || result.Value == nil {
		return types.MaybeAccount{PublicKey: pk}, nil
	}
	return types.MaybeAccount{PublicKey: pk, Account: convertAccount(pk, result.Value)}, nil
}

// GetAccounts fetches several accounts in one getMultipleAccounts request.
// The result has the same length and order as pks.
func (c *Client) GetAccounts(ctx context.Context, pks []solana.PublicKey, opts *GetAccountOpts) ([]types.MaybeAccount, error) {
	if len(pks) == 0 {
		return []types.MaybeAccount{}, nil
	}

	opts = opts.orDefault()
	result, err := withRetry(ctx, c, "getMultipleAccounts", func(ctx context.Context) (*rpc.GetMultipleAccountsResult, error) {
		return c.rpc.GetMultipleAccountsWithOpts(ctx, pks, &rpc.GetMultipleAccountsOpts{
			Encoding:       solana.EncodingBase64,
			Commitment:     c.commitment(opts.Commitment),
			DataSlice:      opts.DataSlice.toRPC(),
			MinContextSlot: opts.MinContextSlot,
		})
	})
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Value) != len(pks) {
		got := 0
		if result != nil {
			got = len(result.Value)
		}
		return nil, errors.NetworkFailure("getMultipleAccounts",
			fmt.Errorf("expected %d accounts, got %d", len(pks), got))
	}

	accounts := make([]types.MaybeAccount, len(pks))
	for i, pk := range pks {
		accounts[i] = types.MaybeAccount{PublicKey: pk}
		if v := result.Value[i]; v != nil {
			accounts[i].Account = convertAccount(pk, v)
		}
	}
	return accounts, nil
}

// GetProgramAccounts returns every account owned by programID that passes
// all filters.
func (c *Client) GetProgramAccounts(ctx context.Context, programID solana.PublicKey, opts *GetProgramAccountsOpts) ([]types.Account, error) {
	if opts == nil {
		opts = &GetProgramAccountsOpts{}
	}

	rpcOpts := &rpc.GetProgramAccountsOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment(opts.Commitment),
		DataSlice:  opts.DataSlice.toRPC(),
	}
	for _, f := range opts.Filters {
		rpcOpts.Filters = append(rpcOpts.Filters, f.toRPC())
	}

	result, err := withRetry(ctx, c, "getProgramAccounts", func(ctx context.Context) (rpc.GetProgramAccountsResult, error) {
		return c.rpc.GetProgramAccountsWithOpts(ctx, programID, rpcOpts)
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]types.Account, 0, len(result))
	for _, keyed := range result {
		if keyed == nil || keyed.Account == nil {
			continue
		}
		accounts = append(accounts, *convertAccount(keyed.Pubkey, keyed.Account))
	}
	return accounts, nil
}

// convertAccount converts an RPC account to the go-umi account type.
func convertAccount(pk solana.PublicKey, acc *rpc.Account) *types.Account {
	account := &types.Account{
		PublicKey:  pk,
		Lamports:   types.Lamports(acc.Lamports),
		Owner:      acc.Owner,
		Executable: acc.Executable,
	}
	if acc.Data != nil {
		account.Data = acc.Data.GetBinary()
	}
	if acc.RentEpoch != nil && acc.RentEpoch.IsUint64() {
		epoch := acc.RentEpoch.Uint64()
		account.RentEpoch = &epoch
	}
	return account
}
