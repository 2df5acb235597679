// Package types provides the ledger data model shared by the go-umi packages.
// It wraps and extends the solana-go library types for consistency and convenience.
package types

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// PublicKey is a 32-byte account address.
type PublicKey = solana.PublicKey

// Signature is a 64-byte transaction signature.
type Signature = solana.Signature

// Hash is a 32-byte hash, typically used for blockhashes and nonces.
type Hash = solana.Hash

// Transaction is a signed or unsigned ledger transaction.
type Transaction = solana.Transaction

// Pda is a program-derived address together with the bump that produced it.
type Pda struct {
	// Address is the derived off-curve address.
	Address PublicKey `json:"address"`

	// Bump is the seed byte appended to the user seeds.
	Bump uint8 `json:"bump"`
}

// Account represents a ledger account with its data and metadata.
type Account struct {
	// PublicKey is the address of this account.
	PublicKey PublicKey `json:"public_key"`

	// Lamports is the number of lamports owned by this account.
	Lamports SolAmount `json:"lamports"`

	// Data is the data held in this account.
	Data []byte `json:"data"`

	// Owner is the program that owns this account.
	Owner PublicKey `json:"owner"`

	// Executable indicates if the account contains a program.
	Executable bool `json:"executable"`

	// RentEpoch is the epoch at which this account will next owe rent, when reported.
	RentEpoch *uint64 `json:"rent_epoch,omitempty"`
}

// MaybeAccount is the result of an account lookup. Account is nil when the
// address holds no account.
type MaybeAccount struct {
	// PublicKey is the address that was looked up.
	PublicKey PublicKey `json:"public_key"`

	// Account is the account found at PublicKey, if any.
	Account *Account `json:"account,omitempty"`
}

// Exists reports whether an account was found.
func (m MaybeAccount) Exists() bool {
	return m.Account != nil
}

// BlockhashWithExpiry is a recent blockhash and the last block height at
// which transactions referencing it are accepted.
type BlockhashWithExpiry struct {
	Blockhash            Hash   `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"last_valid_block_height"`
}

// TransactionStatus is the ledger's view of a submitted signature.
type TransactionStatus struct {
	// Slot is the slot the transaction was processed in.
	Slot uint64 `json:"slot"`

	// Confirmations is the number of blocks since processing, nil once rooted.
	Confirmations *uint64 `json:"confirmations,omitempty"`

	// Err is the raw transaction error, nil on success.
	Err any `json:"err,omitempty"`

	// Commitment is the highest commitment the transaction has reached.
	Commitment Commitment `json:"commitment"`
}

// Failed reports whether the transaction executed with an error.
func (s *TransactionStatus) Failed() bool {
	return s != nil && s.Err != nil
}

// TransactionStatusMeta contains metadata about a transaction's execution status.
type TransactionStatusMeta struct {
	// Err is the raw error if the transaction failed, nil if successful.
	Err any `json:"err,omitempty"`

	// Fee is the fee charged for this transaction.
	Fee SolAmount `json:"fee"`

	// PreBalances is the list of account balances before the transaction.
	PreBalances []uint64 `json:"pre_balances"`

	// PostBalances is the list of account balances after the transaction.
	PostBalances []uint64 `json:"post_balances"`

	// LogMessages is the list of log messages produced during execution.
	LogMessages []string `json:"log_messages,omitempty"`

	// ComputeUnitsConsumed is the number of compute units consumed.
	ComputeUnitsConsumed *uint64 `json:"compute_units_consumed,omitempty"`
}

// IsSuccess returns true if the transaction was successful.
func (m *TransactionStatusMeta) IsSuccess() bool {
	return m.Err == nil
}

// TransactionWithMeta is a processed transaction fetched from the ledger.
type TransactionWithMeta struct {
	Signature   Signature              `json:"signature"`
	Slot        uint64                 `json:"slot"`
	BlockTime   *time.Time             `json:"block_time,omitempty"`
	Transaction *Transaction           `json:"-"`
	Meta        *TransactionStatusMeta `json:"meta"`
}
