package types

import "fmt"

// StrategyKind names the variant of a ConfirmationStrategy.
type StrategyKind string

const (
	StrategyBlockhash StrategyKind = "blockhash"
	StrategyNonce     StrategyKind = "nonce"
)

// BlockhashStrategy expires the transaction once the chain passes
// LastValidBlockHeight.
type BlockhashStrategy struct {
	Blockhash            Hash   `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"last_valid_block_height"`
}

// NonceStrategy expires the transaction once the durable nonce stored in
// NonceAccount no longer equals NonceValue. A zero NonceValue means the
// nonce is sampled when confirmation starts.
type NonceStrategy struct {
	NonceAccount   PublicKey `json:"nonce_account"`
	NonceValue     Hash      `json:"nonce_value"`
	MinContextSlot uint64    `json:"min_context_slot"`
}

// ConfirmationStrategy decides when an unconfirmed transaction can no
// longer land. Exactly one of Blockhash and Nonce is set.
type ConfirmationStrategy struct {
	Blockhash *BlockhashStrategy `json:"blockhash,omitempty"`
	Nonce     *NonceStrategy     `json:"nonce,omitempty"`
}

// NewBlockhashStrategy builds a blockhash-window strategy.
func NewBlockhashStrategy(b BlockhashWithExpiry) ConfirmationStrategy {
	return ConfirmationStrategy{Blockhash: &BlockhashStrategy{
		Blockhash:            b.Blockhash,
		LastValidBlockHeight: b.LastValidBlockHeight,
	}}
}

// NewNonceStrategy builds a durable-nonce strategy.
func NewNonceStrategy(account PublicKey, value Hash, minContextSlot uint64) ConfirmationStrategy {
	return ConfirmationStrategy{Nonce: &NonceStrategy{
		NonceAccount:   account,
		NonceValue:     value,
		MinContextSlot: minContextSlot,
	}}
}

// Kind returns the variant in use.
func (s ConfirmationStrategy) Kind() StrategyKind {
	if s.Nonce != nil {
		return StrategyNonce
	}
	return StrategyBlockhash
}

// Validate checks that exactly one variant is set.
func (s ConfirmationStrategy) Validate() error {
	switch {
	case s.Blockhash != nil && s.Nonce != nil:
		return fmt.Errorf("strategy must be either blockhash or nonce, not both")
	case s.Blockhash == nil && s.Nonce == nil:
		return fmt.Errorf("strategy is empty")
	case s.Nonce != nil && s.Nonce.NonceAccount.IsZero():
		return fmt.Errorf("nonce strategy requires a nonce account")
	}
	return nil
}
