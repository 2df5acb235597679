// Package transactions builds, signs and (de)serializes transactions in
// the ledger's wire format.
package transactions

import (
	"fmt"
	"log/slog"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-umi/internal/eddsa"
	"github.com/lugondev/go-umi/internal/errors"
)

// MaxTransactionSize is the largest serialized transaction a node accepts.
const MaxTransactionSize = 1232

// Serializer converts transactions to and from wire bytes.
type Serializer interface {
	Serialize(tx *solana.Transaction) ([]byte, error)
	Deserialize(data []byte) (*solana.Transaction, error)
	SerializeMessage(tx *solana.Transaction) ([]byte, error)
}

// Factory builds, signs and serializes transactions.
type Factory struct {
	engine *eddsa.Engine
	logger *slog.Logger
}

var _ Serializer = (*Factory)(nil)

// NewFactory creates a Factory.
func NewFactory() *Factory {
	return &Factory{
		engine: eddsa.New(),
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger.
func (f *Factory) WithLogger(logger *slog.Logger) *Factory {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// Build compiles instructions into an unsigned transaction paid by payer.
func (f *Factory) Build(instructions []solana.Instruction, blockhash solana.Hash, payer solana.PublicKey) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("transaction has no instructions")
	}
	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	return tx, nil
}

// Serialize encodes a transaction as signature count, signatures, message.
func (f *Factory) Serialize(tx *solana.Transaction) ([]byte, error) {
	if tx == nil {
		return nil, errors.SerializationFailed("transaction", fmt.Errorf("nil transaction"))
	}
	data, err := tx.MarshalBinary()
	if err != nil {
		return nil, errors.SerializationFailed("transaction", err)
	}
	if len(data) > MaxTransactionSize {
		return nil, errors.SerializationFailed("transaction",
			fmt.Errorf("transaction is %d bytes, max %d", len(data), MaxTransactionSize))
	}
	return data, nil
}

// Deserialize decodes wire bytes. Trailing bytes are rejected.
func (f *Factory) Deserialize(data []byte) (*solana.Transaction, error) {
	dec := bin.NewBinDecoder(data)
	tx, err := solana.TransactionFromDecoder(dec)
	if err != nil {
		return nil, errors.SerializationFailed("transaction", err)
	}
	if dec.Remaining() > 0 {
		return nil, errors.SerializationFailed("transaction",
			fmt.Errorf("%d trailing bytes", dec.Remaining()))
	}
	return tx, nil
}

// SerializeMessage encodes the message part, the bytes signers sign.
func (f *Factory) SerializeMessage(tx *solana.Transaction) ([]byte, error) {
	data, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, errors.SerializationFailed("message", err)
	}
	return data, nil
}

// RequiredSigners returns the keys whose signatures the message requires,
// fee payer first.
func RequiredSigners(tx *solana.Transaction) []solana.PublicKey {
	n := int(tx.Message.Header.NumRequiredSignatures)
	if n > len(tx.Message.AccountKeys) {
		n = len(tx.Message.AccountKeys)
	}
	return tx.Message.AccountKeys[:n]
}

// Sign signs tx with every required signer. It fails without touching the
// transaction when a required signer is missing.
func (f *Factory) Sign(tx *solana.Transaction, signers ...eddsa.Signer) error {
	byKey := indexSigners(signers)
	for _, key := range RequiredSigners(tx) {
		if _, ok := byKey[key]; !ok {
			return errors.MissingSigner(key.String())
		}
	}
	return f.sign(tx, byKey)
}

// PartialSign signs tx with the given signers and leaves the slots of the
// others untouched.
func (f *Factory) PartialSign(tx *solana.Transaction, signers ...eddsa.Signer) error {
	return f.sign(tx, indexSigners(signers))
}

func (f *Factory) sign(tx *solana.Transaction, byKey map[solana.PublicKey]eddsa.Signer) error {
	message, err := f.SerializeMessage(tx)
	if err != nil {
		return err
	}

	required := RequiredSigners(tx)
	if len(tx.Signatures) != len(required) {
		sigs := make([]solana.Signature, len(required))
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}

	for i, key := range required {
		s, ok := byKey[key]
		if !ok {
			continue
		}
		sig, err := s.SignMessage(message)
		if err != nil {
			return fmt.Errorf("failed to sign for %s: %w", key, err)
		}
		tx.Signatures[i] = sig
	}

	f.logger.Debug("signed transaction", "signatures", len(required), "signers", len(byKey))
	return nil
}

// VerifySignatures checks every required signature against the message.
func (f *Factory) VerifySignatures(tx *solana.Transaction) error {
	message, err := f.SerializeMessage(tx)
	if err != nil {
		return err
	}
	required := RequiredSigners(tx)
	if len(tx.Signatures) != len(required) {
		return fmt.Errorf("expected %d signatures, got %d", len(required), len(tx.Signatures))
	}
	for i, key := range required {
		if !f.engine.Verify(message, tx.Signatures[i][:], key) {
			return fmt.Errorf("invalid signature for %s", key)
		}
	}
	return nil
}

// FirstSignature returns the fee payer's signature, which identifies the
// transaction on the ledger.
func FirstSignature(tx *solana.Transaction) (solana.Signature, bool) {
	if len(tx.Signatures) == 0 || tx.Signatures[0] == (solana.Signature{}) {
		return solana.Signature{}, false
	}
	return tx.Signatures[0], true
}

// EncodeSignature renders a signature as base-58 text.
func EncodeSignature(sig solana.Signature) string {
	return sig.String()
}

// DecodeSignature parses base-58 signature text.
func DecodeSignature(s string) (solana.Signature, error) {
	sig, err := solana.SignatureFromBase58(s)
	if err != nil {
		return solana.Signature{}, errors.SerializationFailed("signature", err)
	}
	return sig, nil
}

func indexSigners(signers []eddsa.Signer) map[solana.PublicKey]eddsa.Signer {
	byKey := make(map[solana.PublicKey]eddsa.Signer, len(signers))
	for _, s := range eddsa.UniqueSigners(signers...) {
		byKey[s.PublicKey()] = s
	}
	return byKey
}
