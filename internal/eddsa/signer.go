package eddsa

import (
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-umi/internal/errors"
)

// Signer is anything that can authorize a transaction for an address.
type Signer interface {
	// PublicKey returns the address this signer signs for.
	PublicKey() solana.PublicKey

	// SignMessage signs a serialized transaction message.
	SignMessage(message []byte) (solana.Signature, error)
}

// NoopSigner is a participant known only by its address. It fails every
// signing attempt.
type NoopSigner struct {
	Address solana.PublicKey
}

// NewNoopSigner creates a signer that cannot sign.
func NewNoopSigner(pk solana.PublicKey) NoopSigner {
	return NoopSigner{Address: pk}
}

// PublicKey returns the signer's address.
func (s NoopSigner) PublicKey() solana.PublicKey {
	return s.Address
}

// SignMessage always fails.
func (s NoopSigner) SignMessage([]byte) (solana.Signature, error) {
	return solana.Signature{}, errors.MissingSigner(s.Address.String())
}

// UniqueSigners drops signers whose public key was already seen, keeping
// the first one.
func UniqueSigners(signers ...Signer) []Signer {
	seen := make(map[solana.PublicKey]struct{}, len(signers))
	out := make([]Signer, 0, len(signers))
	for _, s := range signers {
		if s == nil {
			continue
		}
		if _, ok := seen[s.PublicKey()]; ok {
			continue
		}
		seen[s.PublicKey()] = struct{}{}
		out = append(out, s)
	}
	return out
}
