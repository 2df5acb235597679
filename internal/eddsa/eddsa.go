// Package eddsa is the key and address engine: Ed25519 keypairs, signing,
// verification and program-derived addresses.
package eddsa

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/pkg/types"
)

// Interface is the set of key operations a Context depends on.
type Interface interface {
	GenerateKeypair() (*Keypair, error)
	KeypairFromSecret(secret []byte) (*Keypair, error)
	KeypairFromSeed(seed []byte) (*Keypair, error)
	KeypairFromBase58(secret string) (*Keypair, error)
	KeypairFromFile(path string) (*Keypair, error)
	KeypairFromSolanaConfig() (*Keypair, error)
	IsOnCurve(pk solana.PublicKey) bool
	FindPda(programID solana.PublicKey, seeds [][]byte) (types.Pda, error)
	Sign(message []byte, kp *Keypair) (solana.Signature, error)
	Verify(message, signature []byte, pk solana.PublicKey) bool
}

// Engine implements Interface with crypto/ed25519 and edwards25519.
type Engine struct{}

var _ Interface = (*Engine)(nil)

// New creates an Engine.
func New() *Engine {
	return &Engine{}
}

// GenerateKeypair creates a keypair from crypto/rand.
func (e *Engine) GenerateKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return newKeypair(priv), nil
}

// KeypairFromSecret rebuilds a keypair from a 64-byte secret. The embedded
// public key must match the one derived from the seed half.
func (e *Engine) KeypairFromSecret(secret []byte) (*Keypair, error) {
	if len(secret) != SecretKeySize {
		return nil, errors.InvalidKeyMaterial(fmt.Sprintf("secret key must be %d bytes, got %d", SecretKeySize, len(secret)))
	}
	priv := ed25519.NewKeyFromSeed(secret[:SeedSize])
	if !bytes.Equal(priv[SeedSize:], secret[SeedSize:]) {
		return nil, errors.InvalidKeyMaterial("public key does not match secret seed")
	}
	return newKeypair(priv), nil
}

// KeypairFromBase58 decodes a base-58 secret and rebuilds the keypair.
func (e *Engine) KeypairFromBase58(secret string) (*Keypair, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, errors.InvalidKeyMaterial("secret is not valid base58").WithCause(err)
	}
	return e.KeypairFromSecret(raw)
}

// KeypairFromSeed derives a keypair from a 32-byte seed. The same seed
// always yields the same keypair.
func (e *Engine) KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != SeedSize {
		return nil, errors.InvalidKeyMaterial(fmt.Sprintf("seed must be %d bytes, got %d", SeedSize, len(seed)))
	}
	return newKeypair(ed25519.NewKeyFromSeed(seed)), nil
}

// KeypairFromFile is not available in this runtime.
func (e *Engine) KeypairFromFile(string) (*Keypair, error) {
	return nil, errors.UnsupportedOperation("keypair from file")
}

// KeypairFromSolanaConfig is not available in this runtime.
func (e *Engine) KeypairFromSolanaConfig() (*Keypair, error) {
	return nil, errors.UnsupportedOperation("keypair from solana config")
}

// IsOnCurve reports whether pk decodes to a point on the Ed25519 curve.
func (e *Engine) IsOnCurve(pk solana.PublicKey) bool {
	return isOnCurve(pk[:])
}

func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// Sign signs message with kp.
func (e *Engine) Sign(message []byte, kp *Keypair) (solana.Signature, error) {
	if kp == nil {
		return solana.Signature{}, errors.InvalidKeyMaterial("nil keypair")
	}
	return kp.SignMessage(message)
}

// Verify checks signature over message for pk. Malformed input yields false.
func (e *Engine) Verify(message, signature []byte, pk solana.PublicKey) bool {
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pk[:]), message, signature)
}
