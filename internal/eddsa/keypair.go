package eddsa

import (
	"crypto/ed25519"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/lugondev/go-umi/internal/errors"
)

// SecretKeySize is the length of a keypair secret: 32-byte seed followed by
// the 32-byte public key.
const SecretKeySize = ed25519.PrivateKeySize

// SeedSize is the length of a keypair seed.
const SeedSize = ed25519.SeedSize

// Keypair is an Ed25519 signing capability. The secret never leaves the
// value: every textual and serialized form renders the public key only.
type Keypair struct {
	publicKey solana.PublicKey
	secret    ed25519.PrivateKey
}

func newKeypair(priv ed25519.PrivateKey) *Keypair {
	return &Keypair{
		publicKey: solana.PublicKeyFromBytes(priv.Public().(ed25519.PublicKey)),
		secret:    priv,
	}
}

// PublicKey returns the keypair's address.
func (k *Keypair) PublicKey() solana.PublicKey {
	return k.publicKey
}

// SignMessage signs message with the seed half of the secret.
func (k *Keypair) SignMessage(message []byte) (solana.Signature, error) {
	if len(k.secret) != SecretKeySize {
		return solana.Signature{}, errors.InvalidKeyMaterial("keypair has no secret")
	}
	var sig solana.Signature
	copy(sig[:], ed25519.Sign(ed25519.NewKeyFromSeed(k.secret.Seed()), message))
	return sig, nil
}

// exportSecret returns a copy of the 64-byte secret.
func (k *Keypair) exportSecret() []byte {
	out := make([]byte, len(k.secret))
	copy(out, k.secret)
	return out
}

// ExportBase58 returns the secret as base-58 text, the format accepted by
// KeypairFromBase58. It is the only way to get the secret out of a Keypair.
func (k *Keypair) ExportBase58() string {
	return base58.Encode(k.exportSecret())
}

// Equal reports whether both keypairs hold the same secret.
func (k *Keypair) Equal(other *Keypair) bool {
	if k == nil || other == nil {
		return k == other
	}
	return subtle.ConstantTimeCompare(k.secret, other.secret) == 1
}

// String returns the public key as a string.
func (k *Keypair) String() string {
	return k.publicKey.String()
}

// GoString keeps %#v from printing the secret.
func (k *Keypair) GoString() string {
	return fmt.Sprintf("eddsa.Keypair{PublicKey: %s}", k.publicKey)
}

// LogValue implements slog.LogValuer.
func (k *Keypair) LogValue() slog.Value {
	return slog.StringValue(k.publicKey.String())
}

// MarshalJSON renders the public key only.
func (k *Keypair) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PublicKey string `json:"public_key"`
	}{k.publicKey.String()})
}

// MarshalText renders the public key only.
func (k *Keypair) MarshalText() ([]byte, error) {
	return []byte(k.publicKey.String()), nil
}
