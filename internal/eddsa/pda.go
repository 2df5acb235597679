package eddsa

import (
	"crypto/sha256"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/pkg/types"
)

const (
	// MaxSeeds is the ledger's limit on seeds per derived address, bump included.
	MaxSeeds = 16

	// MaxSeedLength is the ledger's limit on a single seed.
	MaxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

// FindPda searches bumps from 255 down to 0 and returns the first derived
// address that is off the curve.
func (e *Engine) FindPda(programID solana.PublicKey, seeds [][]byte) (types.Pda, error) {
	if err := validateSeeds(seeds, 1); err != nil {
		return types.Pda{}, err
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := math.MaxUint8; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		addr, onCurve := deriveAddress(programID, withBump)
		if !onCurve {
			return types.Pda{Address: addr, Bump: uint8(bump)}, nil
		}
	}
	return types.Pda{}, errors.ErrNoValidBumpFound
}

// CreatePda hashes seeds as given, without a bump search. Seeds that land
// on the curve are rejected.
func (e *Engine) CreatePda(programID solana.PublicKey, seeds [][]byte) (solana.PublicKey, error) {
	if err := validateSeeds(seeds, 0); err != nil {
		return solana.PublicKey{}, err
	}
	addr, onCurve := deriveAddress(programID, seeds)
	if onCurve {
		return solana.PublicKey{}, errors.InvalidSeeds("derived address lies on the curve")
	}
	return addr, nil
}

func validateSeeds(seeds [][]byte, reserved int) error {
	if len(seeds)+reserved > MaxSeeds {
		return errors.InvalidSeeds(fmt.Sprintf("at most %d seeds allowed, got %d", MaxSeeds-reserved, len(seeds)))
	}
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return errors.InvalidSeeds(fmt.Sprintf("seed %d is %d bytes, max %d", i, len(s), MaxSeedLength))
		}
	}
	return nil
}

func deriveAddress(programID solana.PublicKey, seeds [][]byte) (solana.PublicKey, bool) {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var addr solana.PublicKey
	copy(addr[:], h.Sum(nil))
	return addr, isOnCurve(addr[:])
}
