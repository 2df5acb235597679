package types

import (
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
)

// Commitment is how settled a piece of ledger state must be before it is
// reported.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

func (c Commitment) rank() int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether c is as settled as target.
func (c Commitment) AtLeast(target Commitment) bool {
	return c.rank() > 0 && c.rank() >= target.rank()
}

// Valid reports whether c is a known commitment level.
func (c Commitment) Valid() bool {
	return c.rank() > 0
}

// RPC converts to the solana-go commitment type.
func (c Commitment) RPC() rpc.CommitmentType {
	switch c {
	case CommitmentProcessed:
		return rpc.CommitmentProcessed
	case CommitmentConfirmed:
		return rpc.CommitmentConfirmed
	default:
		return rpc.CommitmentFinalized
	}
}

// ParseCommitment parses a commitment name.
func ParseCommitment(s string) (Commitment, error) {
	c := Commitment(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown commitment %q", s)
	}
	return c, nil
}

// CommitmentFromStatus converts a signature status confirmation level.
func CommitmentFromStatus(s rpc.ConfirmationStatusType) Commitment {
	switch s {
	case rpc.ConfirmationStatusProcessed:
		return CommitmentProcessed
	case rpc.ConfirmationStatusConfirmed:
		return CommitmentConfirmed
	case rpc.ConfirmationStatusFinalized:
		return CommitmentFinalized
	default:
		return ""
	}
}
