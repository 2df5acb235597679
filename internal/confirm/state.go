package confirm

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-umi/pkg/types"
)

// State is the confirmation state of one submitted signature.
type State string

const (
	// StateSubmitted is the state of a signature handed to the tracker.
	StateSubmitted State = "submitted"
	// StatePending means the tracker is observing the ledger.
	StatePending State = "pending"
	// StateConfirmed means the signature reached confirmed commitment.
	StateConfirmed State = "confirmed"
	// StateFinalized means the signature reached finalized commitment.
	StateFinalized State = "finalized"
	// StateExpired means the transaction can no longer land.
	StateExpired State = "expired"
	// StateFailed means the transaction landed with an execution error.
	StateFailed State = "failed"

	// StateAbandoned means the caller stopped waiting. The ledger outcome
	// is unknown and the signature must be rechecked later.
	StateAbandoned State = "abandoned"
	// StateTimedOut means the attempt budget ran out. The ledger outcome
	// is unknown.
	StateTimedOut State = "timed_out"
)

// Terminal reports whether the state is a final ledger outcome.
func (s State) Terminal() bool {
	switch s {
	case StateConfirmed, StateFinalized, StateExpired, StateFailed:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the state is a successful outcome.
func (s State) Succeeded() bool {
	return s == StateConfirmed || s == StateFinalized
}

// Transition records one state change.
type Transition struct {
	Signature solana.Signature
	From      State
	To        State
	At        time.Time
}

// Result is what the tracker observed when Confirm returned.
type Result struct {
	Signature solana.Signature
	State     State

	// Status is the last signature status read, nil if never seen.
	Status *types.TransactionStatus

	// Attempts is the number of poll rounds made.
	Attempts int

	Elapsed time.Duration
}
