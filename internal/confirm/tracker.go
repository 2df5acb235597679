// Package confirm implements the confirmation state machine that follows a
// submitted signature until it is confirmed, finalized, failed or expired.
//
// A Tracker polls a Source on a ticker. It never starts goroutines, so
// nothing outlives a call to Confirm.
package confirm

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/internal/metrics"
	"github.com/lugondev/go-umi/pkg/types"
)

const (
	// DefaultPollInterval is the default time between poll rounds.
	DefaultPollInterval = 1 * time.Second

	// DefaultMaxAttempts bounds a confirmation to roughly the lifetime of
	// a blockhash at the default interval.
	DefaultMaxAttempts = 90
)

// Source is the ledger view a Tracker polls.
type Source interface {
	// SignatureStatus returns nil when the ledger does not know sig.
	SignatureStatus(ctx context.Context, sig solana.Signature) (*types.TransactionStatus, error)

	// BlockHeight returns the current block height at commitment.
	BlockHeight(ctx context.Context, commitment types.Commitment) (uint64, error)

	// NonceValue returns the durable nonce stored in account.
	NonceValue(ctx context.Context, account solana.PublicKey, minContextSlot uint64) (solana.Hash, error)
}

// Config controls polling.
type Config struct {
	PollInterval time.Duration
	MaxAttempts  int
}

// DefaultConfig returns the default polling configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

// Tracker drives confirmations. It holds no per-signature state, so one
// Tracker can serve concurrent Confirm calls.
type Tracker struct {
	source       Source
	config       Config
	logger       *slog.Logger
	metrics      metrics.Metrics
	onTransition func(Transition)
	active       atomic.Int64
}

// NewTracker creates a Tracker. Zero config fields take their defaults.
func NewTracker(source Source, config Config) *Tracker {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	return &Tracker{
		source:  source,
		config:  config,
		logger:  slog.Default(),
		metrics: metrics.NewNoopMetrics(),
	}
}

// WithLogger sets a custom logger.
func (t *Tracker) WithLogger(logger *slog.Logger) *Tracker {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// WithMetrics sets the metrics backend.
func (t *Tracker) WithMetrics(m metrics.Metrics) *Tracker {
	if m != nil {
		t.metrics = m
	}
	return t
}

// OnTransition registers a hook called synchronously on every state change.
func (t *Tracker) OnTransition(fn func(Transition)) *Tracker {
	t.onTransition = fn
	return t
}

// Config returns the polling configuration.
func (t *Tracker) Config() Config {
	return t.config
}

type run struct {
	t             *Tracker
	sig           solana.Signature
	strategy      types.ConfirmationStrategy
	commitment    types.Commitment
	expectedNonce solana.Hash
	result        *Result
	started       time.Time
}

func (r *run) transition(to State) {
	from := r.result.State
	if from == to {
		return
	}
	r.result.State = to
	r.t.logger.Debug("confirmation state changed",
		"signature", r.sig.String(),
		"from", string(from),
		"to", string(to),
	)
	if r.t.onTransition != nil {
		r.t.onTransition(Transition{Signature: r.sig, From: from, To: to, At: time.Now()})
	}
}

// Confirm polls until sig reaches commitment or the strategy says it can
// no longer land. Cancelling ctx abandons the poll with ErrPollAbandoned;
// running out of attempts returns ErrConfirmationTimeout. Neither says
// anything about the ledger outcome. The returned Result is never nil.
func (t *Tracker) Confirm(
	ctx context.Context,
	sig solana.Signature,
	strategy types.ConfirmationStrategy,
	commitment types.Commitment,
) (*Result, error) {
	r := &run{
		t:          t,
		sig:        sig,
		strategy:   strategy,
		commitment: commitment,
		result:     &Result{Signature: sig},
		started:    time.Now(),
	}
	r.transition(StateSubmitted)

	if err := strategy.Validate(); err != nil {
		return r.result, errors.ErrInvalidStrategy.WithCause(err)
	}
	if commitment != types.CommitmentConfirmed && commitment != types.CommitmentFinalized {
		return r.result, fmt.Errorf("confirmation commitment must be confirmed or finalized, got %q", commitment)
	}

	t.metrics.UpdateGauge(ctx, metrics.MetricConfirmationsActive, float64(t.active.Add(1)))
	defer func() {
		t.metrics.UpdateGauge(ctx, metrics.MetricConfirmationsActive, float64(t.active.Add(-1)))
	}()

	res, err := r.loop(ctx)
	res.Elapsed = time.Since(r.started)

	t.metrics.IncrementCounter(ctx, metrics.ConfirmationOutcome(string(res.State)), 1)
	t.metrics.RecordHistogram(ctx, metrics.MetricConfirmDuration, res.Elapsed.Seconds())
	t.logger.Info("confirmation finished",
		"signature", sig.String(),
		"state", string(res.State),
		"attempts", res.Attempts,
		"elapsed", res.Elapsed,
	)
	return res, err
}

func (r *run) loop(ctx context.Context) (*Result, error) {
	cfg := r.t.config

	if s := r.strategy.Nonce; s != nil {
		r.expectedNonce = s.NonceValue
		if r.expectedNonce == (solana.Hash{}) {
			nonce, err := r.t.source.NonceValue(ctx, s.NonceAccount, s.MinContextSlot)
			if err != nil {
				if ctx.Err() != nil {
					return r.abandon(ctx)
				}
				return r.result, fmt.Errorf("failed to read nonce account: %w", err)
			}
			r.expectedNonce = nonce
		}
	}

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return r.abandon(ctx)
		}
		r.result.Attempts = attempt
		r.t.metrics.IncrementCounter(ctx, metrics.MetricConfirmPolls, 1)

		done, err := r.poll(ctx)
		if done {
			return r.result, err
		}
		if err != nil {
			if ctx.Err() != nil {
				return r.abandon(ctx)
			}
			lastErr = err
			r.t.logger.Warn("confirmation poll failed",
				"signature", r.sig.String(),
				"attempt", attempt,
				"error", err,
			)
		}

		if attempt == cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return r.abandon(ctx)
		case <-ticker.C:
		}
	}

	r.transition(StateTimedOut)
	timeout := errors.ErrConfirmationTimeout.WithDetails(map[string]any{
		"signature": r.sig.String(),
		"attempts":  cfg.MaxAttempts,
	})
	if lastErr != nil {
		timeout = timeout.WithCause(lastErr)
	}
	return r.result, timeout
}

func (r *run) abandon(ctx context.Context) (*Result, error) {
	r.transition(StateAbandoned)
	return r.result, errors.ErrPollAbandoned.WithCause(ctx.Err()).WithDetails(map[string]any{
		"signature": r.sig.String(),
	})
}

// poll makes one round. It returns done when a terminal state is reached.
func (r *run) poll(ctx context.Context) (bool, error) {
	status, err := r.t.source.SignatureStatus(ctx, r.sig)
	if err != nil {
		return false, err
	}
	if r.result.State == StateSubmitted {
		r.transition(StatePending)
	}
	if status != nil {
		return r.observe(status)
	}

	expired, err := r.expired(ctx)
	if err != nil || !expired {
		return false, err
	}

	// The window closed between the two reads; the status decides.
	status, err = r.t.source.SignatureStatus(ctx, r.sig)
	if err != nil {
		return false, err
	}
	if status != nil {
		return r.observe(status)
	}

	r.transition(StateExpired)
	return true, errors.ErrExpired.WithDetails(map[string]any{
		"signature": r.sig.String(),
		"strategy":  string(r.strategy.Kind()),
	})
}

func (r *run) observe(status *types.TransactionStatus) (bool, error) {
	r.result.Status = status

	switch {
	case status.Err != nil:
		r.transition(StateFailed)
		return true, errors.ErrTransactionFailed.WithDetails(map[string]any{
			"signature": r.sig.String(),
			"slot":      status.Slot,
			"err":       status.Err,
		})
	case status.Commitment.AtLeast(types.CommitmentFinalized):
		r.transition(StateFinalized)
		return true, nil
	case r.commitment == types.CommitmentConfirmed && status.Commitment.AtLeast(types.CommitmentConfirmed):
		r.transition(StateConfirmed)
		return true, nil
	default:
		return false, nil
	}
}

func (r *run) expired(ctx context.Context) (bool, error) {
	if s := r.strategy.Blockhash; s != nil {
		height, err := r.t.source.BlockHeight(ctx, r.commitment)
		if err != nil {
			return false, fmt.Errorf("failed to get block height: %w", err)
		}
		return height > s.LastValidBlockHeight, nil
	}

	s := r.strategy.Nonce
	current, err := r.t.source.NonceValue(ctx, s.NonceAccount, s.MinContextSlot)
	if err != nil {
		return false, fmt.Errorf("failed to read nonce account: %w", err)
	}
	return current != r.expectedNonce, nil
}
