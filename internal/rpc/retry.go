package rpc

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/internal/metrics"
)

// JSON-RPC error codes a node returns while it is catching up.
const (
	codeBlockNotAvailable = -32004
	codeNodeUnhealthy     = -32005
)

// retryable reports whether a failed read may succeed when repeated.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, rpc.ErrNotFound):
		return false
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == codeNodeUnhealthy || rpcErr.Code == codeBlockNotAvailable
	}
	return true
}

// call makes one instrumented request.
func call[T any](ctx context.Context, c *Client, method string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	out, err := fn(ctx)
	_ = c.metrics.RecordHistogram(ctx, metrics.MetricRPCCallDuration, time.Since(start).Seconds())
	_ = c.metrics.IncrementCounter(ctx, metrics.MetricRPCCalls, 1)
	if err != nil {
		_ = c.metrics.IncrementCounter(ctx, metrics.MetricRPCFailures, 1)
	}
	return out, err
}

// withRetry repeats a read until it succeeds, fails permanently, or the
// attempt budget is spent. Failures are reported as NetworkFailure wrapping
// the last cause.
func withRetry[T any](ctx context.Context, c *Client, method string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < c.config.MaxRetries; i++ {
		out, err := call(ctx, c, method, fn)
		if err == nil {
			return out, nil
		}

		lastErr = err
		if !retryable(err) || i == c.config.MaxRetries-1 {
			break
		}

		c.logger.Debug("RPC call failed, retrying",
			"method", method,
			"attempt", i+1,
			"error", err,
		)
		_ = c.metrics.IncrementCounter(ctx, metrics.MetricRPCRetries, 1)

		select {
		case <-ctx.Done():
			return zero, errors.NetworkFailure(method, ctx.Err())
		case <-time.After(c.config.RetryDelay):
		}
	}

	return zero, errors.NetworkFailure(method, lastErr)
}
