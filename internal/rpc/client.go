// Package rpc provides the ledger client used by go-umi.
//
// Client wraps the solana-go JSON-RPC client behind the narrow RPCClient
// interface so the transport can be replaced in tests. Reads are retried on
// transport failures; submissions are sent exactly once and their execution
// failures are translated by a programs.Resolver.
package rpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lugondev/go-umi/internal/confirm"
	"github.com/lugondev/go-umi/internal/metrics"
	"github.com/lugondev/go-umi/internal/programs"
	"github.com/lugondev/go-umi/internal/transactions"
	"github.com/lugondev/go-umi/pkg/types"
)

// DefaultMaxRetries is the default number of attempts for read calls.
const DefaultMaxRetries = 3

// DefaultRetryDelay is the default delay between retries.
const DefaultRetryDelay = 500 * time.Millisecond

// RPCClient is the subset of the solana-go RPC client this package uses.
type RPCClient interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey, opts *rpc.GetMultipleAccountsOpts) (*rpc.GetMultipleAccountsResult, error)
	GetProgramAccountsWithOpts(ctx context.Context, program solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error)
	GetSlot(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetBlockTime(ctx context.Context, block uint64) (*solana.UnixTimeSeconds, error)
	GetGenesisHash(ctx context.Context) (solana.Hash, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetTransaction(ctx context.Context, signature solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error)
	SendRawTransactionWithOpts(ctx context.Context, txData []byte, opts rpc.TransactionOpts) (solana.Signature, error)
	SimulateTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts *rpc.SimulateTransactionOpts) (*rpc.SimulateTransactionResponse, error)
	RPCCallForInto(ctx context.Context, out interface{}, method string, params []interface{}) error
	Close() error
}

var _ RPCClient = (*rpc.Client)(nil)

// Config holds the configuration for the ledger client.
type Config struct {
	// Endpoint is the URL of the JSON-RPC node. It alone selects the cluster.
	Endpoint string

	// Commitment is the default commitment for reads.
	Commitment types.Commitment

	// MaxRetries is the maximum number of attempts for read calls.
	MaxRetries int

	// RetryDelay is the delay between attempts.
	RetryDelay time.Duration

	// Confirm configures confirmation polling.
	Confirm confirm.Config
}

// DefaultConfig returns a default configuration for endpoint.
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:   endpoint,
		Commitment: types.CommitmentConfirmed,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		Confirm:    confirm.DefaultConfig(),
	}
}

// Client is the ledger client. It is safe for concurrent use.
type Client struct {
	rpc        RPCClient
	config     Config
	cluster    types.Cluster
	serializer transactions.Serializer
	resolver   programs.Resolver
	logger     *slog.Logger
	metrics    metrics.Metrics
}

var _ Interface = (*Client)(nil)

// New creates a Client talking JSON-RPC over HTTP to config.Endpoint.
func New(config Config) *Client {
	return NewWithRPC(rpc.New(config.Endpoint), config)
}

// NewWithRPC creates a Client on top of an existing transport.
func NewWithRPC(rpcClient RPCClient, config Config) *Client {
	if !config.Commitment.Valid() {
		config.Commitment = types.CommitmentConfirmed
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.RetryDelay < 0 {
		config.RetryDelay = 0
	}
	return &Client{
		rpc:        rpcClient,
		config:     config,
		cluster:    types.ResolveCluster(config.Endpoint),
		serializer: transactions.NewFactory(),
		resolver:   programs.DefaultRepository(),
		logger:     slog.Default(),
		metrics:    metrics.NewNoopMetrics(),
	}
}

// WithLogger sets a custom logger.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithMetrics sets the metrics backend.
func (c *Client) WithMetrics(m metrics.Metrics) *Client {
	if m != nil {
		c.metrics = m
	}
	return c
}

// WithResolver sets the resolver used to translate execution failures.
func (c *Client) WithResolver(resolver programs.Resolver) *Client {
	if resolver != nil {
		c.resolver = resolver
	}
	return c
}

// WithSerializer sets the transaction serializer used for submission.
func (c *Client) WithSerializer(serializer transactions.Serializer) *Client {
	if serializer != nil {
		c.serializer = serializer
	}
	return c
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// GetEndpoint returns the RPC endpoint URL.
func (c *Client) GetEndpoint() string {
	return c.config.Endpoint
}

// GetCluster returns the cluster inferred from the endpoint.
func (c *Client) GetCluster() types.Cluster {
	return c.cluster
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.rpc.Close()
}

func (c *Client) commitment(override types.Commitment) rpc.CommitmentType {
	if override.Valid() {
		return override.RPC()
	}
	return c.config.Commitment.RPC()
}
