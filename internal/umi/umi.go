// Package umi assembles the go-umi components into a single Context.
//
// A Context is built once by New and never patched afterwards. It owns the
// key engine, the ledger client, the program registry used to translate
// execution failures, the transaction factory, the signing identity and the
// submission journal.
package umi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lugondev/go-umi/internal/common"
	"github.com/lugondev/go-umi/internal/config"
	"github.com/lugondev/go-umi/internal/confirm"
	"github.com/lugondev/go-umi/internal/eddsa"
	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/internal/journal"
	"github.com/lugondev/go-umi/internal/metrics"
	"github.com/lugondev/go-umi/internal/notify"
	"github.com/lugondev/go-umi/internal/programs"
	"github.com/lugondev/go-umi/internal/rpc"
	"github.com/lugondev/go-umi/internal/transactions"
	"github.com/lugondev/go-umi/pkg/types"
)

// Context bundles the components a client flow depends on. It is safe for
// concurrent use once built.
type Context struct {
	common.LoggerMixin

	config       *config.Config
	eddsa        eddsa.Interface
	rpc          rpc.Interface
	programs     *programs.Repository
	transactions *transactions.Factory
	identity     eddsa.Signer
	payer        eddsa.Signer
	journal      journal.Repository
	publisher    notify.Publisher
	metrics      metrics.Metrics
}

// Option customizes a Context during New.
type Option func(*Context)

// WithEddsa replaces the signature backend.
func WithEddsa(e eddsa.Interface) Option {
	return func(c *Context) { c.eddsa = e }
}

// WithRPC replaces the ledger client built from the configuration.
func WithRPC(r rpc.Interface) Option {
	return func(c *Context) { c.rpc = r }
}

// WithPrograms replaces the program repository.
func WithPrograms(p *programs.Repository) Option {
	return func(c *Context) { c.programs = p }
}

// WithTransactions replaces the transaction factory.
func WithTransactions(f *transactions.Factory) Option {
	return func(c *Context) { c.transactions = f }
}

// WithIdentity sets the signer acting on behalf of the user. It is also the
// payer unless WithPayer is given.
func WithIdentity(s eddsa.Signer) Option {
	return func(c *Context) { c.identity = s }
}

// WithPayer sets a fee payer distinct from the identity.
func WithPayer(s eddsa.Signer) Option {
	return func(c *Context) { c.payer = s }
}

// WithJournal replaces the journal opened from the configuration.
func WithJournal(j journal.Repository) Option {
	return func(c *Context) { c.journal = j }
}

// WithPublisher replaces the configured confirmation publisher.
func WithPublisher(p notify.Publisher) Option {
	return func(c *Context) { c.publisher = p }
}

// WithMetrics replaces the configured metrics sink.
func WithMetrics(m metrics.Metrics) Option {
	return func(c *Context) { c.metrics = m }
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) { c.SetLogger(logger) }
}

// New builds a Context from cfg. Components not supplied through options
// are created from the configuration.
func New(cfg *config.Config, opts ...Option) (*Context, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Context{
		LoggerMixin: common.NewLoggerMixin(),
		config:      cfg,
	}
	for _, opt := range opts {
		opt(c)
	}

	logger := c.GetLogger()
	if c.eddsa == nil {
		c.eddsa = eddsa.New()
	}
	if c.metrics == nil {
		c.metrics = newMetrics(cfg.Metrics, logger)
	}
	if c.programs == nil {
		c.programs = programs.DefaultRepository().WithLogger(logger)
	}
	if c.transactions == nil {
		c.transactions = transactions.NewFactory().WithLogger(logger)
	}
	if c.rpc == nil {
		c.rpc = rpc.New(rpcConfig(cfg)).
			WithLogger(logger).
			WithMetrics(c.metrics).
			WithResolver(c.programs).
			WithSerializer(c.transactions)
	}

	if c.identity == nil && cfg.Identity.SecretKey != "" {
		kp, err := c.eddsa.KeypairFromBase58(cfg.Identity.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load identity: %w", err)
		}
		c.identity = kp
	}
	if c.payer == nil {
		c.payer = c.identity
	}

	if c.journal == nil && cfg.Journal.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout(cfg))
		repo, err := journal.Open(ctx, &cfg.Journal)
		cancel()
		if err != nil {
			return nil, err
		}
		c.journal = repo
	}

	if c.publisher == nil {
		c.publisher = notify.NoopPublisher{}
		if cfg.NATS.Enabled {
			ctx, cancel := context.WithTimeout(context.Background(), setupTimeout(cfg))
			p, err := notify.NewJetStreamPublisher(ctx, cfg.NATS.URL, logger)
			cancel()
			if err != nil {
				return nil, err
			}
			c.publisher = p
		}
	}

	logger.Debug("context assembled",
		"endpoint", c.rpc.GetEndpoint(),
		"cluster", c.rpc.GetCluster(),
		"identity", c.identity != nil,
		"journal", c.journal != nil,
	)
	return c, nil
}

// setupTimeout bounds connecting to the journal and the publisher.
func setupTimeout(cfg *config.Config) time.Duration {
	if d := cfg.Solana.TimeoutDuration(); d > 0 {
		return d
	}
	return 30 * time.Second
}

// rpcConfig maps the configuration onto the ledger client settings.
func rpcConfig(cfg *config.Config) rpc.Config {
	rc := rpc.DefaultConfig(cfg.Solana.GetRPCEndpoint())
	if commitment, err := types.ParseCommitment(cfg.Solana.Commitment); err == nil {
		rc.Commitment = commitment
	}
	rc.MaxRetries = cfg.RPC.MaxRetries
	rc.RetryDelay = cfg.RPC.RetryDelayDuration()
	rc.Confirm = confirm.Config{
		PollInterval: cfg.Confirm.PollIntervalDuration(),
		MaxAttempts:  cfg.Confirm.MaxAttempts,
	}
	return rc
}

func newMetrics(cfg config.MetricsConfig, logger *slog.Logger) metrics.Metrics {
	if !cfg.Enabled {
		return metrics.NewNoopMetrics()
	}
	switch cfg.Type {
	case "prometheus":
		return metrics.NewPrometheusMetrics(nil)
	default:
		return metrics.NewLogMetrics(logger)
	}
}

// Config returns the configuration the Context was built from.
func (c *Context) Config() *config.Config { return c.config }

// Eddsa returns the signature backend.
func (c *Context) Eddsa() eddsa.Interface { return c.eddsa }

// RPC returns the ledger client.
func (c *Context) RPC() rpc.Interface { return c.rpc }

// Programs returns the program repository.
func (c *Context) Programs() *programs.Repository { return c.programs }

// Transactions returns the transaction factory.
func (c *Context) Transactions() *transactions.Factory { return c.transactions }

// Identity returns the configured identity, nil when none was set.
func (c *Context) Identity() eddsa.Signer { return c.identity }

// Payer returns the fee payer, nil when none was set.
func (c *Context) Payer() eddsa.Signer { return c.payer }

// Journal returns the submission journal, nil when disabled.
func (c *Context) Journal() journal.Repository { return c.journal }

// Publisher returns the confirmation publisher, a no-op when none is
// configured.
func (c *Context) Publisher() notify.Publisher { return c.publisher }

// Metrics returns the metrics sink.
func (c *Context) Metrics() metrics.Metrics { return c.metrics }

// GenerateSigner creates a new random keypair.
func (c *Context) GenerateSigner() (*eddsa.Keypair, error) {
	return c.eddsa.GenerateKeypair()
}

// Close releases the journal, the publisher and the ledger client.
func (c *Context) Close() error {
	var errs []error
	if c.journal != nil {
		errs = append(errs, c.journal.Close())
	}
	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}
	if c.rpc != nil {
		errs = append(errs, c.rpc.Close())
	}
	return errors.Join(errs...)
}
