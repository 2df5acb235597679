package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/pkg/types"
)

// Config holds all configuration for the application
type Config struct {
	Solana   SolanaConfig   `mapstructure:"solana" yaml:"solana"`
	RPC      RPCConfig      `mapstructure:"rpc" yaml:"rpc"`
	Confirm  ConfirmConfig  `mapstructure:"confirm" yaml:"confirm"`
	Identity IdentityConfig `mapstructure:"identity" yaml:"identity"`
	Journal  JournalConfig  `mapstructure:"journal" yaml:"journal"`
	NATS     NATSConfig     `mapstructure:"nats" yaml:"nats"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// SolanaConfig holds Solana-specific configuration
type SolanaConfig struct {
	RPC        string `mapstructure:"rpc" yaml:"rpc"`
	Network    string `mapstructure:"network" yaml:"network"`
	Timeout    int    `mapstructure:"timeout" yaml:"timeout"` // in seconds
	Commitment string `mapstructure:"commitment" yaml:"commitment"`
}

// RPCConfig holds retry settings for read calls
type RPCConfig struct {
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay int `mapstructure:"retry_delay" yaml:"retry_delay"` // in milliseconds
}

// ConfirmConfig holds confirmation polling settings
type ConfirmConfig struct {
	PollInterval int `mapstructure:"poll_interval" yaml:"poll_interval"` // in milliseconds
	MaxAttempts  int `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// IdentityConfig holds the signing identity. The secret key is never
// rendered.
type IdentityConfig struct {
	SecretKey string `mapstructure:"secret_key" yaml:"-" json:"-"`
}

// JournalConfig holds submission journal settings
type JournalConfig struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled"`
	Type     string         `mapstructure:"type" yaml:"type"` // memory or postgres
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host            string `mapstructure:"host" yaml:"host"`
	Port            int    `mapstructure:"port" yaml:"port"`
	User            string `mapstructure:"user" yaml:"user"`
	Password        string `mapstructure:"password" yaml:"-" json:"-"`
	Database        string `mapstructure:"database" yaml:"database"`
	SSLMode         string `mapstructure:"sslmode" yaml:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"` // in seconds
}

// NATSConfig holds outcome publisher settings
type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
}

// MetricsConfig holds metrics settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Type    string `mapstructure:"type" yaml:"type"` // log or prometheus
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // json or text
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Solana: SolanaConfig{
			Network:    "devnet",
			Timeout:    30,
			Commitment: string(types.CommitmentConfirmed),
		},
		RPC: RPCConfig{
			MaxRetries: 3,
			RetryDelay: 500,
		},
		Confirm: ConfirmConfig{
			PollInterval: 500,
			MaxAttempts:  120,
		},
		Journal: JournalConfig{
			Enabled: true,
			Type:    "memory",
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				User:            "postgres",
				Database:        "umi",
				SSLMode:         "disable",
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 3600,
			},
		},
		NATS: NATSConfig{
			URL: "nats://localhost:4222",
		},
		Metrics: MetricsConfig{
			Type: "log",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".umi")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	// Environment variables
	v.SetEnvPrefix("UMI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even when
// no config file sets them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("solana.rpc", cfg.Solana.RPC)
	v.SetDefault("solana.network", cfg.Solana.Network)
	v.SetDefault("solana.timeout", cfg.Solana.Timeout)
	v.SetDefault("solana.commitment", cfg.Solana.Commitment)
	v.SetDefault("rpc.max_retries", cfg.RPC.MaxRetries)
	v.SetDefault("rpc.retry_delay", cfg.RPC.RetryDelay)
	v.SetDefault("confirm.poll_interval", cfg.Confirm.PollInterval)
	v.SetDefault("confirm.max_attempts", cfg.Confirm.MaxAttempts)
	v.SetDefault("identity.secret_key", "")
	v.SetDefault("journal.enabled", cfg.Journal.Enabled)
	v.SetDefault("journal.type", cfg.Journal.Type)
	v.SetDefault("journal.postgres.host", cfg.Journal.Postgres.Host)
	v.SetDefault("journal.postgres.port", cfg.Journal.Postgres.Port)
	v.SetDefault("journal.postgres.user", cfg.Journal.Postgres.User)
	v.SetDefault("journal.postgres.password", "")
	v.SetDefault("journal.postgres.database", cfg.Journal.Postgres.Database)
	v.SetDefault("journal.postgres.sslmode", cfg.Journal.Postgres.SSLMode)
	v.SetDefault("journal.postgres.max_open_conns", cfg.Journal.Postgres.MaxOpenConns)
	v.SetDefault("journal.postgres.max_idle_conns", cfg.Journal.Postgres.MaxIdleConns)
	v.SetDefault("journal.postgres.conn_max_lifetime", cfg.Journal.Postgres.ConnMaxLifetime)
	v.SetDefault("nats.enabled", cfg.NATS.Enabled)
	v.SetDefault("nats.url", cfg.NATS.URL)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.type", cfg.Metrics.Type)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// Validate checks the configuration for values the client cannot use.
func (c *Config) Validate() error {
	if _, err := types.ParseCommitment(c.Solana.Commitment); err != nil {
		return errors.InvalidConfig(fmt.Sprintf("solana.commitment: %q", c.Solana.Commitment))
	}
	if c.Solana.Timeout < 0 {
		return errors.InvalidConfig("solana.timeout must not be negative")
	}
	if c.RPC.MaxRetries < 1 {
		return errors.InvalidConfig("rpc.max_retries must be at least 1")
	}
	if c.RPC.RetryDelay < 0 {
		return errors.InvalidConfig("rpc.retry_delay must not be negative")
	}
	if c.Confirm.PollInterval <= 0 {
		return errors.InvalidConfig("confirm.poll_interval must be positive")
	}
	if c.Confirm.MaxAttempts < 1 {
		return errors.InvalidConfig("confirm.max_attempts must be at least 1")
	}
	if c.Journal.Enabled {
		switch c.Journal.Type {
		case "memory", "postgres":
		default:
			return errors.InvalidConfig(fmt.Sprintf("unsupported journal type: %q", c.Journal.Type))
		}
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return errors.InvalidConfig("nats.url is required when nats is enabled")
	}
	if c.Metrics.Enabled {
		switch c.Metrics.Type {
		case "log", "prometheus":
		default:
			return errors.InvalidConfig(fmt.Sprintf("unsupported metrics type: %q", c.Metrics.Type))
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.InvalidConfig(fmt.Sprintf("unsupported log format: %q", c.Log.Format))
	}
	return nil
}

// GetRPCEndpoint returns the RPC endpoint for the configured network
func (c *SolanaConfig) GetRPCEndpoint() string {
	if c.RPC != "" {
		return c.RPC
	}

	switch c.Network {
	case "mainnet", "mainnet-beta":
		return "https://api.mainnet-beta.solana.com"
	case "testnet":
		return "https://api.testnet.solana.com"
	case "localnet", "localhost":
		return "http://localhost:8899"
	default:
		return "https://api.devnet.solana.com"
	}
}

// RetryDelayDuration returns the delay between read retries.
func (c *RPCConfig) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Millisecond
}

// PollIntervalDuration returns the confirmation poll interval.
func (c *ConfirmConfig) PollIntervalDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Millisecond
}

// TimeoutDuration returns the per-request timeout.
func (c *SolanaConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// ConnString returns the PostgreSQL connection URL.
func (c *PostgresConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}
