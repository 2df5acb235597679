package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lugondev/go-umi/internal/common"
	"github.com/lugondev/go-umi/internal/config"
	_ "github.com/lugondev/go-umi/internal/journal/postgres"
	"github.com/lugondev/go-umi/internal/umi"
)

type rootOptions struct {
	cfgFile string
	rpc     string
	network string
}

// NewRootCmd returns the umi command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "umi",
		Short: "umi CLI - a Solana client toolkit",
		Long: `umi is a CLI application for interacting with the Solana blockchain.

It provides commands for:
- Keypair generation and program derived addresses
- Account and ledger queries
- Transaction simulation, submission and confirmation
- Rechecking journalled submissions`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./.umi.yaml or $HOME/.umi.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.rpc, "rpc", "", "Solana RPC endpoint (overrides network)")
	rootCmd.PersistentFlags().StringVar(&opts.network, "network", "", "Solana network (mainnet, devnet, testnet, localnet)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newKeypairCmd(),
		newAccountCmd(opts),
		newLedgerCmd(opts),
		newTxCmd(opts),
		newAirdropCmd(opts),
		newJournalCmd(opts),
		newConfigCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads the configuration and applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, err
	}
	if o.network != "" {
		cfg.Solana.Network = o.network
		cfg.Solana.RPC = ""
	}
	if o.rpc != "" {
		cfg.Solana.RPC = o.rpc
	}
	return cfg, nil
}

// newContext assembles a Context for one command invocation.
func (o *rootOptions) newContext() (*umi.Context, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	c, err := umi.New(cfg, umi.WithLogger(common.NewLogger(cfg.Log)))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return c, nil
}
