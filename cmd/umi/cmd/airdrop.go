package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-umi/pkg/types"
)

func newAirdropCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "airdrop [address] [sol]",
		Short: "Request SOL from the cluster faucet",
		Long:  `Request an airdrop of SOL to an address and wait for it to be confirmed. Only devnet, testnet and localnet clusters have a faucet.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			amount, err := types.ParseSOL(args[1])
			if err != nil {
				return err
			}
			c, err := opts.newContext()
			if err != nil {
				return err
			}
			defer c.Close()

			if c.RPC().GetCluster() == types.ClusterMainnet {
				return fmt.Errorf("airdrop is not available on %s", types.ClusterMainnet)
			}

			sig, err := c.RPC().Airdrop(cmd.Context(), pk, amount, nil)
			out := cmd.OutOrStdout()
			if sig != (solana.Signature{}) {
				fmt.Fprintf(out, "Signature: %s\n", sig)
				fmt.Fprintf(out, "Explorer:  %s\n", types.ExplorerURL(sig, c.RPC().GetCluster()))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Airdropped %s SOL to %s\n", amount, pk)
			return nil
		},
	}
}
