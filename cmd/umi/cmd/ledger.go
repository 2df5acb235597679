package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newLedgerCmd(opts *rootOptions) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger queries",
	}
	ledgerCmd.AddCommand(
		&cobra.Command{
			Use:   "slot",
			Short: "Print the current slot",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.newContext()
				if err != nil {
					return err
				}
				defer c.Close()

				slot, err := c.RPC().GetSlot(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), slot)
				return nil
			},
		},
		&cobra.Command{
			Use:   "blockhash",
			Short: "Print the latest blockhash and its expiry height",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.newContext()
				if err != nil {
					return err
				}
				defer c.Close()

				bh, err := c.RPC().GetLatestBlockhash(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Blockhash:              %s\n", bh.Blockhash)
				fmt.Fprintf(out, "Last valid block height: %d\n", bh.LastValidBlockHeight)
				return nil
			},
		},
		&cobra.Command{
			Use:   "genesis",
			Short: "Print the genesis hash and cluster",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.newContext()
				if err != nil {
					return err
				}
				defer c.Close()

				hash, err := c.RPC().GetGenesisHash(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Genesis: %s\n", hash)
				fmt.Fprintf(out, "Cluster: %s\n", c.RPC().GetCluster())
				return nil
			},
		},
		&cobra.Command{
			Use:   "block-time [slot]",
			Short: "Print the estimated production time of a slot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				slot, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid slot: %w", err)
				}
				c, err := opts.newContext()
				if err != nil {
					return err
				}
				defer c.Close()

				t, err := c.RPC().GetBlockTime(cmd.Context(), slot)
				if err != nil {
					return err
				}
				if t == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "unknown")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.UTC().Format("2006-01-02T15:04:05Z07:00"))
				return nil
			},
		},
	)
	return ledgerCmd
}
