package cmd

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-umi/internal/rpc"
	"github.com/lugondev/go-umi/internal/transactions"
	"github.com/lugondev/go-umi/internal/umi"
	"github.com/lugondev/go-umi/pkg/types"
)

func newTxCmd(opts *rootOptions) *cobra.Command {
	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Transaction commands",
		Long:  `Commands for inspecting, simulating, submitting and confirming transactions.`,
	}
	txCmd.AddCommand(
		newTxStatusCmd(opts),
		newTxConfirmCmd(opts),
		newTxSimulateCmd(opts),
		newTxSendCmd(opts),
	)
	return txCmd
}

func parseSignatures(args []string) ([]solana.Signature, error) {
	sigs := make([]solana.Signature, 0, len(args))
	for _, arg := range args {
		sig, err := transactions.DecodeSignature(arg)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

func newTxStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [signature...]",
		Short: "Print signature statuses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sigs, err := parseSignatures(args)
			if err != nil {
				return err
			}
			c, err := opts.newContext()
			if err != nil {
				return err
			}
			defer c.Close()

			statuses, err := c.RPC().GetSignatureStatuses(cmd.Context(), sigs, &rpc.GetSignatureStatusesOpts{SearchTransactionHistory: true})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, status := range statuses {
				switch {
				case status == nil:
					fmt.Fprintf(out, "%s  not found\n", sigs[i])
				case status.Failed():
					fmt.Fprintf(out, "%s  %s  slot %d  failed: %v\n", sigs[i], status.Commitment, status.Slot, status.Err)
				default:
					fmt.Fprintf(out, "%s  %s  slot %d\n", sigs[i], status.Commitment, status.Slot)
				}
			}
			return nil
		},
	}
}

func newTxConfirmCmd(opts *rootOptions) *cobra.Command {
	var (
		commitment   string
		nonceAccount string
		nonceValue   string
	)

	cmd := &cobra.Command{
		Use:   "confirm [signature]",
		Short: "Wait for a signature to reach a commitment",
		Long: `Wait for a signature to reach a commitment.

Without --nonce-account the transaction is assumed to reference a blockhash
no older than the latest one. With it, --nonce-value names the nonce the
transaction consumed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := transactions.DecodeSignature(args[0])
			if err != nil {
				return err
			}
			target, err := types.ParseCommitment(commitment)
			if err != nil {
				return err
			}
			c, err := opts.newContext()
			if err != nil {
				return err
			}
			defer c.Close()

			strategy, err := confirmStrategy(cmd, c, nonceAccount, nonceValue)
			if err != nil {
				return err
			}

			result, err := c.RPC().ConfirmTransaction(cmd.Context(), sig, rpc.ConfirmOpts{
				Strategy:   strategy,
				Commitment: target,
			})
			out := cmd.OutOrStdout()
			if result != nil {
				fmt.Fprintf(out, "State:    %s\n", result.State)
				fmt.Fprintf(out, "Attempts: %d\n", result.Attempts)
				fmt.Fprintf(out, "Explorer: %s\n", types.ExplorerURL(sig, c.RPC().GetCluster()))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&commitment, "commitment", string(types.CommitmentConfirmed), "target commitment")
	cmd.Flags().StringVar(&nonceAccount, "nonce-account", "", "durable nonce account the transaction used")
	cmd.Flags().StringVar(&nonceValue, "nonce-value", "", "nonce value the transaction was built with")
	return cmd
}

func confirmStrategy(cmd *cobra.Command, c *umi.Context, nonceAccount, nonceValue string) (types.ConfirmationStrategy, error) {
	if nonceAccount == "" {
		bh, err := c.RPC().GetLatestBlockhash(cmd.Context())
		if err != nil {
			return types.ConfirmationStrategy{}, err
		}
		return types.NewBlockhashStrategy(bh), nil
	}

	pk, err := parseAddress(nonceAccount)
	if err != nil {
		return types.ConfirmationStrategy{}, err
	}
	if nonceValue == "" {
		return types.ConfirmationStrategy{}, fmt.Errorf("--nonce-value is required with --nonce-account")
	}
	value, err := solana.HashFromBase58(nonceValue)
	if err != nil {
		return types.ConfirmationStrategy{}, fmt.Errorf("invalid nonce value: %w", err)
	}
	slot, err := c.RPC().GetSlot(cmd.Context())
	if err != nil {
		return types.ConfirmationStrategy{}, err
	}
	return types.NewNonceStrategy(pk, value, slot), nil
}

func decodeTransaction(c *umi.Context, encoded string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 transaction: %w", err)
	}
	return c.Transactions().Deserialize(raw)
}

func newTxSimulateCmd(opts *rootOptions) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "simulate [base64-transaction]",
		Short: "Simulate a serialized transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newContext()
			if err != nil {
				return err
			}
			defer c.Close()

			tx, err := decodeTransaction(c, args[0])
			if err != nil {
				return err
			}
			result, err := c.RPC().SimulateTransaction(cmd.Context(), tx, &rpc.SimulateOpts{
				VerifySignatures:       verify,
				ReplaceRecentBlockhash: !verify,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, line := range result.Logs {
				fmt.Fprintln(out, line)
			}
			if result.UnitsConsumed != nil {
				fmt.Fprintf(out, "Units consumed: %d\n", *result.UnitsConsumed)
			}
			if result.Err != nil {
				return result.Err
			}
			fmt.Fprintln(out, "Simulation succeeded")
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify-signatures", false, "verify signatures instead of replacing the blockhash")
	return cmd
}

func newTxSendCmd(opts *rootOptions) *cobra.Command {
	var (
		skipPreflight bool
		wait          bool
	)

	cmd := &cobra.Command{
		Use:   "send [base64-transaction]",
		Short: "Submit a signed serialized transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newContext()
			if err != nil {
				return err
			}
			defer c.Close()

			tx, err := decodeTransaction(c, args[0])
			if err != nil {
				return err
			}
			if err := c.Transactions().VerifySignatures(tx); err != nil {
				return err
			}

			sig, err := c.RPC().SendTransaction(cmd.Context(), tx, &rpc.SendOpts{SkipPreflight: skipPreflight})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Signature: %s\n", sig)
			fmt.Fprintf(out, "Explorer:  %s\n", types.ExplorerURL(sig, c.RPC().GetCluster()))
			if !wait {
				return nil
			}

			bh, err := c.RPC().GetLatestBlockhash(cmd.Context())
			if err != nil {
				return err
			}
			result, err := c.RPC().ConfirmTransaction(cmd.Context(), sig, rpc.ConfirmOpts{
				Strategy: types.NewBlockhashStrategy(types.BlockhashWithExpiry{
					Blockhash:            tx.Message.RecentBlockhash,
					LastValidBlockHeight: bh.LastValidBlockHeight,
				}),
			})
			if result != nil {
				fmt.Fprintf(out, "State:     %s\n", result.State)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "skip preflight simulation")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for confirmation")
	return cmd
}
