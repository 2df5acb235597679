package cmd

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-umi/internal/rpc"
	"github.com/lugondev/go-umi/pkg/types"
)

func newAccountCmd(opts *rootOptions) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account queries",
		Long:  `Commands for reading accounts, balances and rent from the ledger.`,
	}
	accountCmd.AddCommand(
		newAccountGetCmd(opts),
		newAccountBalanceCmd(opts),
		newAccountExistsCmd(opts),
		newAccountRentCmd(opts),
		newAccountProgramCmd(opts),
	)
	return accountCmd
}

func parseAddress(s string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid address: %w", err)
	}
	return pk, nil
}

func newAccountGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get [address]",
		Short: "Fetch an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			c, err := opts.newContext()
			if err != nil {
				return err
			}
			defer c.Close()

			acc, err := c.RPC().GetAccount(cmd.Context(), pk, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !acc.Exists() {
				fmt.Fprintf(out, "Account %s does not exist\n", pk)
				return nil
			}
			printAccount(cmd, acc.Account)
			return nil
		},
	}
}

func printAccount(cmd *cobra.Command, acc *types.Account) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Address:    %s\n", acc.PublicKey)
	fmt.Fprintf(out, "Owner:      %s\n", acc.Owner)
	fmt.Fprintf(out, "Balance:    %s SOL\n", acc.Lamports)
	fmt.Fprintf(out, "Executable: %t\n", acc.Executable)
	fmt.Fprintf(out, "Data:       %d bytes\n", len(acc.Data))
	if len(acc.Data) > 0 {
		fmt.Fprintf(out, "            %s\n", base64.StdEncoding.EncodeToString(acc.Data))
	}
}

func newAccountBalanceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Check account balance",
		Long:  `Check the SOL balance of an address.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			c, err := opts.newContext()
			if err != nil {
				return err
			}
			defer c.Close()

			balance, err := c.RPC().GetBalance(cmd.Context(), pk)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s SOL (%d lamports)\n", balance, balance.Lamports())
			return nil
		},
	}
}

func newAccountExistsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exists [address]",
		Short: "Check whether an address holds a balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			c, err := opts.newContext()
			if err != nil {
				return err
			}
			defer c.Close()

			exists, err := c.RPC().AccountExists(cmd.Context(), pk)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), exists)
			return nil
		},
	}
}

func newAccountRentCmd(opts *rootOptions) *cobra.Command {
	var includeHeader bool

	cmd := &cobra.Command{
		Use:   "rent [bytes]",
		Short: "Rent-exempt minimum for a data size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid size: %w", err)
			}
			c, err := opts.newContext()
			if err != nil {
				return err
			}
			defer c.Close()

			rent, err := c.RPC().GetRent(cmd.Context(), size, &rpc.GetRentOpts{IncludeHeader: includeHeader})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s SOL (%d lamports)\n", rent, rent.Lamports())
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeHeader, "include-header", false, "include the account header rent")
	return cmd
}

func newAccountProgramCmd(opts *rootOptions) *cobra.Command {
	var (
		dataSize uint64
		memcmps  []string
	)

	cmd := &cobra.Command{
		Use:   "program [program-id]",
		Short: "List accounts owned by a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			programID, err := parseAddress(args[0])
			if err != nil {
				return err
			}

			var filters []rpc.Filter
			if dataSize > 0 {
				filters = append(filters, rpc.DataSizeFilter(dataSize))
			}
			for _, m := range memcmps {
				f, err := parseMemcmp(m)
				if err != nil {
					return err
				}
				filters = append(filters, f)
			}

			c, err := opts.newContext()
			if err != nil {
				return err
			}
			defer c.Close()

			accounts, err := c.RPC().GetProgramAccounts(cmd.Context(), programID, &rpc.GetProgramAccountsOpts{Filters: filters})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, acc := range accounts {
				fmt.Fprintf(out, "%s  %s SOL  %d bytes\n", acc.PublicKey, acc.Lamports, len(acc.Data))
			}
			fmt.Fprintf(out, "%d account(s)\n", len(accounts))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&dataSize, "data-size", 0, "only accounts with exactly this many data bytes")
	cmd.Flags().StringSliceVar(&memcmps, "memcmp", nil, "offset:base58 byte match, repeatable")
	return cmd
}

// parseMemcmp parses "offset:base58bytes".
func parseMemcmp(s string) (rpc.Filter, error) {
	offsetStr, data, ok := strings.Cut(s, ":")
	if !ok {
		return rpc.Filter{}, fmt.Errorf("invalid memcmp %q: want offset:base58", s)
	}
	offset, err := strconv.ParseUint(offsetStr, 10, 64)
	if err != nil {
		return rpc.Filter{}, fmt.Errorf("invalid memcmp offset %q: %w", offsetStr, err)
	}
	b, err := base58.Decode(data)
	if err != nil {
		return rpc.Filter{}, fmt.Errorf("invalid memcmp bytes %q: %w", data, err)
	}
	return rpc.MemcmpFilter(offset, b), nil
}
