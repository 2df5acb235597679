package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lugondev/go-umi/internal/journal"
)

func newJournalCmd(opts *rootOptions) *cobra.Command {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Submission journal commands",
		Long:  `Commands for inspecting journalled submissions and rechecking the ones without a final outcome.`,
	}
	journalCmd.AddCommand(newJournalListCmd(opts), newJournalRecheckCmd(opts))
	return journalCmd
}

func newJournalListCmd(opts *rootOptions) *cobra.Command {
	var (
		limit   int
		offset  int
		pending bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journalled submissions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := journal.CheckPage("list", limit, offset); err != nil {
				return err
			}
			c, err := opts.newContext()
			if err != nil {
				return err
			}
			defer c.Close()

			if c.Journal() == nil {
				return fmt.Errorf("journal is disabled")
			}

			var entries []*journal.Entry
			if pending {
				entries, err = c.Journal().FindPending(cmd.Context(), limit, offset)
			} else {
				entries, err = c.Journal().List(cmd.Context(), limit, offset)
			}
			if err != nil {
				return err
			}
			printEntries(cmd, entries)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	cmd.Flags().BoolVar(&pending, "pending", false, "only entries without a final outcome, oldest first")
	return cmd
}

func newJournalRecheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recheck",
		Short: "Look up the outcome of pending submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newContext()
			if err != nil {
				return err
			}
			defer c.Close()

			changed, err := c.Recheck(cmd.Context())
			if err != nil {
				return err
			}
			printEntries(cmd, changed)
			fmt.Fprintf(cmd.OutOrStdout(), "%d entr(ies) updated\n", len(changed))
			return nil
		},
	}
}

func printEntries(cmd *cobra.Command, entries []*journal.Entry) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIGNATURE\tCLUSTER\tSTATE\tSLOT\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			e.Signature, e.Cluster, e.State, e.Slot, e.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}
