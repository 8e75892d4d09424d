package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"datapipe/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the download ledger",
	}

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "failed",
		Short: "List moves whose latest download attempt failed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(ctx, func(store *ledger.Store) error {
				failed, err := store.Failed(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, len(failed))
				for i, a := range failed {
					rows[i] = []string{
						strconv.Itoa(a.MoveID), a.Name, a.Link,
						a.AttemptedAt.Format("2006-01-02 15:04"), a.Error,
					}
				}
				return printListing(cmd, ctx, listing{
					value:   failed,
					empty:   "No failed downloads",
					headers: []string{"ID", "Name", "Link", "Attempted", "Error"},
					rows:    rows,
					aligns:  []columnAlignment{alignRight},
				})
			})
		},
	})

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Count moves by latest attempt status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(ctx, func(store *ledger.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, stats)
				}
				rows := [][]string{
					{string(ledger.StatusFound), strconv.Itoa(stats[ledger.StatusFound])},
					{string(ledger.StatusFailed), strconv.Itoa(stats[ledger.StatusFailed])},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Status", "Moves"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	})

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget every recorded attempt so all rows are retried",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(ctx, func(store *ledger.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d attempts\n", removed)
				return nil
			})
		},
	})

	return ledgerCmd
}

func withLedger(ctx *commandContext, fn func(*ledger.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
