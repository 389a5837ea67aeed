package main

import (
	"fmt"

	"github.com/goliatone/go-lazymint/core"
	lazymintquery "github.com/goliatone/go-lazymint/query"
	"github.com/spf13/cobra"
)

func newReceiptsCommand(ctx *commandContext) *cobra.Command {
	receiptsCmd := &cobra.Command{
		Use:   "receipts",
		Short: "Inspect the mint receipt trail",
	}
	receiptsCmd.AddCommand(newReceiptsListCommand(ctx))
	receiptsCmd.AddCommand(newReceiptsShowCommand(ctx))
	return receiptsCmd
}

func newReceiptsListCommand(ctx *commandContext) *cobra.Command {
	var callerFlag string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List receipts for a caller, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := core.ParseAccountID(callerFlag)
			if err != nil {
				return fmt.Errorf("invalid --caller: %w", err)
			}
			return ctx.withRuntime(cmd.Context(), func(rt *runtime) error {
				receipts, err := rt.facade.Queries().ListMintReceipts.Query(cmd.Context(), lazymintquery.ListMintReceiptsMessage{
					Caller: caller,
					Limit:  limit,
				})
				if err != nil {
					return err
				}
				views := make([]receiptView, 0, len(receipts))
				for _, receipt := range receipts {
					views = append(views, newReceiptView(receipt))
				}
				if jsonOutput {
					return writeJSON(cmd, views)
				}
				if len(views) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No receipts")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, view := range views {
					rows = append(rows, view.row())
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Status", "State", "Token", "Asset", "Seq", "Payment", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&callerFlag, "caller", "", "Account whose receipts to list")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of receipts")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	_ = cmd.MarkFlagRequired("caller")
	return cmd
}

func newReceiptsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd.Context(), func(rt *runtime) error {
				receipt, err := rt.facade.Queries().GetMintReceipt.Query(cmd.Context(), lazymintquery.GetMintReceiptMessage{
					ReceiptID: args[0],
				})
				if err != nil {
					return err
				}
				view := newReceiptView(receipt)
				if jsonOutput {
					return writeJSON(cmd, view)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderFields(view.fields()))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}
