package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/goliatone/go-command"
	lazymintcommand "github.com/goliatone/go-lazymint/command"
	"github.com/goliatone/go-lazymint/core"
	"github.com/spf13/cobra"
)

func newMintCommand(ctx *commandContext) *cobra.Command {
	var callerFlag string
	var paymentFlag string
	var metadataFlags []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a token and attach a randomly drawn asset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := core.ParseAccountID(callerFlag)
			if err != nil {
				return fmt.Errorf("invalid --caller: %w", err)
			}
			payment, err := parsePayment(paymentFlag)
			if err != nil {
				return err
			}
			metadata, err := parseMetadata(metadataFlags)
			if err != nil {
				return err
			}

			return ctx.withRuntime(cmd.Context(), func(rt *runtime) error {
				collector := command.NewResult[core.MintResult]()
				execCtx := command.ContextWithResult(cmd.Context(), collector)
				if err := rt.facade.Commands().Mint.Execute(execCtx, lazymintcommand.MintMessage{
					Caller:   caller,
					Payment:  payment,
					Metadata: metadata,
				}); err != nil {
					return err
				}
				result, ok := collector.Load()
				if !ok {
					return fmt.Errorf("mint: no result recorded")
				}
				view := newMintView(result)
				if jsonOutput {
					return writeJSON(cmd, view)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderFields(view.fields()))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&callerFlag, "caller", "", "Account that pays for and receives the token")
	cmd.Flags().StringVar(&paymentFlag, "payment", "0", "Payment forwarded to the collection, in base units")
	cmd.Flags().StringArrayVar(&metadataFlags, "metadata", nil, "Receipt metadata as key=value (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	_ = cmd.MarkFlagRequired("caller")
	return cmd
}

func parsePayment(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return new(big.Int), nil
	}
	payment, ok := new(big.Int).SetString(raw, 10)
	if !ok || payment.Sign() < 0 {
		return nil, fmt.Errorf("invalid --payment %q: expected a non-negative integer", raw)
	}
	return payment, nil
}

func parseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --metadata %q: expected key=value", pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}
