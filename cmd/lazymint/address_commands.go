package main

import (
	"context"
	"fmt"
	"strconv"

	lazymint "github.com/goliatone/go-lazymint"
	lazymintcommand "github.com/goliatone/go-lazymint/command"
	"github.com/goliatone/go-lazymint/core"
	lazymintquery "github.com/goliatone/go-lazymint/query"
	"github.com/spf13/cobra"
)

type addressView struct {
	OrchestratorID    string `json:"orchestrator_id"`
	Generation        string `json:"generation"`
	Owner             string `json:"owner,omitempty"`
	CollectionAddress string `json:"collection_address"`
	CatalogAddress    string `json:"catalog_address"`
}

func newAddressCommand(ctx *commandContext) *cobra.Command {
	addressCmd := &cobra.Command{
		Use:   "address",
		Short: "Inspect or change the collection and catalog addresses",
	}
	addressCmd.AddCommand(newAddressShowCommand(ctx))
	addressCmd.AddCommand(newAddressSetCommand(ctx, "set-collection", "Point minting at a new collection contract",
		func(runCtx context.Context, commands lazymint.Commands, caller, address core.AccountID) error {
			return commands.SetCollectionAddress.Execute(runCtx, lazymintcommand.SetCollectionAddressMessage{
				Caller:  caller,
				Address: address,
			})
		}))
	addressCmd.AddCommand(newAddressSetCommand(ctx, "set-catalog", "Record a new catalog contract",
		func(runCtx context.Context, commands lazymint.Commands, caller, address core.AccountID) error {
			return commands.SetCatalogAddress.Execute(runCtx, lazymintcommand.SetCatalogAddressMessage{
				Caller:  caller,
				Address: address,
			})
		}))
	addressCmd.AddCommand(newCatalogPartsCommand(ctx))
	return addressCmd
}

func newAddressShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd.Context(), func(rt *runtime) error {
				queries := rt.facade.Queries()
				collection, err := queries.GetCollectionAddress.Query(cmd.Context(), lazymintquery.GetCollectionAddressMessage{})
				if err != nil {
					return err
				}
				catalog, err := queries.GetCatalogAddress.Query(cmd.Context(), lazymintquery.GetCatalogAddressMessage{})
				if err != nil {
					return err
				}
				cfg := rt.orchestrator.Config()
				view := addressView{
					OrchestratorID:    cfg.OrchestratorID,
					Generation:        string(cfg.Generation),
					CollectionAddress: collection.String(),
					CatalogAddress:    catalog.String(),
				}
				if owner := rt.orchestrator.Owner(); !owner.IsZero() {
					view.Owner = owner.String()
				}
				if jsonOutput {
					return writeJSON(cmd, view)
				}
				owner := view.Owner
				if owner == "" {
					owner = "-"
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderFields([][2]string{
					{"Orchestrator", view.OrchestratorID},
					{"Generation", view.Generation},
					{"Owner", owner},
					{"Collection", view.CollectionAddress},
					{"Catalog", view.CatalogAddress},
				}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

func newAddressSetCommand(
	ctx *commandContext,
	use string,
	short string,
	execute func(runCtx context.Context, commands lazymint.Commands, caller, address core.AccountID) error,
) *cobra.Command {
	var callerFlag string
	var addressFlag string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := core.ParseAccountID(callerFlag)
			if err != nil {
				return fmt.Errorf("invalid --caller: %w", err)
			}
			address, err := core.ParseAccountID(addressFlag)
			if err != nil {
				return fmt.Errorf("invalid --address: %w", err)
			}
			return ctx.withRuntime(cmd.Context(), func(rt *runtime) error {
				if err := execute(cmd.Context(), rt.facade.Commands(), caller, address); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", use, address)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&callerFlag, "caller", "", "Account requesting the change")
	cmd.Flags().StringVar(&addressFlag, "address", "", "New contract address")
	_ = cmd.MarkFlagRequired("caller")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func newCatalogPartsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog-parts",
		Short: "Read the part count of the configured catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd.Context(), func(rt *runtime) error {
				count, err := rt.orchestrator.CatalogPartsCount(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatUint(uint64(count), 10))
				return nil
			})
		},
	}
}
