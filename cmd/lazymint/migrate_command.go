package main

import (
	"fmt"

	sqlstore "github.com/goliatone/go-lazymint/store/sql"
	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dbConfig := cfg.databaseConfig()
			dbConfig.SkipMigrations = false
			client, err := sqlstore.Open(cmd.Context(), dbConfig)
			if err != nil {
				return err
			}
			if err := client.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", dbConfig.GetDriver())
			return nil
		},
	}
}
