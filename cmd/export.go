package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thedoctorjtd/lemmy-migrate/internal/adapters/backup"
	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
)

func newExportCmd(app *app) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save the main account's subscriptions to a backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner := app.newRunner()

			var site domain.Site
			var set *domain.SubscriptionSet
			task := func(ctx context.Context) error {
				var err error
				site, set, err = runner.Export(ctx)
				return err
			}

			if err := runTaskSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching subscriptions...", task); err != nil {
				return err
			}

			if err := backup.Write(outputPath, site, set); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved %d subscriptions from %s to %s\n", set.Len(), site.BaseURL(), outputPath)
			return err
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Backup file to write")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
