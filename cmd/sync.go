package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thedoctorjtd/lemmy-migrate/internal/adapters/backup"
	"github.com/thedoctorjtd/lemmy-migrate/internal/adapters/render/report"
	"github.com/thedoctorjtd/lemmy-migrate/internal/application"
)

func newSyncCmd(app *app) *cobra.Command {
	var updateMain bool
	var fromPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Subscribe secondary accounts to the main account's communities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, app, updateMain, fromPath, asJSON)
		},
	}

	cmd.Flags().BoolVar(&updateMain, "update-main", false, "Pull each secondary account's subscriptions into the main account instead")
	cmd.Flags().StringVar(&fromPath, "from", "", "Sync from a backup file instead of the main account's live subscriptions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.MarkFlagsMutuallyExclusive("update-main", "from")

	return cmd
}

func runSync(cmd *cobra.Command, app *app, updateMain bool, fromPath string, asJSON bool) error {
	opts := application.RunOptions{UpdateMain: updateMain}
	if fromPath != "" {
		set, err := backup.Read(fromPath)
		if err != nil {
			return err
		}
		opts.Override = set
	}

	runner := app.newRunner()

	var result application.RunResult
	task := func(ctx context.Context) error {
		var err error
		result, err = runner.Run(ctx, opts)
		return err
	}

	if asJSON {
		if err := task(cmd.Context()); err != nil {
			return err
		}
	} else {
		if err := runTaskSpinner(cmd.Context(), cmd.ErrOrStderr(), "Syncing subscriptions...", task); err != nil {
			return err
		}
	}

	return writeRunResultOutput(cmd, result, updateMain, asJSON)
}

func writeRunResultOutput(cmd *cobra.Command, result application.RunResult, updateMain bool, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	rendered, err := report.Render(result, report.RenderOptions{UpdateMain: updateMain})
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
