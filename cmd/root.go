package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	tomlrepo "github.com/thedoctorjtd/lemmy-migrate/internal/adapters/repo/toml"
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, wireErr := wireApp()
	defer func() {
		if app != nil && app.closeLog != nil {
			app.closeLog()
		}
	}()

	return newRootCmd(app, wireErr).ExecuteContext(ctx)
}

func newRootCmd(app *app, wireErr error) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lemmy-migrate",
		Short:         "Keep community subscriptions in sync across accounts",
		Long:          "lemmy-migrate mirrors the community subscriptions of a main account onto any number of secondary accounts, and can export or import subscription lists as JSON backups.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	if wireErr != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return wireErr
		}
		return rootCmd
	}

	var configPath string
	var logLevel string
	var logFile string
	var noColor bool

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Accounts file (default: ~/.config/lemmy-migrate/accounts.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append JSON logs to this file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		logger, closeLog, err := newRunLogger(cmd.ErrOrStderr(), logLevel, logFile, noColor)
		if err != nil {
			return err
		}
		app.logger = logger
		app.closeLog = closeLog

		if configPath != "" {
			repo, err := tomlrepo.NewRepositoryAt(configPath)
			if err != nil {
				return fmt.Errorf("open accounts file: %w", err)
			}
			app.repo = repo
		}

		return nil
	}

	rootCmd.AddCommand(
		newSyncCmd(app),
		newExportCmd(app),
		newAccountsCmd(app),
		newCommentsCmd(app),
		newSecretsCmd(app),
		newVersionCmd(),
	)

	return rootCmd
}
