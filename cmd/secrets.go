package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSecretsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage stored account passwords",
	}

	cmd.AddCommand(
		newSecretsSetCmd(app),
		newSecretsRmCmd(app),
	)

	return cmd
}

func newSecretsSetCmd(app *app) *cobra.Command {
	var ref string
	var value string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a password under a secret reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.secretStore.Put(cmd.Context(), ref, value); err != nil {
				return fmt.Errorf("store secret %q: %w", ref, err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Stored secret %q\n", ref)
			return err
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "Secret reference, as used by secret_ref in the accounts file")
	cmd.Flags().StringVar(&value, "value", "", "Password to store")
	_ = cmd.MarkFlagRequired("ref")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func newSecretsRmCmd(app *app) *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Remove a stored secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.secretStore.Delete(cmd.Context(), ref); err != nil {
				return fmt.Errorf("remove secret %q: %w", ref, err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed secret %q\n", ref)
			return err
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "Secret reference to remove")
	_ = cmd.MarkFlagRequired("ref")

	return cmd
}
