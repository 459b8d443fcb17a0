package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
)

func newAccountsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List configured accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := app.repo.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(accounts) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No accounts configured. Run `lemmy-migrate accounts init` to scaffold one.")
				return err
			}

			for _, account := range accounts {
				marker := ""
				if account.Main {
					marker = "\t(main)"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s@%s%s\n", account.Name, account.User, account.Site.Host(), marker)
			}

			return nil
		},
	}

	cmd.AddCommand(newAccountsInitCmd(app))

	return cmd
}

func newAccountsInitCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter accounts file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			existing, err := app.repo.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return fmt.Errorf("%s already has %d account(s), refusing to overwrite", app.repo.AccountsPath(), len(existing))
			}

			site, err := domain.NewSite("https://lemmy.ml")
			if err != nil {
				return err
			}

			starter := domain.Account{
				Name:      "main",
				Site:      site,
				User:      "your-username",
				SecretRef: "lemmy-migrate/main",
				Main:      true,
			}
			if err := app.repo.Save(cmd.Context(), starter); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"Wrote a starter account to %s\nEdit the site and user, then store the password with: lemmy-migrate secrets set --ref %s --value <password>\n",
				app.repo.AccountsPath(), starter.SecretRef)
			return err
		},
	}
}
