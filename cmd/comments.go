package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
)

func newCommentsCmd(app *app) *cobra.Command {
	var postID int64
	var accountName string
	var maxDepth int
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "comments",
		Short: "List comments on a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner := app.newRunner()

			var comments []domain.Comment
			task := func(ctx context.Context) error {
				var err error
				comments, err = runner.Comments(ctx, accountName, domain.PostID(postID), maxDepth, limit)
				return err
			}

			if asJSON {
				if err := task(cmd.Context()); err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(comments)
			}

			if err := runTaskSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching comments...", task); err != nil {
				return err
			}

			return writeCommentsOutput(cmd, app, comments)
		},
	}

	cmd.Flags().Int64Var(&postID, "post", 0, "Post ID on the account's site")
	cmd.Flags().StringVar(&accountName, "account", "", "Configured account to query through (default: the main account)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum reply depth (default 1)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of comments (default 1000)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("post")

	return cmd
}

func writeCommentsOutput(cmd *cobra.Command, app *app, comments []domain.Comment) error {
	if len(comments) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No comments.")
		return err
	}

	now := app.now()
	for _, comment := range comments {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s, %s\n%s\n\n",
			comment.ID, comment.Creator, formatAge(now, comment.Published), indentBody(comment.Content))
		if err != nil {
			return err
		}
	}

	return nil
}

func formatAge(now, published time.Time) string {
	if published.IsZero() {
		return "unknown age"
	}

	age := now.Sub(published)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}

func indentBody(content string) string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
