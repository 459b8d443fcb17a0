package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
	"github.com/thedoctorjtd/lemmy-migrate/internal/ports"
)

// ClientFactory builds the platform client for one account. The CLI wires
// the lemmy adapter; tests wire fakes.
type ClientFactory func(name string, site domain.Site) ports.AccountClient

// Runner drives a whole invocation: it loads accounts, resolves their
// credentials, logs clients in, and hands account pairs to the engine.
// The main account is load-bearing (a failure there aborts the run);
// secondaries fail soft and are reported as skipped.
type Runner struct {
	accounts  ports.AccountRepository
	secrets   ports.SecretStore
	engine    *Engine
	newClient ClientFactory
	logger    *slog.Logger
}

func NewRunner(accounts ports.AccountRepository, secrets ports.SecretStore, newClient ClientFactory, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		accounts:  accounts,
		secrets:   secrets,
		engine:    NewEngine(logger),
		newClient: newClient,
		logger:    logger,
	}
}

// Run syncs every secondary account against the main one. Normal mode
// pushes the main set (fetched once, or opts.Override) into each
// secondary; update-main mode pulls each secondary's live set into the
// main account.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	if opts.UpdateMain && opts.Override != nil {
		return RunResult{}, errors.New("update-main cannot run from an imported source set")
	}

	main, err := r.accounts.Main(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("load main account: %w", err)
	}
	secondaries, err := r.accounts.Secondaries(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("load secondary accounts: %w", err)
	}

	mainClient, err := r.login(ctx, main)
	if err != nil {
		return RunResult{}, err
	}

	sourceSet := opts.Override
	if !opts.UpdateMain && sourceSet == nil {
		sourceSet, err = mainClient.Subscriptions(ctx)
		if err != nil {
			return RunResult{}, fmt.Errorf("fetch main subscriptions: %w", err)
		}
	}

	result := RunResult{}
	for _, secondary := range secondaries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		source, destination := main.Name, secondary.Name
		if opts.UpdateMain {
			source, destination = secondary.Name, main.Name
		}

		client, err := r.login(ctx, secondary)
		if err != nil {
			r.logger.Warn("skipping account",
				"account", secondary.Name,
				"site", secondary.Site.BaseURL(),
				"err", err)
			result.Pairs = append(result.Pairs, PairResult{
				Source:      source,
				Destination: destination,
				Err:         err,
				Skipped:     true,
			})
			continue
		}

		var report Report
		var syncErr error
		if opts.UpdateMain {
			report, syncErr = r.engine.Sync(ctx, client, mainClient, nil)
		} else {
			report, syncErr = r.engine.Sync(ctx, nil, client, sourceSet)
		}

		result.Pairs = append(result.Pairs, PairResult{
			Source:      source,
			Destination: destination,
			Report:      report,
			Err:         syncErr,
		})

		if syncErr != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			r.logger.Warn("sync pair failed",
				"source", source,
				"destination", destination,
				"err", syncErr)
		}
	}

	return result, nil
}

// Export logs into the main account and returns its site together with
// its full live subscription set. Secondaries are not contacted.
func (r *Runner) Export(ctx context.Context) (domain.Site, *domain.SubscriptionSet, error) {
	main, err := r.accounts.Main(ctx)
	if err != nil {
		return domain.Site{}, nil, fmt.Errorf("load main account: %w", err)
	}

	client, err := r.login(ctx, main)
	if err != nil {
		return domain.Site{}, nil, err
	}

	set, err := client.Subscriptions(ctx)
	if err != nil {
		return domain.Site{}, nil, fmt.Errorf("fetch main subscriptions: %w", err)
	}

	return main.Site, set, nil
}

// Comments lists comments on one post through the named account's site.
// An empty name selects the main account.
func (r *Runner) Comments(ctx context.Context, accountName string, postID domain.PostID, maxDepth, limit int) ([]domain.Comment, error) {
	account, err := r.selectAccount(ctx, accountName)
	if err != nil {
		return nil, err
	}

	client, err := r.login(ctx, account)
	if err != nil {
		return nil, err
	}

	return client.Comments(ctx, postID, maxDepth, limit)
}

func (r *Runner) login(ctx context.Context, account domain.Account) (ports.AccountClient, error) {
	password, err := r.resolvePassword(ctx, account)
	if err != nil {
		return nil, err
	}

	client := r.newClient(account.Name, account.Site)
	if err := client.Login(ctx, account.User, password); err != nil {
		return nil, err
	}

	return client, nil
}

// resolvePassword prefers the literal password from the accounts file and
// falls back to the secret store.
func (r *Runner) resolvePassword(ctx context.Context, account domain.Account) (string, error) {
	if strings.TrimSpace(account.Password) != "" {
		return account.Password, nil
	}
	if !account.HasCredentials() {
		return "", fmt.Errorf("account %q: %w", account.Name, domain.ErrMissingCredentials)
	}

	secret, err := r.secrets.Get(ctx, account.SecretRef)
	if err != nil {
		return "", fmt.Errorf("resolve secret for account %q: %w", account.Name, err)
	}
	if strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("account %q: secret %q is empty", account.Name, account.SecretRef)
	}

	return secret, nil
}

func (r *Runner) selectAccount(ctx context.Context, name string) (domain.Account, error) {
	if strings.TrimSpace(name) == "" {
		account, err := r.accounts.Main(ctx)
		if err != nil {
			return domain.Account{}, fmt.Errorf("load main account: %w", err)
		}
		return account, nil
	}

	accounts, err := r.accounts.List(ctx)
	if err != nil {
		return domain.Account{}, fmt.Errorf("list accounts: %w", err)
	}
	for _, account := range accounts {
		if account.Name == name {
			return account, nil
		}
	}

	return domain.Account{}, fmt.Errorf("account %q: %w", name, domain.ErrAccountNotFound)
}
