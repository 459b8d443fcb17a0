package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"github.com/thedoctorjtd/lemmy-migrate/internal/adapters/lemmy"
	tomlrepo "github.com/thedoctorjtd/lemmy-migrate/internal/adapters/repo/toml"
	chainstore "github.com/thedoctorjtd/lemmy-migrate/internal/adapters/secrets/chain"
	filestore "github.com/thedoctorjtd/lemmy-migrate/internal/adapters/secrets/file"
	"github.com/thedoctorjtd/lemmy-migrate/internal/application"
	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
	"github.com/thedoctorjtd/lemmy-migrate/internal/ports"
)

type app struct {
	repo        *tomlrepo.Repository
	secretStore ports.SecretStore
	httpClient  *http.Client
	sleeper     ports.Sleeper
	logger      *slog.Logger
	closeLog    func()
	now         func() time.Time
}

func wireApp() (*app, error) {
	repo, err := tomlrepo.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire account repository: %w", err)
	}

	secretsRoot, err := filestore.DefaultRoot()
	if err != nil {
		return nil, fmt.Errorf("resolve secret store root: %w", err)
	}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(secretsRoot)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	return &app{
		repo:        repo,
		secretStore: secretStore,
		httpClient:  http.DefaultClient,
		sleeper:     ports.SystemSleeper{},
		logger:      slog.Default(),
		closeLog:    func() {},
		now:         time.Now,
	}, nil
}

// newRunner assembles the orchestrator from the app's current parts. Built
// per invocation so the persistent flags (--config, logging) applied in
// PersistentPreRunE are in effect.
func (a *app) newRunner() *application.Runner {
	factory := func(name string, site domain.Site) ports.AccountClient {
		return lemmy.NewClient(name, site, a.httpClient, a.sleeper, a.logger)
	}

	return application.NewRunner(a.repo, a.secretStore, factory, a.logger)
}
