package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
	"github.com/thedoctorjtd/lemmy-migrate/internal/ports"
)

const (
	configName         = "config"
	configType         = "toml"
	accountsPathKey    = "accounts.path"
	accountsFileMode   = 0o600
	accountsDirMode    = 0o700
	accountsConfigDir  = ".config/lemmy-migrate"
	accountsConfigFile = "accounts.toml"
	tempFilePattern    = ".accounts-*.toml.tmp"
)

type Repository struct {
	accountsPath string
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.AccountRepository = (*Repository)(nil)

// NewRepository resolves the accounts file through the optional config.toml
// in the config directory, falling back to the default location under the
// user's home directory.
func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, accountsConfigDir, accountsConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, accountsConfigDir))
	cfg.SetDefault(accountsPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return NewRepositoryAt(cfg.GetString(accountsPathKey))
}

// NewRepositoryAt points the repository at an explicit accounts file,
// bypassing config discovery.
func NewRepositoryAt(path string) (*Repository, error) {
	if path == "" {
		return nil, errors.New("accounts path is empty")
	}
	path, err := normalizeAccountsPath(path)
	if err != nil {
		return nil, err
	}

	return &Repository{accountsPath: path, mu: lockForPath(path)}, nil
}

// AccountsPath reports the resolved location of the accounts file.
func (r *Repository) AccountsPath() string {
	return r.accountsPath
}

func (r *Repository) List(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.loadAccounts()
}

func (r *Repository) Main(ctx context.Context) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts, err := r.loadAccounts()
	if err != nil {
		return domain.Account{}, err
	}
	if len(accounts) == 0 {
		return domain.Account{}, fmt.Errorf("no accounts configured in %s", r.accountsPath)
	}

	for _, account := range accounts {
		if account.Main {
			return account, nil
		}
	}

	return domain.Account{}, domain.ErrNoMainAccount
}

func (r *Repository) Secondaries(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts, err := r.loadAccounts()
	if err != nil {
		return nil, err
	}

	secondaries := make([]domain.Account, 0, len(accounts))
	for _, account := range accounts {
		if !account.Main {
			secondaries = append(secondaries, account)
		}
	}

	return secondaries, nil
}

func (r *Repository) Save(ctx context.Context, account domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := account.Validate(); err != nil {
		return fmt.Errorf("account %q: %w", account.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	encoded := toSchema(account)
	updated := false
	for i := range file.Accounts {
		if file.Accounts[i].Name == encoded.Name {
			file.Accounts[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Accounts = append(file.Accounts, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.writeSchema(file); err != nil {
		return err
	}

	return nil
}

// loadAccounts decodes the file and enforces the cross-account rules:
// names are unique and at most one account is marked main. Callers hold
// at least a read lock.
func (r *Repository) loadAccounts() ([]domain.Account, error) {
	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}
	file.applyDefaults()

	accounts := make([]domain.Account, 0, len(file.Accounts))
	seen := make(map[string]struct{}, len(file.Accounts))
	mainName := ""
	for _, entry := range file.Accounts {
		account, err := fromSchema(entry)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[account.Name]; ok {
			return nil, fmt.Errorf("duplicate account name %q in %s", account.Name, r.accountsPath)
		}
		seen[account.Name] = struct{}{}
		if account.Main {
			if mainName != "" {
				return nil, fmt.Errorf("accounts %q and %q are both marked main", mainName, account.Name)
			}
			mainName = account.Name
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.accountsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read accounts file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode accounts file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeAccountsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve accounts path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.accountsPath), accountsDirMode); err != nil {
		return fmt.Errorf("create accounts directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode accounts file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.accountsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp accounts file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp accounts file: %w", err)
	}

	if err := tempFile.Chmod(accountsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp accounts file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp accounts file: %w", err)
	}

	if err := os.Rename(tempName, r.accountsPath); err != nil {
		return fmt.Errorf("replace accounts file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.accountsPath, accountsFileMode); err != nil {
		return fmt.Errorf("chmod accounts file: %w", err)
	}

	return nil
}

func toSchema(account domain.Account) accountSchema {
	return accountSchema{
		Name:      account.Name,
		Site:      account.Site.BaseURL(),
		User:      account.User,
		Password:  account.Password,
		SecretRef: account.SecretRef,
		Main:      account.Main,
	}
}

func fromSchema(entry accountSchema) (domain.Account, error) {
	site, err := domain.NewSite(entry.Site)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account %q: %w", entry.Name, err)
	}

	account := domain.Account{
		Name:      entry.Name,
		Site:      site,
		User:      entry.User,
		Password:  entry.Password,
		SecretRef: entry.SecretRef,
		Main:      entry.Main,
	}
	if err := account.Validate(); err != nil {
		return domain.Account{}, fmt.Errorf("account %q: %w", entry.Name, err)
	}

	return account, nil
}
