package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
)

const (
	backupFileMode  = 0o600
	tempFilePattern = ".subscriptions-*.json.tmp"
)

// fileSchema is the on-disk shape: site URL to the actor addresses
// subscribed there.
type fileSchema map[string][]string

// Write saves one site's subscription set, replacing the target file
// atomically. Members are sorted so repeated exports diff cleanly.
func Write(path string, site domain.Site, set *domain.SubscriptionSet) error {
	refs := set.Refs()
	encoded := make([]string, 0, len(refs))
	for _, ref := range refs {
		encoded = append(encoded, string(ref))
	}
	sort.Strings(encoded)

	data, err := json.MarshalIndent(fileSchema{site.BaseURL(): encoded}, "", "    ")
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp backup file: %w", err)
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
		return fmt.Errorf("write temp backup file: %w", err)
	}

	if err := tempFile.Chmod(backupFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp backup file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp backup file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace backup file: %w", err)
	}

	cleanup = false

	return nil
}

// Read loads a backup and unions every site's list into one set.
func Read(path string) (*domain.SubscriptionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup file: %w", err)
	}

	var decoded fileSchema
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode backup file: %w", err)
	}

	set := domain.NewSubscriptionSet()
	for _, refs := range decoded {
		for _, ref := range refs {
			set.Add(domain.CommunityRef(ref))
		}
	}

	return set, nil
}
