package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported accounts schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	Name      string `toml:"name"`
	Site      string `toml:"site"`
	User      string `toml:"user"`
	Password  string `toml:"password,omitempty"`
	SecretRef string `toml:"secret_ref,omitempty"`
	Main      bool   `toml:"main,omitempty"`
}
