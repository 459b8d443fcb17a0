package domain

import (
	"fmt"
	"strings"
)

// Account is one configured platform login. Password and SecretRef are
// alternatives: a literal password wins when both are set, otherwise the
// secret store is consulted with SecretRef. Exactly one configured account
// carries Main.
type Account struct {
	Name      string
	Site      Site
	User      string
	Password  string
	SecretRef string
	Main      bool
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if a.Site.IsZero() {
		return fmt.Errorf("site is required")
	}
	if strings.TrimSpace(a.User) == "" {
		return fmt.Errorf("user is required")
	}

	return nil
}

// HasCredentials reports whether the account can produce a password at all.
func (a Account) HasCredentials() bool {
	return strings.TrimSpace(a.Password) != "" || strings.TrimSpace(a.SecretRef) != ""
}
