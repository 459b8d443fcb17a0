package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Site identifies one platform instance by its base URL. NewSite normalizes
// the raw input down to scheme and host, with the scheme forced to https;
// the value is immutable afterwards.
type Site struct {
	base string
}

func NewSite(raw string) (Site, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Site{}, errors.New("site url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return Site{}, fmt.Errorf("parse site url %q: %w", raw, err)
	}
	if parsed.Host == "" {
		return Site{}, fmt.Errorf("site url %q has no host", raw)
	}

	return Site{base: "https://" + parsed.Host}, nil
}

// BaseURL returns the normalized https://host form.
func (s Site) BaseURL() string {
	return s.base
}

func (s Site) Host() string {
	return strings.TrimPrefix(s.base, "https://")
}

func (s Site) IsZero() bool {
	return s.base == ""
}

func (s Site) String() string {
	return s.base
}
