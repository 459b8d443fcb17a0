package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrAlreadyLoggedIn    = errors.New("already logged in")
	ErrClientUnusable     = errors.New("client unusable after failed login")
	ErrAccountNotFound    = errors.New("account not found")
	ErrNoMainAccount      = errors.New("no account is marked main")
	ErrSecretNotFound     = errors.New("secret not found")
	ErrMissingCredentials = errors.New("account has neither password nor secret_ref")
)

// RequestError reports a transport-level failure (DNS, refused connection,
// timeout) while reaching an endpoint.
type RequestError struct {
	Endpoint string
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %s: %v", e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx response from an endpoint.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
}

// LoginError reports an authentication failure for one account. It is
// fatal for that account: the client refuses all further calls once it has
// returned one.
type LoginError struct {
	Account string
	Site    string
	Err     error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login %s@%s: %v", e.Account, e.Site, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}
