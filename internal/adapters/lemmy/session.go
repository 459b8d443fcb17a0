package lemmy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
	"github.com/thedoctorjtd/lemmy-migrate/internal/ports"
	"github.com/thedoctorjtd/lemmy-migrate/internal/version"
)

const (
	apiBase          = "api/v3"
	requestDelay     = time.Second
	maxResponseBytes = 1 << 20
)

// session issues JSON requests against one instance, pausing a fixed
// interval before every outbound call. Instances rate-limit aggressively;
// the pause is a blunt limiter, not an adaptive one. The session knows
// nothing about authentication state; the client puts the token on each
// request that needs it.
type session struct {
	site       domain.Site
	httpClient *http.Client
	sleeper    ports.Sleeper
	delay      time.Duration
}

func newSession(site domain.Site, httpClient *http.Client, sleeper ports.Sleeper) *session {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if sleeper == nil {
		sleeper = ports.SystemSleeper{}
	}

	return &session{
		site:       site,
		httpClient: httpClient,
		sleeper:    sleeper,
		delay:      requestDelay,
	}
}

func (s *session) endpointURL(endpoint string) string {
	return s.site.BaseURL() + "/" + apiBase + "/" + endpoint
}

// getJSON issues a GET and decodes the 2xx response body into out. The
// returned int is the HTTP status code; it is zero when no response was
// received.
func (s *session) getJSON(ctx context.Context, endpoint string, query url.Values, out any) (int, error) {
	if err := s.sleeper.Sleep(ctx, s.delay); err != nil {
		return 0, err
	}

	target := s.endpointURL(endpoint)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	return s.do(request, endpoint, out)
}

func (s *session) postJSON(ctx context.Context, endpoint string, body any, out any) (int, error) {
	if err := s.sleeper.Sleep(ctx, s.delay); err != nil {
		return 0, err
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode request body: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpointURL(endpoint), bytes.NewReader(encoded))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	return s.do(request, endpoint, out)
}

func (s *session) do(request *http.Request, endpoint string, out any) (int, error) {
	request.Header.Set("User-Agent", "lemmy-migrate/"+version.Version)

	response, err := s.httpClient.Do(request)
	if err != nil {
		return 0, &domain.RequestError{Endpoint: endpoint, Err: err}
	}
	defer response.Body.Close()

	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return response.StatusCode, &domain.RequestError{Endpoint: endpoint, Err: err}
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return response.StatusCode, &domain.StatusError{Endpoint: endpoint, StatusCode: response.StatusCode}
	}

	if out == nil {
		return response.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return response.StatusCode, fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	return response.StatusCode, nil
}
