package lemmy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
	"github.com/thedoctorjtd/lemmy-migrate/internal/ports"
)

const (
	defaultCommentDepth = 1
	defaultCommentLimit = 1000
)

type clientState int

const (
	stateUnauthenticated clientState = iota
	stateAuthenticated
	stateFailed
)

// Client talks to one instance on behalf of one account. It starts
// unauthenticated; Login either stores the session token exactly once or
// leaves the client terminally unusable. Not safe for concurrent use.
type Client struct {
	name    string
	site    domain.Site
	session *session
	logger  *slog.Logger

	state clientState
	token string
	known *domain.SubscriptionSet
}

var _ ports.AccountClient = (*Client)(nil)

// NewClient builds an unauthenticated client for one account. httpClient,
// sleeper, and logger may be nil, which picks the defaults.
func NewClient(name string, site domain.Site, httpClient *http.Client, sleeper ports.Sleeper, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		name:    name,
		site:    site,
		session: newSession(site, httpClient, sleeper),
		logger:  logger.With("account", name, "site", site.BaseURL()),
		known:   domain.NewSubscriptionSet(),
	}
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) Site() domain.Site {
	return c.site
}

// Login posts credentials and stores the returned token. Any failure (bad
// credentials, transport fault, response without a token) marks the client
// terminally unusable and returns a LoginError.
func (c *Client) Login(ctx context.Context, user, password string) error {
	switch c.state {
	case stateAuthenticated:
		return domain.ErrAlreadyLoggedIn
	case stateFailed:
		return domain.ErrClientUnusable
	}

	var decoded loginResponse
	_, err := c.session.postJSON(ctx, "user/login", loginRequest{UsernameOrEmail: user, Password: password}, &decoded)
	if err == nil && decoded.JWT == "" {
		err = errors.New("response carried no jwt")
	}
	if err != nil {
		c.state = stateFailed
		c.logger.Error("login failed", "user", user, "err", err)
		return &domain.LoginError{Account: c.name, Site: c.site.BaseURL(), Err: err}
	}

	c.token = decoded.JWT
	c.state = stateAuthenticated
	c.logger.Debug("login succeeded", "user", user)

	return nil
}

// Subscriptions fetches the full subscribed-community set, page by page.
// A page fetch failure is logged and treated as the end of the results, so
// the returned set can under-report on transient errors. Cancellation is
// the exception: it propagates.
func (c *Client) Subscriptions(ctx context.Context) (*domain.SubscriptionSet, error) {
	if err := c.requireAuth("list subscriptions"); err != nil {
		return nil, err
	}

	set := domain.NewSubscriptionSet()
	pager := newCommunityPager(c.session, c.token, listTypeSubscribed)
	for {
		views, err := pager.next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.Warn("community page failed, treating as end of results", "err", err)
			break
		}

		for _, view := range views {
			set.Add(domain.CommunityRef(view.Community.ActorID))
		}

		if pager.exhausted() {
			break
		}
	}

	c.logger.Debug("subscriptions fetched", "count", set.Len())

	return set, nil
}

// ResolveCommunity converts an actor address into this instance's numeric
// community id. Any failure, including an unknown community or a transport
// fault, is logged and reported as absent rather than as an error.
func (c *Client) ResolveCommunity(ctx context.Context, ref domain.CommunityRef) (domain.CommunityID, bool) {
	if err := c.requireAuth("resolve community"); err != nil {
		c.logger.Warn("resolve community skipped", "community", ref, "err", err)
		return 0, false
	}

	query := url.Values{}
	query.Set("q", string(ref))
	query.Set("auth", c.token)

	var decoded resolveObjectResponse
	if _, err := c.session.getJSON(ctx, "resolve_object", query, &decoded); err != nil {
		c.logger.Warn("resolve community failed", "community", ref, "err", err)
		return 0, false
	}
	if decoded.Community == nil || decoded.Community.Community.ID == 0 {
		c.logger.Warn("resolve community returned no match", "community", ref)
		return 0, false
	}

	return domain.CommunityID(decoded.Community.Community.ID), true
}

// Subscribe follows each community in refs, resolving the actor address
// first. Every ref is processed independently: a failed resolution or
// follow is logged and the rest of the batch continues. Only cancellation
// aborts the batch.
func (c *Client) Subscribe(ctx context.Context, refs []domain.CommunityRef) error {
	if err := c.requireAuth("subscribe"); err != nil {
		return err
	}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.subscribeOne(ctx, ref)
	}

	return nil
}

func (c *Client) subscribeOne(ctx context.Context, ref domain.CommunityRef) {
	id, ok := c.ResolveCommunity(ctx, ref)
	if !ok {
		return
	}

	c.logger.Info("subscribing", "community", ref, "community_id", int64(id))

	body := followRequest{CommunityID: int64(id), Follow: true, Auth: c.token}
	status, err := c.session.postJSON(ctx, "community/follow", body, nil)
	if err != nil {
		c.logger.Warn("follow failed", "community", ref, "err", err)
		return
	}
	if status != http.StatusOK {
		c.logger.Warn("follow not confirmed", "community", ref, "status", status)
		return
	}

	c.known.Add(ref)
	c.logger.Debug("subscribed", "community", ref, "community_id", int64(id))
}

// Comments fetches one page of comments for a post. Non-positive maxDepth
// and limit pick the defaults. Unlike the subscription paths this fails
// loudly: any fetch or decode problem comes back as an error, and callers
// treat that as "no comments available".
func (c *Client) Comments(ctx context.Context, postID domain.PostID, maxDepth, limit int) ([]domain.Comment, error) {
	if err := c.requireAuth("list comments"); err != nil {
		return nil, err
	}

	if maxDepth <= 0 {
		maxDepth = defaultCommentDepth
	}
	if limit <= 0 {
		limit = defaultCommentLimit
	}

	query := url.Values{}
	query.Set("post_id", strconv.FormatInt(int64(postID), 10))
	query.Set("max_depth", strconv.Itoa(maxDepth))
	query.Set("limit", strconv.Itoa(limit))

	var decoded commentListResponse
	if _, err := c.session.getJSON(ctx, "comment/list", query, &decoded); err != nil {
		return nil, fmt.Errorf("list comments for post %d: %w", postID, err)
	}

	comments := make([]domain.Comment, 0, len(decoded.Comments))
	for _, view := range decoded.Comments {
		comments = append(comments, domain.Comment{
			ID:        domain.CommentID(view.Comment.ID),
			Content:   view.Comment.Content,
			Creator:   view.Creator.Name,
			Published: parsePublished(view.Comment.Published),
		})
	}

	return comments, nil
}

func (c *Client) requireAuth(op string) error {
	switch c.state {
	case stateAuthenticated:
		return nil
	case stateFailed:
		return fmt.Errorf("%s: %w", op, domain.ErrClientUnusable)
	default:
		return fmt.Errorf("%s: %w", op, domain.ErrNotLoggedIn)
	}
}

// Instances report timestamps either with an offset or as bare naive
// datetimes, depending on version.
func parsePublished(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}

	return time.Time{}
}
