package lemmy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thedoctorjtd/lemmy-migrate/internal/domain"
)

type recordingSleeper struct {
	calls int
}

func (s *recordingSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	s.calls++
	return ctx.Err()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(t *testing.T, server *httptest.Server) (*Client, *recordingSleeper) {
	t.Helper()

	site, err := domain.NewSite(server.URL)
	require.NoError(t, err)

	sleeper := &recordingSleeper{}
	return NewClient("test", site, server.Client(), sleeper, testLogger()), sleeper
}

func loginHandler(t *testing.T, jwt string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Helper()
		assert.Equal(t, http.MethodPost, r.Method)

		var request loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.NotEmpty(t, request.UsernameOrEmail)

		_ = json.NewEncoder(w).Encode(loginResponse{JWT: jwt})
	}
}

func communityPage(prefix string, start, count int) communityListResponse {
	var page communityListResponse
	for i := 0; i < count; i++ {
		var view communityView
		view.Community.ID = int64(start + i)
		view.Community.ActorID = fmt.Sprintf("https://%s/c/community-%d", prefix, start+i)
		page.Communities = append(page.Communities, view)
	}

	return page
}

func TestLoginStoresTokenOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/user/login", loginHandler(t, "jwt-token-1"))
	mux.HandleFunc("/api/v3/community/list", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "jwt-token-1", r.URL.Query().Get("auth"))
		assert.Equal(t, "Subscribed", r.URL.Query().Get("type_"))
		_ = json.NewEncoder(w).Encode(communityListResponse{})
	})
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	client, _ := testClient(t, server)
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))

	_, err := client.Subscriptions(context.Background())
	require.NoError(t, err)

	err = client.Login(context.Background(), "alice", "secret")
	assert.ErrorIs(t, err, domain.ErrAlreadyLoggedIn)
}

func TestLoginFailureMarksClientUnusable(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := testClient(t, server)

	err := client.Login(context.Background(), "alice", "wrong")
	var loginErr *domain.LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.Equal(t, "test", loginErr.Account)

	var statusErr *domain.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)

	_, err = client.Subscriptions(context.Background())
	assert.ErrorIs(t, err, domain.ErrClientUnusable)

	err = client.Subscribe(context.Background(), []domain.CommunityRef{"https://a/c/x"})
	assert.ErrorIs(t, err, domain.ErrClientUnusable)

	err = client.Login(context.Background(), "alice", "right-this-time")
	assert.ErrorIs(t, err, domain.ErrClientUnusable)
}

func TestLoginRejectsResponseWithoutToken(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(loginResponse{})
	}))
	defer server.Close()

	client, _ := testClient(t, server)

	err := client.Login(context.Background(), "alice", "secret")
	var loginErr *domain.LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.Contains(t, err.Error(), "no jwt")
}

func TestLoginTransportFailure(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	httpClient := server.Client()
	server.Close()

	site, err := domain.NewSite(server.URL)
	require.NoError(t, err)
	client := NewClient("test", site, httpClient, &recordingSleeper{}, testLogger())

	err = client.Login(context.Background(), "alice", "secret")
	var requestErr *domain.RequestError
	require.ErrorAs(t, err, &requestErr)
	assert.Equal(t, "user/login", requestErr.Endpoint)
}

func TestOperationsRequireLogin(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected before login")
	}))
	defer server.Close()

	client, _ := testClient(t, server)

	_, err := client.Subscriptions(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)

	err = client.Subscribe(context.Background(), []domain.CommunityRef{"https://a/c/x"})
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)

	_, err = client.Comments(context.Background(), 1, 0, 0)
	assert.ErrorIs(t, err, domain.ErrNotLoggedIn)

	_, ok := client.ResolveCommunity(context.Background(), "https://a/c/x")
	assert.False(t, ok)
}

func TestSubscriptionsPaginatesUntilShortPage(t *testing.T) {
	fetches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("/api/v3/community/list", func(w http.ResponseWriter, r *http.Request) {
		fetches++
		assert.Equal(t, "50", r.URL.Query().Get("limit"))

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		require.NoError(t, err)
		switch page {
		case 1:
			_ = json.NewEncoder(w).Encode(communityPage("lemmy.ml", 0, 50))
		case 2:
			_ = json.NewEncoder(w).Encode(communityPage("lemmy.ml", 50, 50))
		case 3:
			_ = json.NewEncoder(w).Encode(communityPage("lemmy.ml", 100, 30))
		default:
			t.Errorf("unexpected page %d", page)
		}
	})
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	client, _ := testClient(t, server)
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))

	set, err := client.Subscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 130, set.Len())
	assert.Equal(t, 3, fetches)
}

func TestSubscriptionsEmptyFirstPage(t *testing.T) {
	fetches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("/api/v3/community/list", func(w http.ResponseWriter, r *http.Request) {
		fetches++
		_ = json.NewEncoder(w).Encode(communityListResponse{})
	})
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	client, _ := testClient(t, server)
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))

	set, err := client.Subscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, 1, fetches)
}

func TestSubscriptionsPageFailureTruncatesResults(t *testing.T) {
	fetches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("/api/v3/community/list", func(w http.ResponseWriter, r *http.Request) {
		fetches++
		if fetches == 1 {
			_ = json.NewEncoder(w).Encode(communityPage("lemmy.ml", 0, 50))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	client, _ := testClient(t, server)
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))

	set, err := client.Subscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, set.Len())
	assert.Equal(t, 2, fetches)
}

func TestSubscriptionsDeduplicates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("/api/v3/community/list", func(w http.ResponseWriter, r *http.Request) {
		page := communityPage("lemmy.ml", 0, 2)
		page.Communities = append(page.Communities, page.Communities[0])
		_ = json.NewEncoder(w).Encode(page)
	})
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	client, _ := testClient(t, server)
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))

	set, err := client.Subscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}

func TestResolveCommunity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("/api/v3/resolve_object", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("auth"))

		switch r.URL.Query().Get("q") {
		case "https://lemmy.ml/c/golang":
			var response resolveObjectResponse
			response.Community = &communityView{}
			response.Community.Community.ID = 42
			response.Community.Community.ActorID = "https://lemmy.ml/c/golang"
			_ = json.NewEncoder(w).Encode(response)
		case "https://lemmy.ml/c/empty":
			_ = json.NewEncoder(w).Encode(resolveObjectResponse{})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	client, _ := testClient(t, server)
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))

	id, ok := client.ResolveCommunity(context.Background(), "https://lemmy.ml/c/golang")
	require.True(t, ok)
	assert.Equal(t, domain.CommunityID(42), id)

	_, ok = client.ResolveCommunity(context.Background(), "https://lemmy.ml/c/empty")
	assert.False(t, ok)

	_, ok = client.ResolveCommunity(context.Background(), "https://lemmy.ml/c/missing")
	assert.False(t, ok)
}

func TestSubscribeIsolatesResolutionFailures(t *testing.T) {
	var follows []int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("/api/v3/resolve_object", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "https://a/c/one":
			var response resolveObjectResponse
			response.Community = &communityView{}
			response.Community.Community.ID = 1
			_ = json.NewEncoder(w).Encode(response)
		case "https://a/c/three":
			var response resolveObjectResponse
			response.Community = &communityView{}
			response.Community.Community.ID = 3
			_ = json.NewEncoder(w).Encode(response)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/api/v3/community/follow", func(w http.ResponseWriter, r *http.Request) {
		var request followRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.True(t, request.Follow)
		assert.Equal(t, "tok", request.Auth)

		follows = append(follows, request.CommunityID)
		_, _ = w.Write([]byte("{}"))
	})
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	client, _ := testClient(t, server)
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))

	refs := []domain.CommunityRef{"https://a/c/one", "https://a/c/two", "https://a/c/three"}
	require.NoError(t, client.Subscribe(context.Background(), refs))

	assert.Equal(t, []int64{1, 3}, follows)
	assert.True(t, client.known.Contains("https://a/c/one"))
	assert.False(t, client.known.Contains("https://a/c/two"))
	assert.True(t, client.known.Contains("https://a/c/three"))
}

func TestSubscribeRecordsOnlyConfirmedFollows(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("/api/v3/resolve_object", func(w http.ResponseWriter, r *http.Request) {
		var response resolveObjectResponse
		response.Community = &communityView{}
		if r.URL.Query().Get("q") == "https://a/c/good" {
			response.Community.Community.ID = 1
		} else {
			response.Community.Community.ID = 2
		}
		_ = json.NewEncoder(w).Encode(response)
	})
	mux.HandleFunc("/api/v3/community/follow", func(w http.ResponseWriter, r *http.Request) {
		var request followRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		if request.CommunityID == 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("{}"))
	})
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	client, _ := testClient(t, server)
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))

	refs := []domain.CommunityRef{"https://a/c/good", "https://a/c/flaky"}
	require.NoError(t, client.Subscribe(context.Background(), refs))

	assert.True(t, client.known.Contains("https://a/c/good"))
	assert.False(t, client.known.Contains("https://a/c/flaky"))
}

func TestSubscribeStopsOnCancellation(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/user/login" {
			loginHandler(t, "tok")(w, r)
			return
		}
		t.Errorf("unexpected request %s after cancellation", r.URL.Path)
	}))
	defer server.Close()

	client, _ := testClient(t, server)
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Subscribe(ctx, []domain.CommunityRef{"https://a/c/x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionDelaysBeforeEveryCall(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("/api/v3/community/list", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(communityListResponse{})
	})
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	client, sleeper := testClient(t, server)
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))

	_, err := client.Subscriptions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sleeper.calls)
}

func TestCommentsFetchesOnePage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("/api/v3/comment/list", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "17", r.URL.Query().Get("post_id"))
		assert.Equal(t, "1", r.URL.Query().Get("max_depth"))
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))

		var response commentListResponse
		var view commentView
		view.Comment.ID = 5
		view.Comment.Content = "nice post"
		view.Comment.Published = "2023-06-15T10:00:00.000000"
		view.Creator.Name = "bob"
		response.Comments = append(response.Comments, view)
		_ = json.NewEncoder(w).Encode(response)
	})
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	client, _ := testClient(t, server)
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))

	comments, err := client.Comments(context.Background(), 17, 0, 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, domain.CommentID(5), comments[0].ID)
	assert.Equal(t, "nice post", comments[0].Content)
	assert.Equal(t, "bob", comments[0].Creator)
	assert.Equal(t, 2023, comments[0].Published.Year())
}

func TestCommentsFailsLoudly(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/user/login", loginHandler(t, "tok"))
	mux.HandleFunc("/api/v3/comment/list", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	client, _ := testClient(t, server)
	require.NoError(t, client.Login(context.Background(), "alice", "secret"))

	comments, err := client.Comments(context.Background(), 17, 0, 0)
	require.Error(t, err)
	assert.Nil(t, comments)

	var statusErr *domain.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestParsePublished(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "rfc3339", raw: "2023-06-15T10:00:00Z", want: 2023},
		{name: "naive with fraction", raw: "2021-01-02T03:04:05.000000", want: 2021},
		{name: "garbage", raw: "yesterday", want: 1},
		{name: "empty", raw: "", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePublished(tt.raw).Year())
		})
	}
}
