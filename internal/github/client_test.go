// internal/github/client_test.go
package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awesome-hub/internal/model"
)

// setupTestClient creates a httptest server and a client pointing to it.
func setupTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient("", logger)

	// Point the underlying go-github client at the test server.
	gh := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = baseURL
	client.gh = gh

	return client, server
}

func TestBuildSearchQuery(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("default query", func(t *testing.T) {
		q := buildSearchQuery(model.SearchFilters{}, now)
		assert.Equal(t, "awesome in:name OR awesome in:description", q)
	})

	t.Run("all qualifiers", func(t *testing.T) {
		q := buildSearchQuery(model.SearchFilters{
			Query:    "react",
			Language: "javascript",
			Topic:    "frontend",
			MinStars: 100,
			MinForks: 10,
		}, now)
		assert.Equal(t,
			"react in:name OR react in:description language:javascript topic:frontend stars:>=100 forks:>=10", q)
	})

	t.Run("date range", func(t *testing.T) {
		q := buildSearchQuery(model.SearchFilters{Query: "go", DateRange: "week"}, now)
		assert.Contains(t, q, "pushed:>2024-06-08")
	})
}

func TestClient_SearchRepositories(t *testing.T) {
	t.Run("normalizes provider results", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search/repositories", r.URL.Path)
			assert.Contains(t, r.URL.Query().Get("q"), "react in:name")
			assert.Equal(t, "stars", r.URL.Query().Get("sort"))
			assert.Equal(t, "desc", r.URL.Query().Get("order"))
			assert.Equal(t, "50", r.URL.Query().Get("per_page"))

			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `{
				"total_count": 1,
				"incomplete_results": false,
				"items": [{
					"id": 123456789,
					"name": "awesome-react",
					"full_name": "enaqx/awesome-react",
					"description": "Awesome React resources",
					"html_url": "https://github.com/enaqx/awesome-react",
					"stargazers_count": 63000,
					"forks_count": 7200,
					"language": "JavaScript",
					"topics": ["react", "awesome"],
					"owner": {"login": "enaqx"}
				}]
			}`)
		})
		client, _ := setupTestClient(t, handler)

		repos, err := client.SearchRepositories(context.Background(), model.SearchFilters{Query: "react"}, 1)
		require.NoError(t, err)
		require.Len(t, repos, 1)

		repo := repos[0]
		assert.Equal(t, int64(123456789), repo.GithubID)
		assert.Equal(t, "awesome-react", repo.Name)
		assert.Equal(t, "enaqx/awesome-react", repo.FullName)
		require.NotNil(t, repo.Description)
		assert.Equal(t, "Awesome React resources", *repo.Description)
		assert.Equal(t, "https://github.com/enaqx/awesome-react", repo.URL)
		assert.Equal(t, 63000, repo.Stars)
		assert.Equal(t, 7200, repo.Forks)
		require.NotNil(t, repo.Language)
		assert.Equal(t, "JavaScript", *repo.Language)
		assert.Equal(t, []string{"react", "awesome"}, repo.Topics)
		assert.Equal(t, []string{}, repo.Tags)
		assert.Equal(t, "enaqx", repo.Owner)
		assert.False(t, repo.LastFetched.IsZero())
	})

	t.Run("missing topics become empty slice", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `{"total_count": 1, "items": [{"id": 1, "name": "repo", "owner": {"login": "o"}}]}`)
		})
		client, _ := setupTestClient(t, handler)

		repos, err := client.SearchRepositories(context.Background(), model.SearchFilters{}, 1)
		require.NoError(t, err)
		require.Len(t, repos, 1)
		assert.NotNil(t, repos[0].Topics)
		assert.Empty(t, repos[0].Topics)
	})

	t.Run("surfaces provider errors", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"message": "API rate limit exceeded"}`)
		})
		client, _ := setupTestClient(t, handler)

		_, err := client.SearchRepositories(context.Background(), model.SearchFilters{}, 1)
		require.Error(t, err)
	})
}

func TestClient_GetReadme(t *testing.T) {
	t.Run("decodes base64 content", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/test/repo/readme", r.URL.Path)
			w.WriteHeader(http.StatusOK)
			// "# Hello" base64-encoded
			fmt.Fprintln(w, `{"content": "IyBIZWxsbw==", "encoding": "base64"}`)
		})
		client, _ := setupTestClient(t, handler)

		readme, err := client.GetReadme(context.Background(), "test", "repo")
		require.NoError(t, err)
		require.NotNil(t, readme)
		assert.Equal(t, "# Hello", *readme)
	})

	t.Run("missing readme yields nil without error", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintln(w, `{"message": "Not Found"}`)
		})
		client, _ := setupTestClient(t, handler)

		readme, err := client.GetReadme(context.Background(), "test", "repo")
		require.NoError(t, err)
		assert.Nil(t, readme)
	})
}

func TestClient_ListContributors(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/test/repo/contributors", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `[
			{"login": "alice", "avatar_url": "https://a", "html_url": "https://gh/alice", "contributions": 42},
			{"login": "bob", "avatar_url": "https://b", "html_url": "https://gh/bob", "contributions": 7}
		]`)
	})
	client, _ := setupTestClient(t, handler)

	contributors, err := client.ListContributors(context.Background(), "test", "repo", 1, 30)
	require.NoError(t, err)
	require.Len(t, contributors, 2)
	assert.Equal(t, model.Contributor{Login: "alice", AvatarURL: "https://a", HTMLURL: "https://gh/alice", Contributions: 42}, contributors[0])
}

func TestClient_RateLimit(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rate_limit", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"resources": {
			"core": {"limit": 60, "remaining": 58, "reset": 1718452800},
			"search": {"limit": 10, "remaining": 9, "reset": 1718452800}
		}}`)
	})
	client, _ := setupTestClient(t, handler)

	status, err := client.RateLimit(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
	assert.Equal(t, 60, status.Core.Limit)
	assert.Equal(t, 58, status.Core.Remaining)
	assert.Equal(t, 10, status.Search.Limit)
}
