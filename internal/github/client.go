// internal/github/client.go
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"awesome-hub/internal/model"
)

// searchPageSize is the page size requested from the GitHub search API.
// It is larger than our own page size so a single fallback fetch warms
// the database beyond the page being served.
const searchPageSize = 50

// Client is a wrapper around the go-github client. It works without a
// token, at GitHub's unauthenticated rate limits.
type Client struct {
	gh            *github.Client
	logger        *slog.Logger
	authenticated bool
}

// NewClient creates a Client. An empty token yields an unauthenticated
// client.
func NewClient(token string, logger *slog.Logger) *Client {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	return &Client{
		gh:            github.NewClient(httpClient),
		logger:        logger,
		authenticated: token != "",
	}
}

// Authenticated reports whether the client carries a token.
func (c *Client) Authenticated() bool {
	return c.authenticated
}

// buildSearchQuery translates filters into GitHub's search-operator
// syntax. This is deliberately not the same query language as the
// database search; the two paths may return different result sets for
// the same request.
func buildSearchQuery(filters model.SearchFilters, now time.Time) string {
	query := filters.Query
	if query == "" {
		query = "awesome"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s in:name OR %s in:description", query, query)

	if filters.Language != "" {
		fmt.Fprintf(&sb, " language:%s", filters.Language)
	}
	if filters.Topic != "" {
		fmt.Fprintf(&sb, " topic:%s", filters.Topic)
	}
	if filters.MinStars > 0 {
		fmt.Fprintf(&sb, " stars:>=%d", filters.MinStars)
	}
	if filters.MinForks > 0 {
		fmt.Fprintf(&sb, " forks:>=%d", filters.MinForks)
	}

	if filters.DateRange != "" {
		cutoff := now
		switch filters.DateRange {
		case "day":
			cutoff = cutoff.AddDate(0, 0, -1)
		case "week":
			cutoff = cutoff.AddDate(0, 0, -7)
		case "month":
			cutoff = cutoff.AddDate(0, -1, 0)
		case "year":
			cutoff = cutoff.AddDate(-1, 0, 0)
		}
		fmt.Fprintf(&sb, " pushed:>%s", cutoff.Format("2006-01-02"))
	}

	return sb.String()
}

// SearchRepositories queries the GitHub search API and translates the
// results into our internal repository shape.
func (c *Client) SearchRepositories(ctx context.Context, filters model.SearchFilters, page int) ([]model.Repository, error) {
	sort := filters.Sort
	if sort == "" {
		sort = "stars"
	}
	order := filters.Order
	if order == "" {
		order = "desc"
	}

	query := buildSearchQuery(filters, time.Now())
	c.logger.Debug("Searching GitHub repositories", "query", query, "page", page)

	result, _, err := c.gh.Search.Repositories(ctx, query, &github.SearchOptions{
		Sort:  sort,
		Order: order,
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: searchPageSize,
		},
	})
	if err != nil {
		return nil, err
	}

	repos := make([]model.Repository, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, toInternalRepository(r))
	}
	return repos, nil
}

// GetRepository fetches a single repository's metadata.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*model.Repository, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	internal := toInternalRepository(repo)
	return &internal, nil
}

// ListContributors fetches one page of a repository's contributors.
func (c *Client) ListContributors(ctx context.Context, owner, name string, page, perPage int) ([]model.Contributor, error) {
	contributors, _, err := c.gh.Repositories.ListContributors(ctx, owner, name, &github.ListContributorsOptions{
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	})
	if err != nil {
		return nil, err
	}

	result := make([]model.Contributor, 0, len(contributors))
	for _, cb := range contributors {
		result = append(result, model.Contributor{
			Login:         cb.GetLogin(),
			AvatarURL:     cb.GetAvatarURL(),
			HTMLURL:       cb.GetHTMLURL(),
			Contributions: cb.GetContributions(),
		})
	}
	return result, nil
}

// GetReadme returns the decoded README markdown, or nil when the
// repository has none.
func (c *Client) GetReadme(ctx context.Context, owner, name string) (*string, error) {
	readme, _, err := c.gh.Repositories.GetReadme(ctx, owner, name, nil)
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	content, err := readme.GetContent()
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// RateLimit reports current GitHub API quota for the status endpoint.
func (c *Client) RateLimit(ctx context.Context) (model.RateLimitStatus, error) {
	limits, _, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		return model.RateLimitStatus{}, err
	}

	return model.RateLimitStatus{
		Authenticated: c.authenticated,
		Core:          toRateWindow(limits.Core),
		Search:        toRateWindow(limits.Search),
	}, nil
}

func toRateWindow(r *github.Rate) model.RateWindow {
	if r == nil {
		return model.RateWindow{}
	}
	return model.RateWindow{
		Limit:     r.Limit,
		Remaining: r.Remaining,
		Reset:     r.Reset.Time,
	}
}

// toInternalRepository translates a github.Repository into our internal
// model. Topics are coerced to an empty slice; GitHub has no tag
// concept, so Tags always starts empty.
func toInternalRepository(r *github.Repository) model.Repository {
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}

	return model.Repository{
		GithubID:    r.GetID(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.Description,
		URL:         r.GetHTMLURL(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Language:    r.Language,
		Topics:      topics,
		Tags:        []string{},
		Owner:       r.GetOwner().GetLogin(),
		LastFetched: time.Now(),
	}
}
