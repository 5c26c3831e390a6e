// internal/model/models.go
package model

import "time"

// Repository is the canonical shape for an awesome-list repository,
// regardless of whether it came from the database or the GitHub API.
type Repository struct {
	ID          int64     `json:"id"`
	GithubID    int64     `json:"githubId"`
	Name        string    `json:"name"`
	FullName    string    `json:"fullName"`
	Description *string   `json:"description"`
	URL         string    `json:"url"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Language    *string   `json:"language"`
	Topics      []string  `json:"topics"`
	Tags        []string  `json:"tags"`
	Category    *string   `json:"category"`
	Owner       string    `json:"owner"`
	LastFetched time.Time `json:"lastFetched"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Category groups repositories for browsing.
type Category struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
}

// SearchFilters is the query sent to the GitHub search provider.
// The zero value searches for "awesome" repositories sorted by stars.
type SearchFilters struct {
	Query     string
	Language  string
	Topic     string
	MinStars  int
	MinForks  int
	Sort      string // stars, forks or updated
	Order     string // desc or asc
	DateRange string // day, week, month or year
}

// SearchQuery is a validated search request against our own API.
type SearchQuery struct {
	Text     string
	Category string // empty means no category filter
	Page     int
	Language string
	Topic    string
	MinStars int
	Sort     string
}

// Pagination describes the page position of a search response.
// HasMore is an approximation: true when the page came back full.
type Pagination struct {
	Page    int  `json:"page"`
	HasMore bool `json:"hasMore"`
}

// SearchPage is the envelope returned by the search endpoint.
type SearchPage struct {
	Repos      []Repository `json:"repos"`
	Pagination Pagination   `json:"pagination"`
}

// Stats is the dashboard summary. Contributors is a derived estimate
// (a tenth of the total fork count), not a measured quantity.
type Stats struct {
	Repositories int64 `json:"repositories"`
	TotalStars   int64 `json:"totalStars"`
	TotalForks   int64 `json:"totalForks"`
	Categories   int64 `json:"categories"`
	Contributors int64 `json:"contributors"`
}

// Contributor is a repository contributor as reported by GitHub.
type Contributor struct {
	Login         string `json:"login"`
	AvatarURL     string `json:"avatarUrl"`
	HTMLURL       string `json:"htmlUrl"`
	Contributions int    `json:"contributions"`
}

// RepoDetail is the repository detail page payload. Readme is nil when
// the repository has none.
type RepoDetail struct {
	Repository   Repository    `json:"repository"`
	Readme       *string       `json:"readme"`
	Contributors []Contributor `json:"contributors"`
}

// RateWindow is one GitHub rate-limit bucket.
type RateWindow struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// RateLimitStatus reports GitHub API quota for the status endpoint.
type RateLimitStatus struct {
	Authenticated bool       `json:"authenticated"`
	Core          RateWindow `json:"core"`
	Search        RateWindow `json:"search"`
}
