// internal/search/service.go
package search

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"awesome-hub/internal/database"
	"awesome-hub/internal/model"
)

const (
	// PageSize is the number of repositories per search page.
	PageSize = 20

	// FeaturedCount is how many repositories the featured endpoint returns.
	FeaturedCount = 6

	// Number of repositories to upsert in parallel when warming the store.
	upsertConcurrency = 5

	defaultQuery = "awesome"
)

// Provider is the external repository search boundary, implemented by
// the GitHub client.
type Provider interface {
	SearchRepositories(ctx context.Context, filters model.SearchFilters, page int) ([]model.Repository, error)
	GetRepository(ctx context.Context, owner, name string) (*model.Repository, error)
	ListContributors(ctx context.Context, owner, name string, page, perPage int) ([]model.Contributor, error)
	GetReadme(ctx context.Context, owner, name string) (*string, error)
}

// Service resolves search, featured and stats requests against the
// database first, falling back to the external provider and warming
// the database with whatever the provider returned.
type Service struct {
	db     database.Querier
	gh     Provider
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(db database.Querier, gh Provider, logger *slog.Logger) *Service {
	return &Service{db: db, gh: gh, logger: logger}
}

// Search returns one page of repositories for the query. The database
// is tried first; exactly zero rows (or a database error, treated the
// same) triggers a provider query whose results are returned directly
// and upserted into the database best-effort. A provider failure after
// an empty database degrades to an empty page, not an error.
func (s *Service) Search(ctx context.Context, q model.SearchQuery) (model.SearchPage, error) {
	text := q.Text
	if text == "" {
		text = defaultQuery
	}

	repos, err := s.db.SearchRepositories(ctx, database.SearchRepositoriesParams{
		Query:    text,
		Category: q.Category,
		Language: q.Language,
		Topic:    q.Topic,
		MinStars: q.MinStars,
		Limit:    PageSize,
		Offset:   (q.Page - 1) * PageSize,
	})
	if err != nil {
		s.logger.Warn("Database search failed, falling back to provider", "query", text, "error", err)
		repos = nil
	}

	if len(repos) == 0 {
		fetched, err := s.gh.SearchRepositories(ctx, model.SearchFilters{
			Query:    text,
			Language: q.Language,
			Topic:    q.Topic,
			MinStars: q.MinStars,
			Sort:     q.Sort,
		}, q.Page)
		if err != nil {
			s.logger.Error("Provider search failed after empty database result", "query", text, "error", err)
			return emptyPage(q.Page), nil
		}

		s.warmStore(ctx, fetched)

		if len(fetched) > PageSize {
			fetched = fetched[:PageSize]
		}
		repos = fetched
	}

	return model.SearchPage{
		Repos: coerceSlices(repos),
		Pagination: model.Pagination{
			Page:    q.Page,
			HasMore: len(repos) == PageSize,
		},
	}, nil
}

// Featured returns the top repositories by stars. An empty database
// falls back to a high-bar provider search, warming the store on the
// way.
func (s *Service) Featured(ctx context.Context) ([]model.Repository, error) {
	repos, err := s.db.GetTopRepositories(ctx, FeaturedCount)
	if err != nil {
		s.logger.Warn("Database featured lookup failed, falling back to provider", "error", err)
		repos = nil
	}

	if len(repos) == 0 {
		fetched, err := s.gh.SearchRepositories(ctx, model.SearchFilters{
			Query:    defaultQuery,
			MinStars: 1000,
			Sort:     "stars",
			Order:    "desc",
		}, 1)
		if err != nil {
			s.logger.Error("Provider featured lookup failed", "error", err)
			return []model.Repository{}, nil
		}

		s.warmStore(ctx, fetched)

		if len(fetched) > FeaturedCount {
			fetched = fetched[:FeaturedCount]
		}
		repos = fetched
	}

	return coerceSlices(repos), nil
}

// Stats produces the dashboard summary from database aggregates, or
// from a provider pool when the database is empty. Contributors is an
// estimate: a tenth of the total fork count.
func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	agg, err := s.db.GetRepoStats(ctx)
	if err != nil {
		s.logger.Warn("Database stats aggregation failed, falling back to provider", "error", err)
	} else if agg.Repositories > 0 {
		categories, err := s.db.CountCategories(ctx)
		if err != nil {
			s.logger.Warn("Category count failed", "error", err)
			categories = 0
		}
		return model.Stats{
			Repositories: agg.Repositories,
			TotalStars:   agg.TotalStars,
			TotalForks:   agg.TotalForks,
			Categories:   categories,
			Contributors: agg.TotalForks / 10,
		}, nil
	}

	repos, err := s.gh.SearchRepositories(ctx, model.SearchFilters{
		Query:    defaultQuery,
		MinStars: 10,
		Sort:     "stars",
		Order:    "desc",
	}, 1)
	if err != nil {
		return model.Stats{}, err
	}

	var totalStars, totalForks int64
	languages := make(map[string]struct{})
	for _, r := range repos {
		totalStars += int64(r.Stars)
		totalForks += int64(r.Forks)
		if r.Language != nil {
			languages[*r.Language] = struct{}{}
		}
	}

	return model.Stats{
		Repositories: int64(len(repos)),
		TotalStars:   totalStars,
		TotalForks:   totalForks,
		Categories:   int64(len(languages)),
		Contributors: totalForks / 10,
	}, nil
}

// RepoDetail fetches a repository's metadata, README and contributors
// from the provider, falling back to the stored row when the provider
// is unreachable. README and contributor failures degrade to absent.
func (s *Service) RepoDetail(ctx context.Context, owner, name string) (model.RepoDetail, error) {
	repo, err := s.gh.GetRepository(ctx, owner, name)
	if err != nil {
		stored, dbErr := s.db.GetRepositoryByFullName(ctx, owner+"/"+name)
		if dbErr != nil {
			return model.RepoDetail{}, err
		}
		s.logger.Warn("Provider repository lookup failed, serving stored copy",
			"owner", owner, "repo", name, "error", err)
		coerced := coerceSlices([]model.Repository{stored})
		return model.RepoDetail{Repository: coerced[0], Contributors: []model.Contributor{}}, nil
	}

	s.warmStore(ctx, []model.Repository{*repo})

	readme, err := s.gh.GetReadme(ctx, owner, name)
	if err != nil {
		s.logger.Warn("Failed to fetch README", "owner", owner, "repo", name, "error", err)
	}

	contributors, err := s.gh.ListContributors(ctx, owner, name, 1, 30)
	if err != nil {
		s.logger.Warn("Failed to fetch contributors", "owner", owner, "repo", name, "error", err)
	}
	if contributors == nil {
		contributors = []model.Contributor{}
	}

	return model.RepoDetail{
		Repository:   *repo,
		Readme:       readme,
		Contributors: contributors,
	}, nil
}

// Categories lists the browsing categories.
func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.db.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

// warmStore upserts provider results into the database, keyed by
// GitHub id. Each failure is logged individually and never aborts the
// batch. The batch is detached from the request context so a cancelled
// request does not drop records mid-warm.
func (s *Service) warmStore(ctx context.Context, repos []model.Repository) {
	if len(repos) == 0 {
		return
	}

	warmCtx := context.WithoutCancel(ctx)
	g := new(errgroup.Group)
	g.SetLimit(upsertConcurrency)

	for _, repo := range repos {
		g.Go(func() error {
			_, err := s.db.UpsertRepository(warmCtx, database.UpsertRepositoryParams{
				GithubID:    repo.GithubID,
				Name:        repo.Name,
				FullName:    repo.FullName,
				Description: repo.Description,
				URL:         repo.URL,
				Stars:       repo.Stars,
				Forks:       repo.Forks,
				Language:    repo.Language,
				Topics:      repo.Topics,
				Tags:        repo.Tags,
				Category:    repo.Category,
				Owner:       repo.Owner,
			})
			if err != nil {
				s.logger.Warn("Failed to upsert repository",
					"full_name", repo.FullName, "github_id", repo.GithubID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// coerceSlices guarantees non-nil Topics and Tags on every repository
// before it crosses the API boundary.
func coerceSlices(repos []model.Repository) []model.Repository {
	if repos == nil {
		return []model.Repository{}
	}
	for i := range repos {
		if repos[i].Topics == nil {
			repos[i].Topics = []string{}
		}
		if repos[i].Tags == nil {
			repos[i].Tags = []string{}
		}
	}
	return repos
}

func emptyPage(page int) model.SearchPage {
	return model.SearchPage{
		Repos:      []model.Repository{},
		Pagination: model.Pagination{Page: page, HasMore: false},
	}
}
