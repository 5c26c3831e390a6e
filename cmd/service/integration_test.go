//go:build integration

// cmd/service/integration_test.go
package main

import (
	"context"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"awesome-hub/internal/database"
)

func setupTestDatabase(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(context.Background()))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(dbpool.Close)

	return dbpool
}

func strPtr(s string) *string { return &s }

func TestDatabase_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool := setupTestDatabase(ctx, t)
	q := database.New(dbpool)

	t.Run("upsert is idempotent on github_id", func(t *testing.T) {
		params := database.UpsertRepositoryParams{
			GithubID:    43716886,
			Name:        "awesome-go",
			FullName:    "avelino/awesome-go",
			Description: strPtr("A curated list of awesome Go frameworks"),
			URL:         "https://github.com/avelino/awesome-go",
			Stars:       130000,
			Forks:       11800,
			Language:    strPtr("Go"),
			Topics:      []string{"go", "awesome"},
			Tags:        []string{"backend"},
			Owner:       "avelino",
		}

		first, err := q.UpsertRepository(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, int64(43716886), first.GithubID)
		assert.Equal(t, 130000, first.Stars)

		// Re-upsert with drifted metrics and a changed name: only the
		// volatile fields may move.
		params.Stars = 131000
		params.Forks = 11900
		params.Name = "renamed"
		params.Description = strPtr("updated description")

		second, err := q.UpsertRepository(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID, "same github_id must converge to one row")
		assert.Equal(t, 131000, second.Stars)
		assert.Equal(t, 11900, second.Forks)
		require.NotNil(t, second.Description)
		assert.Equal(t, "updated description", *second.Description)
		assert.Equal(t, "awesome-go", second.Name, "identity fields are not overwritten")
		assert.Equal(t, []string{"go", "awesome"}, second.Topics)
		assert.True(t, second.LastFetched.After(first.LastFetched) || second.LastFetched.Equal(first.LastFetched))

		stats, err := q.GetRepoStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.Repositories)
	})

	t.Run("search matches name and description case-insensitively", func(t *testing.T) {
		_, err := q.UpsertRepository(ctx, database.UpsertRepositoryParams{
			GithubID:    21289110,
			Name:        "awesome-python",
			FullName:    "vinta/awesome-python",
			Description: strPtr("Python frameworks and libraries"),
			URL:         "https://github.com/vinta/awesome-python",
			Stars:       218000,
			Forks:       24000,
			Language:    strPtr("Python"),
			Topics:      []string{"python"},
			Tags:        []string{},
			Category:    strPtr("python"),
			Owner:       "vinta",
		})
		require.NoError(t, err)

		repos, err := q.SearchRepositories(ctx, database.SearchRepositoriesParams{
			Query: "PYTHON", Limit: 20,
		})
		require.NoError(t, err)
		require.Len(t, repos, 1)
		assert.Equal(t, "awesome-python", repos[0].Name)

		// Category filter excludes non-matching rows.
		repos, err = q.SearchRepositories(ctx, database.SearchRepositoriesParams{
			Query: "awesome", Category: "python", Limit: 20,
		})
		require.NoError(t, err)
		require.Len(t, repos, 1)

		repos, err = q.SearchRepositories(ctx, database.SearchRepositoriesParams{
			Query: "awesome", Category: "rust", Limit: 20,
		})
		require.NoError(t, err)
		assert.Empty(t, repos)
	})

	t.Run("top repositories are ordered by stars", func(t *testing.T) {
		repos, err := q.GetTopRepositories(ctx, 6)
		require.NoError(t, err)
		require.Len(t, repos, 2)
		assert.Equal(t, "awesome-python", repos[0].Name)
		assert.GreaterOrEqual(t, repos[0].Stars, repos[1].Stars)
	})

	t.Run("lookup by full name", func(t *testing.T) {
		repo, err := q.GetRepositoryByFullName(ctx, "vinta/awesome-python")
		require.NoError(t, err)
		assert.Equal(t, int64(21289110), repo.GithubID)
	})

	t.Run("categories are seeded", func(t *testing.T) {
		count, err := q.CountCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)

		categories, err := q.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 5)

		slugs := make([]string, 0, len(categories))
		for _, c := range categories {
			slugs = append(slugs, c.Slug)
		}
		assert.Contains(t, slugs, "javascript")
		assert.Contains(t, slugs, "machine-learning")
	})
}
