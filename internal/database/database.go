// internal/database/database.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"awesome-hub/internal/model"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so queries can run
// inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries is the concrete Querier over a Postgres connection.
type Queries struct {
	db DBTX
}

// New creates a Queries bound to the given connection or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// SearchRepositoriesParams filters the repository search. Empty string
// and zero fields mean "no filter". Query matches name or description
// as a case-insensitive substring.
type SearchRepositoriesParams struct {
	Query    string
	Category string
	Language string
	Topic    string
	MinStars int
	Limit    int
	Offset   int
}

// UpsertRepositoryParams carries a normalized repository for
// insert-or-update keyed by GithubID.
type UpsertRepositoryParams struct {
	GithubID    int64
	Name        string
	FullName    string
	Description *string
	URL         string
	Stars       int
	Forks       int
	Language    *string
	Topics      []string
	Tags        []string
	Category    *string
	Owner       string
}

// RepoStats holds the repository-table aggregates.
type RepoStats struct {
	Repositories int64
	TotalStars   int64
	TotalForks   int64
}

// Querier is the persistence boundary consumed by the search service.
type Querier interface {
	SearchRepositories(ctx context.Context, arg SearchRepositoriesParams) ([]model.Repository, error)
	UpsertRepository(ctx context.Context, arg UpsertRepositoryParams) (model.Repository, error)
	GetTopRepositories(ctx context.Context, limit int) ([]model.Repository, error)
	GetRepositoryByFullName(ctx context.Context, fullName string) (model.Repository, error)
	GetRepoStats(ctx context.Context) (RepoStats, error)
	CountCategories(ctx context.Context) (int64, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

var _ Querier = (*Queries)(nil)
