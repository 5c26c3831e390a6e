// internal/database/repos.go
package database

import (
	"context"
	"fmt"
	"strings"

	"awesome-hub/internal/model"
)

const repoColumns = `id, github_id, name, full_name, description, url, stars, forks,
	language, topics, tags, category, owner, last_fetched, created_at, updated_at`

func scanRepository(row interface{ Scan(dest ...any) error }) (model.Repository, error) {
	var r model.Repository
	err := row.Scan(
		&r.ID,
		&r.GithubID,
		&r.Name,
		&r.FullName,
		&r.Description,
		&r.URL,
		&r.Stars,
		&r.Forks,
		&r.Language,
		&r.Topics,
		&r.Tags,
		&r.Category,
		&r.Owner,
		&r.LastFetched,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

// SearchRepositories returns a page of repositories matching the
// filters, ordered by stars descending.
func (q *Queries) SearchRepositories(ctx context.Context, arg SearchRepositoriesParams) ([]model.Repository, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT %s FROM awesome_repos
		WHERE (name ILIKE '%%' || $1 || '%%' OR description ILIKE '%%' || $1 || '%%')`, repoColumns)
	args := []any{arg.Query}

	if arg.Category != "" {
		args = append(args, arg.Category)
		fmt.Fprintf(&sb, " AND category = $%d", len(args))
	}
	if arg.Language != "" {
		args = append(args, arg.Language)
		fmt.Fprintf(&sb, " AND language = $%d", len(args))
	}
	if arg.Topic != "" {
		args = append(args, arg.Topic)
		fmt.Fprintf(&sb, " AND $%d = ANY(topics)", len(args))
	}
	if arg.MinStars > 0 {
		args = append(args, arg.MinStars)
		fmt.Fprintf(&sb, " AND stars >= $%d", len(args))
	}

	args = append(args, arg.Limit, arg.Offset)
	fmt.Fprintf(&sb, " ORDER BY stars DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := q.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		r, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

// UpsertRepository inserts a repository keyed by its GitHub id. On
// conflict only the volatile fields (stars, forks, description,
// last_fetched) are refreshed; identity and classification stay as
// first written.
func (q *Queries) UpsertRepository(ctx context.Context, arg UpsertRepositoryParams) (model.Repository, error) {
	row := q.db.QueryRow(ctx, fmt.Sprintf(`INSERT INTO awesome_repos
		(github_id, name, full_name, description, url, stars, forks,
		 language, topics, tags, category, owner, last_fetched)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (github_id) DO UPDATE SET
			stars = EXCLUDED.stars,
			forks = EXCLUDED.forks,
			description = EXCLUDED.description,
			last_fetched = now(),
			updated_at = now()
		RETURNING %s`, repoColumns),
		arg.GithubID,
		arg.Name,
		arg.FullName,
		arg.Description,
		arg.URL,
		arg.Stars,
		arg.Forks,
		arg.Language,
		arg.Topics,
		arg.Tags,
		arg.Category,
		arg.Owner,
	)
	return scanRepository(row)
}

// GetTopRepositories returns the highest-starred repositories.
func (q *Queries) GetTopRepositories(ctx context.Context, limit int) ([]model.Repository, error) {
	rows, err := q.db.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM awesome_repos ORDER BY stars DESC LIMIT $1`, repoColumns), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		r, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

// GetRepositoryByFullName looks up a repository by its owner/name pair.
func (q *Queries) GetRepositoryByFullName(ctx context.Context, fullName string) (model.Repository, error) {
	row := q.db.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM awesome_repos WHERE full_name = $1`, repoColumns), fullName)
	return scanRepository(row)
}

// GetRepoStats aggregates counts and star/fork sums over all rows.
func (q *Queries) GetRepoStats(ctx context.Context) (RepoStats, error) {
	var s RepoStats
	err := q.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(stars), 0), COALESCE(SUM(forks), 0) FROM awesome_repos`,
	).Scan(&s.Repositories, &s.TotalStars, &s.TotalForks)
	return s, err
}
