package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/anirame128/monomind-api/internal/model"
)

// PostgresRepoRepo はPostgreSQLを使用したGitHubリポジトリレコードのリポジトリ。
type PostgresRepoRepo struct {
	db *sql.DB
}

// NewPostgresRepoRepo はPostgresRepoRepoを生成する。
func NewPostgresRepoRepo(db *sql.DB) *PostgresRepoRepo {
	return &PostgresRepoRepo{db: db}
}

// Create はリポジトリレコードを作成する。
func (r *PostgresRepoRepo) Create(ctx context.Context, repo *model.Repository) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO repositories (id, clerk_user_id, github_id, github_url, full_name, default_branch, is_private, description, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		repo.ID, repo.ClerkUserID, repo.GithubID, repo.GithubURL, repo.FullName,
		repo.DefaultBranch, repo.IsPrivate, repo.Description, repo.Status,
	)
	if err != nil {
		// (clerk_user_id, github_id)のUNIQUE制約違反: 同一リポジトリの二重登録
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateRepository
		}
		return fmt.Errorf("failed to insert repository: %w", err)
	}

	return nil
}

// ListByUser はユーザーの登録済みリポジトリ一覧を返す。
func (r *PostgresRepoRepo) ListByUser(ctx context.Context, clerkUserID string) ([]*model.Repository, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, clerk_user_id, github_id, github_url, full_name, default_branch, is_private, description, status, created_at
		 FROM repositories WHERE clerk_user_id = $1 ORDER BY created_at`,
		clerkUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	defer rows.Close()

	var repos []*model.Repository
	for rows.Next() {
		repo := &model.Repository{}
		if err := rows.Scan(&repo.ID, &repo.ClerkUserID, &repo.GithubID, &repo.GithubURL, &repo.FullName,
			&repo.DefaultBranch, &repo.IsPrivate, &repo.Description, &repo.Status, &repo.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate repositories: %w", err)
	}

	return repos, nil
}

// compile-time interface check
var _ RepoRepository = (*PostgresRepoRepo)(nil)
