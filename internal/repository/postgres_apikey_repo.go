package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anirame128/monomind-api/internal/model"
)

// PostgresAPIKeyRepo はPostgreSQLを使用したAPIキーリポジトリ。
type PostgresAPIKeyRepo struct {
	db *sql.DB
}

// NewPostgresAPIKeyRepo はPostgresAPIKeyRepoを生成する。
func NewPostgresAPIKeyRepo(db *sql.DB) *PostgresAPIKeyRepo {
	return &PostgresAPIKeyRepo{db: db}
}

// Create はAPIキーを作成する。
func (r *PostgresAPIKeyRepo) Create(ctx context.Context, key *model.APIKey) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key, clerk_user_id, name)
		 VALUES ($1, $2, $3)`,
		key.Key, key.ClerkUserID, key.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}

	return nil
}

// ListByUser はユーザーのAPIキー一覧を作成順で返す。
func (r *PostgresAPIKeyRepo) ListByUser(ctx context.Context, clerkUserID string) ([]*model.APIKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, clerk_user_id, name, created_at
		 FROM api_keys WHERE clerk_user_id = $1 ORDER BY created_at`,
		clerkUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*model.APIKey
	for rows.Next() {
		k := &model.APIKey{}
		if err := rows.Scan(&k.Key, &k.ClerkUserID, &k.Name, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate api keys: %w", err)
	}

	return keys, nil
}

// DeleteByKey はキー値に一致する行を削除する。
// 一致する行が存在しなくてもエラーにならない（冪等削除）。
func (r *PostgresAPIKeyRepo) DeleteByKey(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM api_keys WHERE key = $1`,
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}

	return nil
}

// compile-time interface check
var _ APIKeyRepository = (*PostgresAPIKeyRepo)(nil)
