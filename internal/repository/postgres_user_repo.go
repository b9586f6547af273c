package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/anirame128/monomind-api/internal/model"
)

// uniqueViolation はPostgreSQLのUNIQUE制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Upsert はユーザーを作成または更新する。既存行ではemailを上書きする。
// 戻り値insertedはこのUPSERTが新規INSERTだったかどうかを示す。
// (xmax = 0) は、その行がこのトランザクションでINSERTされた場合にのみ
// 真となるPostgreSQL固有の判定方法。
func (r *PostgresUserRepo) Upsert(ctx context.Context, clerkUserID, email string) (bool, error) {
	var inserted bool
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (clerk_user_id, email)
		 VALUES ($1, $2)
		 ON CONFLICT (clerk_user_id)
		 DO UPDATE SET email = EXCLUDED.email, updated_at = now()
		 RETURNING (xmax = 0)`,
		clerkUserID, email,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert user: %w", err)
	}

	return inserted, nil
}

// EnsureExists はユーザーが存在しない場合のみプレースホルダーemailで作成する。
// 既存行は一切変更しない。
func (r *PostgresUserRepo) EnsureExists(ctx context.Context, clerkUserID, placeholderEmail string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (clerk_user_id, email)
		 VALUES ($1, $2)
		 ON CONFLICT (clerk_user_id) DO NOTHING`,
		clerkUserID, placeholderEmail,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure user exists: %w", err)
	}

	return nil
}

// FindByClerkID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByClerkID(ctx context.Context, clerkUserID string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT clerk_user_id, email, github_id, github_username, github_access_token, created_at, updated_at
		 FROM users WHERE clerk_user_id = $1`,
		clerkUserID,
	).Scan(&user.ClerkUserID, &user.Email, &user.GithubID, &user.GithubUsername, &user.GithubAccessToken, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by clerk ID: %w", err)
	}

	return user, nil
}

// FindByGithubID は指定のGitHubアカウントIDが連携されているユーザーを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByGithubID(ctx context.Context, githubID int64) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT clerk_user_id, email, github_id, github_username, github_access_token, created_at, updated_at
		 FROM users WHERE github_id = $1`,
		githubID,
	).Scan(&user.ClerkUserID, &user.Email, &user.GithubID, &user.GithubUsername, &user.GithubAccessToken, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by github ID: %w", err)
	}

	return user, nil
}

// UpsertLink はGitHub連携情報を書き込む。行が存在しない場合は
// プレースホルダーemailで作成し、存在する場合は連携フィールドのみ上書きする。
// 既存行のemailはWebhookが信頼できる情報源のため変更しない。
func (r *PostgresUserRepo) UpsertLink(ctx context.Context, clerkUserID, placeholderEmail string, githubID int64, githubUsername, encryptedToken string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (clerk_user_id, email, github_id, github_username, github_access_token)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (clerk_user_id)
		 DO UPDATE SET github_id = EXCLUDED.github_id,
		               github_username = EXCLUDED.github_username,
		               github_access_token = EXCLUDED.github_access_token,
		               updated_at = now()`,
		clerkUserID, placeholderEmail, githubID, githubUsername, encryptedToken,
	)
	if err != nil {
		// github_idのUNIQUE制約違反: 同じGitHubアカウントの同時連携で
		// 負けた側がここに到達する
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateGithubID
		}
		return fmt.Errorf("failed to upsert github link: %w", err)
	}

	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
