package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anirame128/monomind-api/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

const projectColumns = `id, clerk_user_id, name, description, api_key, is_default, created_at, updated_at`

func scanProject(row *sql.Row) (*model.Project, error) {
	p := &model.Project{}
	err := row.Scan(&p.ID, &p.ClerkUserID, &p.Name, &p.Description, &p.APIKey, &p.IsDefault, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateDefaultIfAbsent はユーザーのデフォルトプロジェクトが存在しない場合のみ
// 作成する。部分UNIQUEインデックス（clerk_user_id WHERE is_default）への
// ON CONFLICT DO NOTHINGにより、Webhook再配送時にもcheck-then-createの
// 競合なしに冪等となる。
func (r *PostgresProjectRepo) CreateDefaultIfAbsent(ctx context.Context, project *model.Project) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, clerk_user_id, name, description, api_key, is_default)
		 VALUES ($1, $2, $3, $4, $5, TRUE)
		 ON CONFLICT (clerk_user_id) WHERE is_default DO NOTHING`,
		project.ID, project.ClerkUserID, project.Name, project.Description, project.APIKey,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create default project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// Create はプロジェクトを作成する。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, clerk_user_id, name, description, api_key, is_default)
		 VALUES ($1, $2, $3, $4, $5, FALSE)`,
		project.ID, project.ClerkUserID, project.Name, project.Description, project.APIKey,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	return nil
}

// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find project by ID: %w", err)
	}
	return p, nil
}

// FindByAPIKey はAPIキーでプロジェクトを検索する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByAPIKey(ctx context.Context, apiKey string) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE api_key = $1`, apiKey,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find project by API key: %w", err)
	}
	return p, nil
}

// ListByUser はユーザーのプロジェクト一覧を作成順で返す。
func (r *PostgresProjectRepo) ListByUser(ctx context.Context, clerkUserID string) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE clerk_user_id = $1 ORDER BY created_at`,
		clerkUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p := &model.Project{}
		if err := rows.Scan(&p.ID, &p.ClerkUserID, &p.Name, &p.Description, &p.APIKey, &p.IsDefault, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

// Update はプロジェクトの名前・説明を部分更新する。nilのフィールドは変更しない。
// 見つからない場合はnilを返す。
func (r *PostgresProjectRepo) Update(ctx context.Context, id string, name *string, description *string) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`UPDATE projects
		 SET name = COALESCE($2, name),
		     description = COALESCE($3, description),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+projectColumns,
		id, name, description,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

// UpdateKey はプロジェクトのAPIキーを新しい値で上書きする。
// 単一行のUPDATEのため、書き込みと同時に旧キーは無効となる。
func (r *PostgresProjectRepo) UpdateKey(ctx context.Context, id, newKey string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET api_key = $2, updated_at = now() WHERE id = $1`,
		id, newKey,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update project key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// Delete は指定IDのプロジェクトを削除する。見つからない場合はfalseを返す。
// ユーザーデータは削除しない。
func (r *PostgresProjectRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
