// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/anirame128/monomind-api/internal/model"
)

// ErrDuplicateGithubID はgithub_idのUNIQUE制約違反を表す。
// 同一GitHubアカウントを別ユーザーに連携しようとした競合時に返る。
var ErrDuplicateGithubID = errors.New("github account is already linked to another user")

// ErrDuplicateRepository は(clerk_user_id, github_id)のUNIQUE制約違反を表す。
// 同一ユーザーが同じリポジトリを二重登録しようとした場合に返る。
var ErrDuplicateRepository = errors.New("repository is already registered for this user")

// UserRepository はユーザーデータの永続化インターフェース。
// すべての書き込みはclerk_user_idをキーとするアトミックなUPSERTで行い、
// WebhookとOAuthコールバックの競合時に重複行を作らない。
type UserRepository interface {
	// Upsert はユーザーを作成または更新する。既存行ではemailを上書きする
	// （IDプロバイダーをemailの信頼できる情報源として扱う）。
	// 戻り値insertedは、このUPSERTが新規INSERTだったかどうかを示す。
	Upsert(ctx context.Context, clerkUserID, email string) (inserted bool, err error)

	// EnsureExists はユーザーが存在しない場合のみプレースホルダーemailで作成する。
	// 既存行は一切変更しない（Webhook到着前のプロジェクト作成用）。
	EnsureExists(ctx context.Context, clerkUserID, placeholderEmail string) error

	// FindByClerkID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByClerkID(ctx context.Context, clerkUserID string) (*model.User, error)

	// FindByGithubID は指定のGitHubアカウントIDが連携されているユーザーを
	// 検索する。見つからない場合はnilを返す。
	FindByGithubID(ctx context.Context, githubID int64) (*model.User, error)

	// UpsertLink はGitHub連携情報を書き込む。行が存在しない場合は
	// プレースホルダーemailで作成し、存在する場合はGitHub連携フィールドのみ
	// 上書きしてemailは変更しない。
	// github_idのUNIQUE制約違反時はErrDuplicateGithubIDを返す。
	UpsertLink(ctx context.Context, clerkUserID, placeholderEmail string, githubID int64, githubUsername, encryptedToken string) error
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
type ProjectRepository interface {
	// CreateDefaultIfAbsent はユーザーのデフォルトプロジェクトが存在しない
	// 場合のみ作成する。部分UNIQUEインデックスへのON CONFLICT DO NOTHINGで
	// 実装され、check-then-createの競合なしに冪等となる。
	// 戻り値createdは実際にINSERTされたかどうかを示す。
	CreateDefaultIfAbsent(ctx context.Context, project *model.Project) (created bool, err error)

	// Create はプロジェクトを作成する。
	Create(ctx context.Context, project *model.Project) error

	// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// FindByAPIKey はAPIキーでプロジェクトを検索する。見つからない場合はnilを返す。
	FindByAPIKey(ctx context.Context, apiKey string) (*model.Project, error)

	// ListByUser はユーザーのプロジェクト一覧を作成順で返す。
	ListByUser(ctx context.Context, clerkUserID string) ([]*model.Project, error)

	// Update はプロジェクトの名前・説明を部分更新する。
	// nilのフィールドは変更しない。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, name *string, description *string) (*model.Project, error)

	// UpdateKey はプロジェクトのAPIキーを新しい値で上書きする。
	// 書き込みと同時に旧キーは無効となる。見つからない場合はfalseを返す。
	UpdateKey(ctx context.Context, id, newKey string) (updated bool, err error)

	// Delete は指定IDのプロジェクトを削除する。見つからない場合はfalseを返す。
	Delete(ctx context.Context, id string) (deleted bool, err error)
}

// APIKeyRepository はユーザースコープAPIキーの永続化インターフェース。
type APIKeyRepository interface {
	// Create はAPIキーを作成する。
	Create(ctx context.Context, key *model.APIKey) error

	// ListByUser はユーザーのAPIキー一覧を作成順で返す。
	ListByUser(ctx context.Context, clerkUserID string) ([]*model.APIKey, error)

	// DeleteByKey はキー値に一致する行を削除する。
	// 存在しないキーの削除はエラーにならない（冪等）。
	DeleteByKey(ctx context.Context, key string) error
}

// RepoRepository はインポート済みGitHubリポジトリの永続化インターフェース。
type RepoRepository interface {
	// Create はリポジトリレコードを作成する。
	// (clerk_user_id, github_id)のUNIQUE制約違反時はErrDuplicateRepositoryを返す。
	Create(ctx context.Context, repo *model.Repository) error

	// ListByUser はユーザーの登録済みリポジトリ一覧を返す。
	ListByUser(ctx context.Context, clerkUserID string) ([]*model.Repository, error)
}
