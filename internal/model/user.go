// Package model はドメインモデルを定義する。
package model

import "time"

// User はプラットフォーム利用ユーザーを表す。
// ClerkUserIDは外部IDプロバイダー（Clerk）が発行する安定した識別子で、
// システム内の主キーとして使用する。
type User struct {
	ClerkUserID       string
	Email             string
	GithubID          *int64  // 連携済みGitHubアカウントのID（未連携の場合はnil）
	GithubUsername    *string // 連携済みGitHubアカウントのログイン名
	GithubAccessToken *string // 暗号化済みアクセストークン（平文では保存しない）
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// GithubConnected はGitHubアカウントが連携済みかどうかを返す。
func (u *User) GithubConnected() bool {
	return u.GithubID != nil
}

// Project はユーザーが所有するプロジェクトを表す。
// APIKeyはプロジェクトスコープのベアラークレデンシャル。
type Project struct {
	ID          string
	ClerkUserID string
	Name        string
	Description *string
	APIKey      string
	IsDefault   bool // 初回プロビジョニング時に自動作成されたプロジェクトかどうか
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// APIKey はユーザースコープのAPIキーを表す。
// Keyそのものが主キーであり、発行時に一度だけ平文で返す。
type APIKey struct {
	Key         string
	ClerkUserID string
	Name        string
	CreatedAt   time.Time
}

// APIKeyMetadata はAPIキーの一覧表示用メタデータ。
// 平文のキーは含めない。
type APIKeyMetadata struct {
	Name      string
	CreatedAt time.Time
}

// RepositoryStatus はインポート済みリポジトリのインデックス状態。
type RepositoryStatus string

const (
	// RepositoryStatusPending はインデックス処理待ちを示す。
	RepositoryStatusPending RepositoryStatus = "PENDING"
)

// Repository はインデックス対象として登録されたGitHubリポジトリを表す。
type Repository struct {
	ID            string
	ClerkUserID   string
	GithubID      int64
	GithubURL     string
	FullName      string
	DefaultBranch string
	IsPrivate     bool
	Description   *string
	Status        RepositoryStatus
	CreatedAt     time.Time
}
