// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, github, credential, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation                  = "VALIDATION_ERROR"
	ErrCodeGithubNotConnected          = "GITHUB_NOT_CONNECTED"
	ErrCodeProjectNotFound             = "PROJECT_NOT_FOUND"
	ErrCodeRepositoryNotFound          = "REPOSITORY_NOT_FOUND"
	ErrCodeRepositoryAlreadyRegistered = "REPOSITORY_ALREADY_REGISTERED"
	ErrCodeUpstreamUnavailable         = "UPSTREAM_UNAVAILABLE"
)

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("リクエストの内容が不正です: %s", reason),
		Category: "validation",
		Action:   "リクエストの形式を確認してください。",
	}
}

// NewGithubNotConnectedError はGitHub未連携エラーを生成する。
func NewGithubNotConnectedError() *APIError {
	return &APIError{
		Code:     ErrCodeGithubNotConnected,
		Message:  "GitHubアカウントが連携されていません。",
		Category: "github",
		Action:   "先にGitHubアカウントを連携してください。",
	}
}

// NewProjectNotFoundError はプロジェクト未検出エラーを生成する。
func NewProjectNotFoundError(projectID string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  fmt.Sprintf("指定されたプロジェクトが見つかりません: %s", projectID),
		Category: "credential",
		Action:   "プロジェクトIDを確認してください。",
	}
}

// NewRepositoryNotFoundError はGitHub上でリポジトリが見つからない場合の
// エラーを生成する。
func NewRepositoryNotFoundError(githubRepoID int64) *APIError {
	return &APIError{
		Code:     ErrCodeRepositoryNotFound,
		Message:  fmt.Sprintf("指定されたリポジトリが見つかりません: %d", githubRepoID),
		Category: "github",
		Action:   "リポジトリIDとアクセス権限を確認してください。",
	}
}

// NewRepositoryAlreadyRegisteredError は同一リポジトリの二重登録エラーを生成する。
func NewRepositoryAlreadyRegisteredError(githubRepoID int64) *APIError {
	return &APIError{
		Code:     ErrCodeRepositoryAlreadyRegistered,
		Message:  fmt.Sprintf("このリポジトリは既に登録されています: %d", githubRepoID),
		Category: "github",
		Action:   "登録済みリポジトリの一覧を確認してください。",
	}
}

// NewUpstreamUnavailableError はGitHub API呼び出しが認証以外の理由で
// 失敗した場合のエラーを生成する。
func NewUpstreamUnavailableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  fmt.Sprintf("GitHub APIの呼び出しに失敗しました: %s", reason),
		Category: "github",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
