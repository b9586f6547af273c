// Package repos は連携済みGitHubアカウントのリポジトリ一覧取得と
// インデックス対象リポジトリの登録を提供する。
package repos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/anirame128/monomind-api/internal/github"
	"github.com/anirame128/monomind-api/internal/model"
	"github.com/anirame128/monomind-api/internal/repository"
	"github.com/anirame128/monomind-api/internal/security"
)

// RepoView はリポジトリ一覧APIのレスポンス項目。
// IsIndexedは該当リポジトリがインデックス対象として登録済みかどうかを示す。
type RepoView struct {
	GithubID      int64   `json:"githubId"`
	FullName      string  `json:"fullName"`
	Name          string  `json:"name"`
	Private       bool    `json:"private"`
	Description   *string `json:"description"`
	DefaultBranch string  `json:"defaultBranch"`
	URL           string  `json:"url"`
	IsIndexed     bool    `json:"isIndexed"`
}

// Service はリポジトリ一覧取得・登録のビジネスロジックを提供する。
type Service struct {
	users  repository.UserRepository
	repos  repository.RepoRepository
	client github.APIClient
	cipher *security.Cipher
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	repos repository.RepoRepository,
	client github.APIClient,
	cipher *security.Cipher,
) *Service {
	return &Service{
		users:  users,
		repos:  repos,
		client: client,
		cipher: cipher,
	}
}

// accessToken はユーザーの復号済みGitHubアクセストークンを返す。
// 未連携の場合はGithubNotConnectedエラーを返す。
func (s *Service) accessToken(ctx context.Context, clerkUserID string) (string, error) {
	user, err := s.users.FindByClerkID(ctx, clerkUserID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || user.GithubAccessToken == nil {
		return "", model.NewGithubNotConnectedError()
	}

	token, err := s.cipher.Decrypt(*user.GithubAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return token, nil
}

// ListForUser はユーザーがアクセスできるGitHubリポジトリ一覧を返す。
// 登録済みリポジトリはIsIndexedをtrueにして返す。
func (s *Service) ListForUser(ctx context.Context, clerkUserID string) ([]*RepoView, error) {
	if clerkUserID == "" {
		return nil, model.NewValidationError("clerk_user_idが指定されていません")
	}

	token, err := s.accessToken(ctx, clerkUserID)
	if err != nil {
		return nil, err
	}

	githubRepos, err := s.client.ListUserRepos(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list github repos: %w", err)
	}

	registered, err := s.repos.ListByUser(ctx, clerkUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registered repos: %w", err)
	}
	indexed := make(map[int64]bool, len(registered))
	for _, r := range registered {
		indexed[r.GithubID] = true
	}

	views := make([]*RepoView, 0, len(githubRepos))
	for _, r := range githubRepos {
		views = append(views, &RepoView{
			GithubID:      r.ID,
			FullName:      r.FullName,
			Name:          r.Name,
			Private:       r.Private,
			Description:   r.Description,
			DefaultBranch: r.DefaultBranch,
			URL:           r.HTMLURL,
			IsIndexed:     indexed[r.ID],
		})
	}
	return views, nil
}

// Add はGitHubリポジトリをインデックス対象として登録する。
// リポジトリの詳細はGitHub APIから取得し、存在しないIDはNotFoundとなる。
// 登録直後のステータスはPENDING。
func (s *Service) Add(ctx context.Context, clerkUserID string, githubRepoID int64) (*model.Repository, error) {
	if clerkUserID == "" {
		return nil, model.NewValidationError("clerk_user_idが指定されていません")
	}
	if githubRepoID == 0 {
		return nil, model.NewValidationError("github_repo_idが指定されていません")
	}

	token, err := s.accessToken(ctx, clerkUserID)
	if err != nil {
		return nil, err
	}

	githubRepo, err := s.client.GetRepoByID(ctx, token, githubRepoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch github repo: %w", err)
	}
	if githubRepo == nil {
		return nil, model.NewRepositoryNotFoundError(githubRepoID)
	}

	repo := &model.Repository{
		ID:            uuid.New().String(),
		ClerkUserID:   clerkUserID,
		GithubID:      githubRepo.ID,
		GithubURL:     githubRepo.HTMLURL,
		FullName:      githubRepo.FullName,
		DefaultBranch: githubRepo.DefaultBranch,
		IsPrivate:     githubRepo.Private,
		Description:   githubRepo.Description,
		Status:        model.RepositoryStatusPending,
	}
	if err := s.repos.Create(ctx, repo); err != nil {
		// 二重登録は想定内のユーザー操作であり、障害として扱わない
		if errors.Is(err, repository.ErrDuplicateRepository) {
			return nil, model.NewRepositoryAlreadyRegisteredError(githubRepoID)
		}
		return nil, fmt.Errorf("failed to save repository: %w", err)
	}

	slog.Info("repository registered",
		slog.String("clerk_user_id", clerkUserID),
		slog.String("full_name", repo.FullName),
	)

	return repo, nil
}
