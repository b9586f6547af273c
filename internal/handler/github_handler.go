package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/anirame128/monomind-api/internal/model"
	"github.com/anirame128/monomind-api/internal/repos"
)

// RepoServiceInterface はGitHubリポジトリハンドラーが必要とするサービスインターフェース。
type RepoServiceInterface interface {
	// ListForUser はユーザーがアクセスできるGitHubリポジトリ一覧を返す。
	ListForUser(ctx context.Context, clerkUserID string) ([]*repos.RepoView, error)
	// Add はGitHubリポジトリをインデックス対象として登録する。
	Add(ctx context.Context, clerkUserID string, githubRepoID int64) (*model.Repository, error)
}

// GithubHandler はGitHubリポジトリ連携のHTTPハンドラー。
type GithubHandler struct {
	service RepoServiceInterface
}

// NewGithubHandler はGithubHandlerを生成する。
func NewGithubHandler(service RepoServiceInterface) *GithubHandler {
	return &GithubHandler{
		service: service,
	}
}

// addRepositoryRequest はリポジトリ登録リクエストのボディ。
type addRepositoryRequest struct {
	ClerkUserID  string `json:"clerk_user_id"`
	GithubRepoID int64  `json:"github_repo_id"`
}

// repositoryResponse は登録済みリポジトリのAPIレスポンス。
type repositoryResponse struct {
	ID            string  `json:"id"`
	ClerkUserID   string  `json:"clerk_user_id"`
	GithubID      int64   `json:"github_id"`
	GithubURL     string  `json:"github_url"`
	FullName      string  `json:"full_name"`
	DefaultBranch string  `json:"default_branch"`
	IsPrivate     bool    `json:"is_private"`
	Description   *string `json:"description"`
	Status        string  `json:"status"`
}

// ListRepositories はユーザーがアクセスできるGitHubリポジトリ一覧を返す。
// GET /github/repositories?clerk_user_id=<id>
func (h *GithubHandler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	clerkUserID := r.URL.Query().Get("clerk_user_id")

	views, err := h.service.ListForUser(r.Context(), clerkUserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// AddRepository はGitHubリポジトリをインデックス対象として登録する。
// POST /repositories/add
func (h *GithubHandler) AddRepository(w http.ResponseWriter, r *http.Request) {
	var req addRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	repo, err := h.service.Add(r.Context(), req.ClerkUserID, req.GithubRepoID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, repositoryResponse{
		ID:            repo.ID,
		ClerkUserID:   repo.ClerkUserID,
		GithubID:      repo.GithubID,
		GithubURL:     repo.GithubURL,
		FullName:      repo.FullName,
		DefaultBranch: repo.DefaultBranch,
		IsPrivate:     repo.IsPrivate,
		Description:   repo.Description,
		Status:        string(repo.Status),
	})
}
