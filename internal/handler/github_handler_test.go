package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anirame128/monomind-api/internal/model"
	"github.com/anirame128/monomind-api/internal/repos"
)

// mockRepoService はRepoServiceInterfaceのモック実装。
type mockRepoService struct {
	listForUserFn func(ctx context.Context, clerkUserID string) ([]*repos.RepoView, error)
	addFn         func(ctx context.Context, clerkUserID string, githubRepoID int64) (*model.Repository, error)
}

func (m *mockRepoService) ListForUser(ctx context.Context, clerkUserID string) ([]*repos.RepoView, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, clerkUserID)
	}
	return nil, nil
}

func (m *mockRepoService) Add(ctx context.Context, clerkUserID string, githubRepoID int64) (*model.Repository, error) {
	if m.addFn != nil {
		return m.addFn(ctx, clerkUserID, githubRepoID)
	}
	return nil, nil
}

// --- GET /github/repositories テスト ---

func TestGithubHandler_ListRepositories(t *testing.T) {
	svc := &mockRepoService{
		listForUserFn: func(_ context.Context, clerkUserID string) ([]*repos.RepoView, error) {
			if clerkUserID != "u_1" {
				t.Errorf("clerkUserID = %q, want %q", clerkUserID, "u_1")
			}
			return []*repos.RepoView{
				{GithubID: 1, FullName: "octocat/alpha", Name: "alpha", DefaultBranch: "main", URL: "https://github.com/octocat/alpha", IsIndexed: true},
			}, nil
		},
	}

	h := NewGithubHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/github/repositories?clerk_user_id=u_1", nil)
	w := httptest.NewRecorder()

	h.ListRepositories(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("len(resp) = %d, want 1", len(resp))
	}
	if resp[0]["fullName"] != "octocat/alpha" {
		t.Errorf("fullName = %v", resp[0]["fullName"])
	}
	if resp[0]["isIndexed"] != true {
		t.Errorf("isIndexed = %v, want true", resp[0]["isIndexed"])
	}
}

func TestGithubHandler_ListRepositories_NotConnected(t *testing.T) {
	svc := &mockRepoService{
		listForUserFn: func(_ context.Context, _ string) ([]*repos.RepoView, error) {
			return nil, model.NewGithubNotConnectedError()
		},
	}

	h := NewGithubHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/github/repositories?clerk_user_id=u_1", nil)
	w := httptest.NewRecorder()

	h.ListRepositories(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	resp := parseAPIErrorResponse(t, w)
	if resp["code"] != model.ErrCodeGithubNotConnected {
		t.Errorf("code = %q, want %q", resp["code"], model.ErrCodeGithubNotConnected)
	}
}

// --- POST /repositories/add テスト ---

func TestGithubHandler_AddRepository(t *testing.T) {
	svc := &mockRepoService{
		addFn: func(_ context.Context, clerkUserID string, githubRepoID int64) (*model.Repository, error) {
			if clerkUserID != "u_1" || githubRepoID != 12345 {
				t.Errorf("(clerkUserID, githubRepoID) = (%q, %d)", clerkUserID, githubRepoID)
			}
			return &model.Repository{
				ID:            "r_1",
				ClerkUserID:   clerkUserID,
				GithubID:      githubRepoID,
				GithubURL:     "https://github.com/octocat/alpha",
				FullName:      "octocat/alpha",
				DefaultBranch: "main",
				Status:        model.RepositoryStatusPending,
			}, nil
		},
	}

	h := NewGithubHandler(svc)

	body := `{"clerk_user_id":"u_1","github_repo_id":12345}`
	req := httptest.NewRequest(http.MethodPost, "/repositories/add", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.AddRepository(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["full_name"] != "octocat/alpha" {
		t.Errorf("full_name = %v", resp["full_name"])
	}
	if resp["status"] != "PENDING" {
		t.Errorf("status = %v, want PENDING", resp["status"])
	}
}

func TestGithubHandler_AddRepository_NotFound(t *testing.T) {
	svc := &mockRepoService{
		addFn: func(_ context.Context, _ string, githubRepoID int64) (*model.Repository, error) {
			return nil, model.NewRepositoryNotFoundError(githubRepoID)
		},
	}

	h := NewGithubHandler(svc)

	body := `{"clerk_user_id":"u_1","github_repo_id":99999}`
	req := httptest.NewRequest(http.MethodPost, "/repositories/add", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.AddRepository(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGithubHandler_AddRepository_AlreadyRegistered(t *testing.T) {
	svc := &mockRepoService{
		addFn: func(_ context.Context, _ string, githubRepoID int64) (*model.Repository, error) {
			return nil, model.NewRepositoryAlreadyRegisteredError(githubRepoID)
		},
	}

	h := NewGithubHandler(svc)

	body := `{"clerk_user_id":"u_1","github_repo_id":12345}`
	req := httptest.NewRequest(http.MethodPost, "/repositories/add", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.AddRepository(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["code"] != model.ErrCodeRepositoryAlreadyRegistered {
		t.Errorf("code = %v, want %q", resp["code"], model.ErrCodeRepositoryAlreadyRegistered)
	}
}

func TestGithubHandler_AddRepository_InvalidBody(t *testing.T) {
	h := NewGithubHandler(&mockRepoService{})

	req := httptest.NewRequest(http.MethodPost, "/repositories/add", strings.NewReader("not json"))
	w := httptest.NewRecorder()

	h.AddRepository(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
