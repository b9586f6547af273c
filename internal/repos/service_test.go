package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/anirame128/monomind-api/internal/github"
	"github.com/anirame128/monomind-api/internal/model"
	"github.com/anirame128/monomind-api/internal/repository"
	"github.com/anirame128/monomind-api/internal/security"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByClerkFn func(ctx context.Context, clerkUserID string) (*model.User, error)
}

func (m *mockUserRepo) Upsert(ctx context.Context, clerkUserID, email string) (bool, error) {
	return false, nil
}

func (m *mockUserRepo) EnsureExists(ctx context.Context, clerkUserID, placeholderEmail string) error {
	return nil
}

func (m *mockUserRepo) FindByClerkID(ctx context.Context, clerkUserID string) (*model.User, error) {
	if m.findByClerkFn != nil {
		return m.findByClerkFn(ctx, clerkUserID)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByGithubID(ctx context.Context, githubID int64) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) UpsertLink(ctx context.Context, clerkUserID, placeholderEmail string, githubID int64, githubUsername, encryptedToken string) error {
	return nil
}

type mockRepoRepo struct {
	createFn     func(ctx context.Context, repo *model.Repository) error
	listByUserFn func(ctx context.Context, clerkUserID string) ([]*model.Repository, error)
}

func (m *mockRepoRepo) Create(ctx context.Context, repo *model.Repository) error {
	if m.createFn != nil {
		return m.createFn(ctx, repo)
	}
	return nil
}

func (m *mockRepoRepo) ListByUser(ctx context.Context, clerkUserID string) ([]*model.Repository, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, clerkUserID)
	}
	return nil, nil
}

type mockAPIClient struct {
	listUserReposFn func(ctx context.Context, accessToken string) ([]*github.Repo, error)
	getRepoByIDFn   func(ctx context.Context, accessToken string, repoID int64) (*github.Repo, error)
}

func (m *mockAPIClient) ListUserRepos(ctx context.Context, accessToken string) ([]*github.Repo, error) {
	if m.listUserReposFn != nil {
		return m.listUserReposFn(ctx, accessToken)
	}
	return nil, nil
}

func (m *mockAPIClient) GetRepoByID(ctx context.Context, accessToken string, repoID int64) (*github.Repo, error) {
	if m.getRepoByIDFn != nil {
		return m.getRepoByIDFn(ctx, accessToken, repoID)
	}
	return nil, nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.RepoRepository = (*mockRepoRepo)(nil)
var _ github.APIClient = (*mockAPIClient)(nil)

// linkedUserRepo は復号可能な暗号化トークンを持つ連携済みユーザーを返す。
func linkedUserRepo(t *testing.T, cipher *security.Cipher, plaintextToken string) *mockUserRepo {
	t.Helper()
	encrypted, err := cipher.Encrypt(plaintextToken)
	if err != nil {
		t.Fatalf("failed to encrypt token: %v", err)
	}
	githubID := int64(777)
	return &mockUserRepo{
		findByClerkFn: func(_ context.Context, clerkUserID string) (*model.User, error) {
			return &model.User{
				ClerkUserID:       clerkUserID,
				GithubID:          &githubID,
				GithubAccessToken: &encrypted,
			}, nil
		},
	}
}

func newTestCipher(t *testing.T) *security.Cipher {
	t.Helper()
	cipher, err := security.NewCipher(make([]byte, 32))
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}
	return cipher
}

// --- テスト ---

func TestListForUser(t *testing.T) {
	cipher := newTestCipher(t)
	users := linkedUserRepo(t, cipher, "gho_abc")

	var receivedToken string
	client := &mockAPIClient{
		listUserReposFn: func(_ context.Context, accessToken string) ([]*github.Repo, error) {
			receivedToken = accessToken
			return []*github.Repo{
				{ID: 1, Name: "alpha", FullName: "octocat/alpha", DefaultBranch: "main", HTMLURL: "https://github.com/octocat/alpha"},
				{ID: 2, Name: "beta", FullName: "octocat/beta", Private: true, DefaultBranch: "main", HTMLURL: "https://github.com/octocat/beta"},
			}, nil
		},
	}
	repos := &mockRepoRepo{
		listByUserFn: func(_ context.Context, _ string) ([]*model.Repository, error) {
			return []*model.Repository{{GithubID: 2}}, nil
		},
	}

	svc := NewService(users, repos, client, cipher)

	views, err := svc.ListForUser(context.Background(), "u_1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}

	// GitHub APIには復号済みのトークンが渡ること
	if receivedToken != "gho_abc" {
		t.Errorf("access token = %q, want %q", receivedToken, "gho_abc")
	}

	if len(views) != 2 {
		t.Fatalf("len(views) = %d, want 2", len(views))
	}
	if views[0].IsIndexed {
		t.Error("views[0] should not be indexed")
	}
	if !views[1].IsIndexed {
		t.Error("views[1] should be indexed")
	}
	if views[0].FullName != "octocat/alpha" || views[0].URL != "https://github.com/octocat/alpha" {
		t.Errorf("views[0] = %+v", views[0])
	}
}

func TestListForUser_NotConnected(t *testing.T) {
	tests := []struct {
		name string
		user *model.User
	}{
		{"unknown user", nil},
		{"user without token", &model.User{ClerkUserID: "u_1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockUserRepo{
				findByClerkFn: func(_ context.Context, _ string) (*model.User, error) {
					return tt.user, nil
				},
			}

			svc := NewService(users, &mockRepoRepo{}, &mockAPIClient{}, newTestCipher(t))

			_, err := svc.ListForUser(context.Background(), "u_1")

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *model.APIError", err)
			}
			if apiErr.Code != model.ErrCodeGithubNotConnected {
				t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeGithubNotConnected)
			}
		})
	}
}

func TestAdd(t *testing.T) {
	cipher := newTestCipher(t)
	users := linkedUserRepo(t, cipher, "gho_abc")

	desc := "sample"
	client := &mockAPIClient{
		getRepoByIDFn: func(_ context.Context, _ string, repoID int64) (*github.Repo, error) {
			return &github.Repo{
				ID:            repoID,
				Name:          "alpha",
				FullName:      "octocat/alpha",
				Private:       true,
				Description:   &desc,
				DefaultBranch: "main",
				HTMLURL:       "https://github.com/octocat/alpha",
			}, nil
		},
	}

	var saved *model.Repository
	repos := &mockRepoRepo{
		createFn: func(_ context.Context, repo *model.Repository) error {
			saved = repo
			return nil
		},
	}

	svc := NewService(users, repos, client, cipher)

	repo, err := svc.Add(context.Background(), "u_1", 12345)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if repo.GithubID != 12345 || repo.FullName != "octocat/alpha" {
		t.Errorf("repo = %+v", repo)
	}
	if repo.Status != model.RepositoryStatusPending {
		t.Errorf("status = %q, want %q", repo.Status, model.RepositoryStatusPending)
	}
	if !repo.IsPrivate {
		t.Error("repo should be private")
	}
	if saved == nil || saved.ID != repo.ID {
		t.Error("registered repository should be persisted")
	}
}

func TestAdd_RepoNotFound(t *testing.T) {
	cipher := newTestCipher(t)
	users := linkedUserRepo(t, cipher, "gho_abc")

	client := &mockAPIClient{
		getRepoByIDFn: func(_ context.Context, _ string, _ int64) (*github.Repo, error) {
			return nil, nil
		},
	}

	svc := NewService(users, &mockRepoRepo{}, client, cipher)

	_, err := svc.Add(context.Background(), "u_1", 99999)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeRepositoryNotFound {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeRepositoryNotFound)
	}
}

func TestAdd_AlreadyRegistered(t *testing.T) {
	cipher := newTestCipher(t)
	users := linkedUserRepo(t, cipher, "gho_abc")

	client := &mockAPIClient{
		getRepoByIDFn: func(_ context.Context, _ string, repoID int64) (*github.Repo, error) {
			return &github.Repo{
				ID:            repoID,
				Name:          "alpha",
				FullName:      "octocat/alpha",
				DefaultBranch: "main",
				HTMLURL:       "https://github.com/octocat/alpha",
			}, nil
		},
	}

	repos := &mockRepoRepo{
		createFn: func(_ context.Context, _ *model.Repository) error {
			return repository.ErrDuplicateRepository
		},
	}

	svc := NewService(users, repos, client, cipher)

	_, err := svc.Add(context.Background(), "u_1", 12345)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeRepositoryAlreadyRegistered {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeRepositoryAlreadyRegistered)
	}
}

func TestAdd_NotConnected(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockRepoRepo{}, &mockAPIClient{}, newTestCipher(t))

	_, err := svc.Add(context.Background(), "u_1", 12345)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeGithubNotConnected {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeGithubNotConnected)
	}
}
