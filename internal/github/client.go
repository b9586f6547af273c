// Package github はGitHub REST APIのクライアントを提供する。
// リポジトリ一覧取得と個別リポジトリ参照を含む。
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/anirame128/monomind-api/internal/metrics"
	"github.com/anirame128/monomind-api/internal/model"
)

const (
	// defaultBaseURL はGitHub REST APIのベースURL。
	defaultBaseURL = "https://api.github.com"
	// reposPerPage は1リクエストあたりの最大取得件数。
	reposPerPage = 100

	acceptHeader = "application/vnd.github.v3+json"
)

// Repo はGitHub APIが返すリポジトリを表す。
type Repo struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	FullName      string  `json:"full_name"`
	Private       bool    `json:"private"`
	Description   *string `json:"description"`
	DefaultBranch string  `json:"default_branch"`
	HTMLURL       string  `json:"html_url"`
}

// APIClient はGitHub APIクライアントのインターフェース。
type APIClient interface {
	// ListUserRepos はトークン所有者がアクセスできるリポジトリ一覧を取得する。
	ListUserRepos(ctx context.Context, accessToken string) ([]*Repo, error)
	// GetRepoByID はリポジトリIDで個別リポジトリを取得する。
	// 見つからない場合はnilを返す。
	GetRepoByID(ctx context.Context, accessToken string, repoID int64) (*Repo, error)
}

// Client はGitHub REST APIのクライアント。
// レートリミッターで呼び出し頻度を抑え、APIのレート制限超過を避ける。
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    metrics.MetricsCollector
	baseURL    string // テスト用にベースURLを差し替え可能
}

// NewClient はClientを生成する。requestsPerSecondは秒間リクエスト数の上限。
func NewClient(httpClient *http.Client, requestsPerSecond float64, collector metrics.MetricsCollector) *Client {
	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		metrics:    collector,
		baseURL:    defaultBaseURL,
	}
}

// ListUserRepos はトークン所有者がアクセスできるリポジトリ一覧を取得する。
// 所有・コラボレーター・組織メンバーのリポジトリを更新日時順で返す。
func (c *Client) ListUserRepos(ctx context.Context, accessToken string) ([]*Repo, error) {
	path := fmt.Sprintf("/user/repos?per_page=%d&sort=updated&affiliation=owner,collaborator,organization_member", reposPerPage)

	body, status, err := c.get(ctx, path, accessToken)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, model.NewUpstreamUnavailableError(fmt.Sprintf("status %d", status))
	}

	var repos []*Repo
	if err := json.Unmarshal(body, &repos); err != nil {
		return nil, fmt.Errorf("failed to parse repos response: %w", err)
	}

	return repos, nil
}

// GetRepoByID はリポジトリIDで個別リポジトリを取得する。
// 404の場合はエラーではなくnilを返す。
func (c *Client) GetRepoByID(ctx context.Context, accessToken string, repoID int64) (*Repo, error) {
	path := fmt.Sprintf("/repositories/%d", repoID)

	body, status, err := c.get(ctx, path, accessToken)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, model.NewUpstreamUnavailableError(fmt.Sprintf("status %d", status))
	}

	var repo Repo
	if err := json.Unmarshal(body, &repo); err != nil {
		return nil, fmt.Errorf("failed to parse repo response: %w", err)
	}

	return &repo, nil
}

// get はレートリミッターを通してGitHub APIにGETリクエストを送る。
func (c *Client) get(ctx context.Context, path, accessToken string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("github api request failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, 0, model.NewUpstreamUnavailableError(err.Error())
	}
	defer resp.Body.Close()

	c.metrics.RecordGithubAPIRequest(resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		slog.Error("github api returned error status",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
	}

	return body, resp.StatusCode, nil
}

// compile-time interface check
var _ APIClient = (*Client)(nil)
