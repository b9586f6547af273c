package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGithubAuthURL  = "https://github.com/login/oauth/authorize"
	defaultGithubTokenURL = "https://github.com/login/oauth/access_token"
	defaultGithubUserURL  = "https://api.github.com/user"

	// oauthScopes はリポジトリ読み取りとWebhook作成に必要なスコープ。
	oauthScopes = "repo,write:repo_hook"

	// defaultOAuthTimeout は外部OAuthエンドポイント呼び出しの上限時間。
	// リクエストコンテキストにデッドラインがない場合でも、トークン交換の
	// ハングがハンドラーを無期限にブロックすることを防ぐ。
	defaultOAuthTimeout = 10 * time.Second
)

// GithubOAuthConfig はGitHub OAuthプロバイダーの設定。
type GithubOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// HTTPClient はトークン交換・ユーザー取得に使うクライアント。
	// nilの場合はデフォルトタイムアウト付きのクライアントを使用する。
	HTTPClient *http.Client

	// テスト用にオーバーライド可能なURL
	AuthURL  string
	TokenURL string
	UserURL  string
}

// GithubOAuthProvider はGitHub OAuth 2.0による認可コードフローを提供する。
type GithubOAuthProvider struct {
	config GithubOAuthConfig
	client *http.Client
}

// NewGithubOAuthProvider はGithubOAuthProviderを生成する。
func NewGithubOAuthProvider(config GithubOAuthConfig) *GithubOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGithubAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGithubTokenURL
	}
	if config.UserURL == "" {
		config.UserURL = defaultGithubUserURL
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultOAuthTimeout}
	}
	return &GithubOAuthProvider{
		config: config,
		client: client,
	}
}

// AuthorizeURL はGitHub OAuthの認可URLを生成する。
// prompt=select_accountにより、ブラウザに既存セッションがあっても
// 毎回アカウント選択画面を表示させる。
func (p *GithubOAuthProvider) AuthorizeURL(state string) string {
	params := url.Values{
		"client_id":    {p.config.ClientID},
		"redirect_uri": {p.config.RedirectURL},
		"scope":        {oauthScopes},
		"state":        {state},
		"prompt":       {"select_account"},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// githubTokenResponse はGitHubのトークンエンドポイントのレスポンス。
type githubTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// GithubUser はGitHubのユーザーエンドポイントのレスポンス。
type GithubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// ExchangeCode は認可コードをアクセストークンに交換する。
// GitHubはコード不正でもHTTP 200でエラーを返すため、
// レスポンスボディのerrorフィールドも検査する。
func (p *GithubOAuthProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp githubTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.Error != "" {
		return "", fmt.Errorf("token exchange rejected: %s: %s", tokenResp.Error, tokenResp.ErrorDesc)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}

	return tokenResp.AccessToken, nil
}

// FetchUser はアクセストークンでGitHubのユーザー情報を取得する。
func (p *GithubOAuthProvider) FetchUser(ctx context.Context, accessToken string) (*GithubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var user GithubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}

	if user.ID == 0 {
		return nil, fmt.Errorf("empty user ID in response")
	}

	return &user, nil
}

// compile-time interface check
var _ OAuthProvider = (*GithubOAuthProvider)(nil)
