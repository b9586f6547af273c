package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/anirame128/monomind-api/internal/auth"
	"github.com/anirame128/monomind-api/internal/model"
)

// LinkServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type LinkServiceInterface interface {
	// BeginLink は連携フローを開始し、認可URLを返す。
	BeginLink(clerkUserID string) (string, error)
	// CompleteLink はOAuthコールバックを処理し、連携結果を返す。
	CompleteLink(ctx context.Context, state, code string) (*auth.LinkResult, error)
	// Status はユーザーのGitHub連携状態を返す。
	Status(ctx context.Context, clerkUserID string) (*auth.LinkStatus, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	// FrontendURL はOAuthフロー完了後のリダイレクト先。
	FrontendURL string
}

// AuthHandler はGitHub連携フローのHTTPハンドラー。
type AuthHandler struct {
	service LinkServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service LinkServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Begin はGitHub連携フローを開始し、GitHubの認可画面へリダイレクトする。
// GET /auth/github?user_id=<id>
func (h *AuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	clerkUserID := r.URL.Query().Get("user_id")

	location, err := h.service.BeginLink(clerkUserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, location, http.StatusTemporaryRedirect)
}

// Callback はGitHubからのOAuthコールバックを処理する。
// GET /auth/github/callback?code=<c>&state=<s>
//
// 結果はフロントエンドへのリダイレクトのクエリパラメータで伝える。
// 内部エラーの詳細はレスポンスに含めない。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result, err := h.service.CompleteLink(r.Context(), query.Get("state"), query.Get("code"))
	if err != nil {
		http.Redirect(w, r, h.redirectURL(url.Values{"error": {"auth_failed"}}), http.StatusTemporaryRedirect)
		return
	}

	switch result.Outcome {
	case auth.OutcomeLinked:
		http.Redirect(w, r, h.redirectURL(url.Values{"github_connected": {"true"}}), http.StatusTemporaryRedirect)
	case auth.OutcomeAlreadyLinked:
		http.Redirect(w, r, h.redirectURL(url.Values{
			"error":   {"github_already_linked"},
			"message": {result.Message},
		}), http.StatusTemporaryRedirect)
	default:
		http.Redirect(w, r, h.redirectURL(url.Values{"error": {"auth_failed"}}), http.StatusTemporaryRedirect)
	}
}

// GithubStatus はユーザーのGitHub連携状態を返す。
// GET /user/{id}/github-status
func (h *AuthHandler) GithubStatus(w http.ResponseWriter, r *http.Request) {
	clerkUserID := chi.URLParam(r, "id")
	if clerkUserID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("idが指定されていません"))
		return
	}

	status, err := h.service.Status(r.Context(), clerkUserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// redirectURL はフロントエンドURLにクエリパラメータを付与したURLを返す。
func (h *AuthHandler) redirectURL(params url.Values) string {
	return h.config.FrontendURL + "?" + params.Encode()
}
