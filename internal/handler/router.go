package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/anirame128/monomind-api/internal/metrics"
	"github.com/anirame128/monomind-api/internal/middleware"
)

// HealthChecker はヘルスチェックが依存するインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	Ping() error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	HealthChecker     HealthChecker
	CORSAllowedOrigin string
	MetricsGatherer   prometheus.Gatherer

	ProvisioningService ProvisioningServiceInterface
	LinkService         LinkServiceInterface
	AuthConfig          AuthHandlerConfig
	APIKeyService       APIKeyServiceInterface
	ProjectService      ProjectServiceInterface
	RepoService         RepoServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成した
// chi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware → CORSMiddleware
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	webhookHandler := NewWebhookHandler(deps.ProvisioningService)
	authHandler := NewAuthHandler(deps.LinkService, deps.AuthConfig)
	apiKeyHandler := NewAPIKeyHandler(deps.APIKeyService)
	projectHandler := NewProjectHandler(deps.ProjectService)
	githubHandler := NewGithubHandler(deps.RepoService)

	// 死活確認
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if err := deps.HealthChecker.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	if deps.MetricsGatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.MetricsGatherer).ServeHTTP)
	}

	// IDプロバイダーWebhook
	r.Post("/webhooks/clerk", webhookHandler.HandleClerkWebhook)

	// GitHub連携フロー
	r.Route("/auth/github", func(r chi.Router) {
		r.Get("/", authHandler.Begin)
		r.Get("/callback", authHandler.Callback)
	})
	r.Get("/user/{id}/github-status", authHandler.GithubStatus)

	// GitHubリポジトリ
	r.Get("/github/repositories", githubHandler.ListRepositories)
	r.Post("/repositories/add", githubHandler.AddRepository)

	// ユーザースコープAPIキー
	r.Route("/api-keys", func(r chi.Router) {
		r.Post("/generate", apiKeyHandler.Generate)
		r.Get("/{clerk_user_id}", apiKeyHandler.List)
		r.Delete("/{key}", apiKeyHandler.Revoke)
	})

	// プロジェクト
	r.Route("/projects", func(r chi.Router) {
		r.Post("/", projectHandler.Create)
		r.Get("/{clerk_user_id}", projectHandler.List)
		r.Get("/detail/{project_id}", projectHandler.Detail)
		r.Patch("/{project_id}", projectHandler.Update)
		r.Delete("/{project_id}", projectHandler.Delete)
		r.Post("/{project_id}/regenerate-key", projectHandler.RegenerateKey)
	})

	return r
}
