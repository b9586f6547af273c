// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層から利用する。
type MetricsCollector interface {
	RecordWebhookEvent(eventType string)
	RecordUserProvisioned()
	RecordLinkAttempt(outcome string)
	RecordKeyIssued(scope string)
	RecordKeyRotated()
	RecordGithubAPIRequest(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	webhookEvents     *prometheus.CounterVec
	usersProvisioned  prometheus.Counter
	linkAttempts      *prometheus.CounterVec
	keysIssued        *prometheus.CounterVec
	keysRotated       prometheus.Counter
	githubAPIRequests *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monomind_webhook_events_total",
			Help: "受信したWebhookイベントのタイプ別合計数",
		}, []string{"type"}),
		usersProvisioned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monomind_users_provisioned_total",
			Help: "新規プロビジョニングされたユーザーの合計数",
		}),
		linkAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monomind_link_attempts_total",
			Help: "GitHub連携試行の結果別合計数",
		}, []string{"outcome"}),
		keysIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monomind_api_keys_issued_total",
			Help: "発行したAPIキーのスコープ別合計数",
		}, []string{"scope"}),
		keysRotated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monomind_project_keys_rotated_total",
			Help: "ローテーションされたプロジェクトキーの合計数",
		}),
		githubAPIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monomind_github_api_requests_total",
			Help: "GitHub API呼び出しのHTTPステータス別合計数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.webhookEvents,
		c.usersProvisioned,
		c.linkAttempts,
		c.keysIssued,
		c.keysRotated,
		c.githubAPIRequests,
	)

	return c
}

// knownWebhookEventTypes はtypeラベルとして記録するClerkイベントタイプ。
// イベントタイプは外部入力のため、これ以外は "other" に正規化して
// ラベルの組み合わせが無制限に増えないようにする。
var knownWebhookEventTypes = map[string]bool{
	"user.created": true,
	"user.updated": true,
	"user.deleted": true,
}

// RecordWebhookEvent はWebhookイベントの受信を記録する。
func (c *Collector) RecordWebhookEvent(eventType string) {
	if !knownWebhookEventTypes[eventType] {
		eventType = "other"
	}
	c.webhookEvents.WithLabelValues(eventType).Inc()
}

// RecordUserProvisioned は新規ユーザーのプロビジョニングを記録する。
func (c *Collector) RecordUserProvisioned() {
	c.usersProvisioned.Inc()
}

// RecordLinkAttempt はGitHub連携試行の結果を記録する。
// outcomeは linked / already_linked / auth_failed のいずれか。
func (c *Collector) RecordLinkAttempt(outcome string) {
	c.linkAttempts.WithLabelValues(outcome).Inc()
}

// RecordKeyIssued はAPIキーの発行を記録する。
// scopeは user / project のいずれか。
func (c *Collector) RecordKeyIssued(scope string) {
	c.keysIssued.WithLabelValues(scope).Inc()
}

// RecordKeyRotated はプロジェクトキーのローテーションを記録する。
func (c *Collector) RecordKeyRotated() {
	c.keysRotated.Inc()
}

// RecordGithubAPIRequest はGitHub API呼び出しのHTTPステータスを記録する。
func (c *Collector) RecordGithubAPIRequest(statusCode int) {
	c.githubAPIRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// NopCollector は何も記録しないMetricsCollectorの実装。テスト用。
type NopCollector struct{}

func (NopCollector) RecordWebhookEvent(string)  {}
func (NopCollector) RecordUserProvisioned()     {}
func (NopCollector) RecordLinkAttempt(string)   {}
func (NopCollector) RecordKeyIssued(string)     {}
func (NopCollector) RecordKeyRotated()          {}
func (NopCollector) RecordGithubAPIRequest(int) {}

// compile-time interface checks
var _ MetricsCollector = (*Collector)(nil)
var _ MetricsCollector = NopCollector{}
