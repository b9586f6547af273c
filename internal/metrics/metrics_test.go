package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// counterValue はGatherの結果から指定メトリクスのカウンタ値を取り出す。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	var total float64
	found := false
	for _, mf := range metrics {
		if mf.GetName() == name {
			found = true
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
		}
	}
	if !found {
		t.Fatalf("%s metric not found", name)
	}
	return total
}

// TestRecordWebhookEvent_IncrementsCounter はWebhookイベントカウンタが増加することを検証する。
func TestRecordWebhookEvent_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordWebhookEvent("user.created")
	c.RecordWebhookEvent("user.created")
	c.RecordWebhookEvent("user.updated")

	if got := counterValue(t, reg, "monomind_webhook_events_total"); got != 3 {
		t.Errorf("webhook_events_total = %v, want 3", got)
	}
}

// TestRecordWebhookEvent_NormalizesUnknownTypes は未知のイベントタイプが
// "other" ラベルに集約され、ラベルの組み合わせが増殖しないことを検証する。
func TestRecordWebhookEvent_NormalizesUnknownTypes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordWebhookEvent("user.created")
	c.RecordWebhookEvent("session.created")
	c.RecordWebhookEvent("totally-made-up-type")
	c.RecordWebhookEvent(strings.Repeat("x", 1024))

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	byType := map[string]float64{}
	for _, mf := range metrics {
		if mf.GetName() != "monomind_webhook_events_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "type" {
					byType[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}

	if got := byType["user.created"]; got != 1 {
		t.Errorf("type=user.created = %v, want 1", got)
	}
	if got := byType["other"]; got != 3 {
		t.Errorf("type=other = %v, want 3", got)
	}
	if len(byType) != 2 {
		t.Errorf("label values = %v, want only user.created and other", byType)
	}
}

// TestRecordLinkAttempt_TracksOutcomes は連携試行カウンタが結果別に増加することを検証する。
func TestRecordLinkAttempt_TracksOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLinkAttempt("linked")
	c.RecordLinkAttempt("already_linked")
	c.RecordLinkAttempt("auth_failed")

	if got := counterValue(t, reg, "monomind_link_attempts_total"); got != 3 {
		t.Errorf("link_attempts_total = %v, want 3", got)
	}
}

// TestRecordKeyIssued_TracksScopes はAPIキー発行カウンタがスコープ別に増加することを検証する。
func TestRecordKeyIssued_TracksScopes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordKeyIssued("user")
	c.RecordKeyIssued("project")
	c.RecordKeyRotated()

	if got := counterValue(t, reg, "monomind_api_keys_issued_total"); got != 2 {
		t.Errorf("api_keys_issued_total = %v, want 2", got)
	}
	if got := counterValue(t, reg, "monomind_project_keys_rotated_total"); got != 1 {
		t.Errorf("project_keys_rotated_total = %v, want 1", got)
	}
}

// TestRecordGithubAPIRequest_TracksStatusCodes はGitHub API呼び出しカウンタが
// ステータスコード別に増加することを検証する。
func TestRecordGithubAPIRequest_TracksStatusCodes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGithubAPIRequest(200)
	c.RecordGithubAPIRequest(200)
	c.RecordGithubAPIRequest(502)

	if got := counterValue(t, reg, "monomind_github_api_requests_total"); got != 3 {
		t.Errorf("github_api_requests_total = %v, want 3", got)
	}
}

// TestSetupMetricsRoute_ServesMetrics は/metricsパスでメトリクスが返ることを検証する。
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordUserProvisioned()

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "monomind_users_provisioned_total") {
		t.Error("response should contain monomind_users_provisioned_total metric")
	}
}
