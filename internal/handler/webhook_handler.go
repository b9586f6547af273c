package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/anirame128/monomind-api/internal/provisioning"
)

// ProvisioningServiceInterface はWebhookハンドラーが必要とするサービスインターフェース。
type ProvisioningServiceInterface interface {
	// ProvisionFromEvent はユーザーライフサイクルイベントを処理する。
	ProvisionFromEvent(ctx context.Context, event *provisioning.Event) error
}

// WebhookHandler はIDプロバイダーからのWebhookを受け付けるHTTPハンドラー。
type WebhookHandler struct {
	service ProvisioningServiceInterface
}

// NewWebhookHandler はWebhookHandlerを生成する。
func NewWebhookHandler(service ProvisioningServiceInterface) *WebhookHandler {
	return &WebhookHandler{
		service: service,
	}
}

// HandleClerkWebhook はClerkのユーザーライフサイクルイベントを処理する。
// POST /webhooks/clerk
//
// IDプロバイダー側に失敗時の有効なリトライ・修復手段がないため、
// 内部エラーはログに記録した上で常に200を返す。
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	var event provisioning.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		slog.Error("failed to decode webhook payload", slog.String("error", err.Error()))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	if err := h.service.ProvisionFromEvent(r.Context(), &event); err != nil {
		slog.Error("webhook provisioning failed",
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
