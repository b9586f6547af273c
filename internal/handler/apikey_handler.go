package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anirame128/monomind-api/internal/model"
)

// APIKeyServiceInterface はAPIキーハンドラーが必要とするサービスインターフェース。
type APIKeyServiceInterface interface {
	// IssueUserKey はユーザースコープのAPIキーを発行する。
	IssueUserKey(ctx context.Context, clerkUserID, name string) (*model.APIKey, error)
	// ListUserKeys はユーザーのAPIキーのメタデータ一覧を返す。
	ListUserKeys(ctx context.Context, clerkUserID string) ([]*model.APIKeyMetadata, error)
	// RevokeUserKey はキー値に一致するAPIキーを削除する（冪等）。
	RevokeUserKey(ctx context.Context, key string) error
}

// APIKeyHandler はユーザースコープAPIキー管理のHTTPハンドラー。
type APIKeyHandler struct {
	service APIKeyServiceInterface
}

// NewAPIKeyHandler はAPIKeyHandlerを生成する。
func NewAPIKeyHandler(service APIKeyServiceInterface) *APIKeyHandler {
	return &APIKeyHandler{
		service: service,
	}
}

// generateKeyRequest はAPIキー発行リクエストのボディ。
type generateKeyRequest struct {
	ClerkUserID string `json:"clerk_user_id"`
	Name        string `json:"name"`
}

// apiKeyMetadataResponse はAPIキー一覧のレスポンス項目。平文のキーは含めない。
type apiKeyMetadataResponse struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Generate はユーザースコープのAPIキーを発行する。
// POST /api-keys/generate
//
// 平文のキーはこのレスポンスでのみ返し、以降は復元できない。
func (h *APIKeyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	key, err := h.service.IssueUserKey(r.Context(), req.ClerkUserID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"api_key": key.Key})
}

// List はユーザーのAPIキーのメタデータ一覧を返す。
// GET /api-keys/{clerk_user_id}
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	clerkUserID := chi.URLParam(r, "clerk_user_id")

	keys, err := h.service.ListUserKeys(r.Context(), clerkUserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]apiKeyMetadataResponse, 0, len(keys))
	for _, k := range keys {
		resp = append(resp, apiKeyMetadataResponse{
			Name:      k.Name,
			CreatedAt: k.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Revoke はAPIキーを失効させる。存在しないキーでも成功を返す（冪等）。
// DELETE /api-keys/{key}
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.service.RevokeUserKey(r.Context(), key); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
