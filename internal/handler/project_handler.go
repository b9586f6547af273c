package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anirame128/monomind-api/internal/model"
)

// ProjectServiceInterface はプロジェクトハンドラーが必要とするサービスインターフェース。
type ProjectServiceInterface interface {
	// CreateProject はプロジェクトを作成し、プロジェクトスコープのキーを発行する。
	CreateProject(ctx context.Context, clerkUserID, name string, description *string) (*model.Project, error)
	// ListProjects はユーザーのプロジェクト一覧を返す。
	ListProjects(ctx context.Context, clerkUserID string) ([]*model.Project, error)
	// GetProject は指定IDのプロジェクトを返す。
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	// UpdateProject はプロジェクトの名前・説明を部分更新する。
	UpdateProject(ctx context.Context, projectID string, name *string, description *string) (*model.Project, error)
	// DeleteProject はプロジェクトを削除する。
	DeleteProject(ctx context.Context, projectID string) error
	// RotateProjectKey はプロジェクトのキーを新しい値で上書きする。
	RotateProjectKey(ctx context.Context, projectID string) (string, error)
}

// ProjectHandler はプロジェクト管理のHTTPハンドラー。
type ProjectHandler struct {
	service ProjectServiceInterface
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{
		service: service,
	}
}

// createProjectRequest はプロジェクト作成リクエストのボディ。
type createProjectRequest struct {
	ClerkUserID string  `json:"clerk_user_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// updateProjectRequest はプロジェクト更新リクエストのボディ。
// nilのフィールドは変更しない。
type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// projectResponse はプロジェクトのAPIレスポンス。
// APIKeyは作成・キー再生成時のレスポンスでのみ含める。
type projectResponse struct {
	ID          string    `json:"id"`
	ClerkUserID string    `json:"clerk_user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	APIKey      string    `json:"api_key,omitempty"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// toProjectResponse はmodel.ProjectからAPIレスポンスに変換する。
// includeKeyがfalseの場合は平文キーを含めない。
func toProjectResponse(project *model.Project, includeKey bool) projectResponse {
	resp := projectResponse{
		ID:          project.ID,
		ClerkUserID: project.ClerkUserID,
		Name:        project.Name,
		Description: project.Description,
		IsDefault:   project.IsDefault,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
	if includeKey {
		resp.APIKey = project.APIKey
	}
	return resp
}

// Create はプロジェクトを作成する。
// POST /projects
//
// 平文のプロジェクトキーはこのレスポンスでのみ返す。
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	project, err := h.service.CreateProject(r.Context(), req.ClerkUserID, req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(project, true))
}

// List はユーザーのプロジェクト一覧を返す。
// GET /projects/{clerk_user_id}
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	clerkUserID := chi.URLParam(r, "clerk_user_id")

	projects, err := h.service.ListProjects(r.Context(), clerkUserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, toProjectResponse(p, false))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Detail は指定IDのプロジェクトを返す。
// GET /projects/detail/{project_id}
func (h *ProjectHandler) Detail(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	project, err := h.service.GetProject(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(project, false))
}

// Update はプロジェクトの名前・説明を部分更新する。
// PATCH /projects/{project_id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	project, err := h.service.UpdateProject(r.Context(), projectID, req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(project, false))
}

// Delete はプロジェクトを削除する。
// DELETE /projects/{project_id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	if err := h.service.DeleteProject(r.Context(), projectID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// RegenerateKey はプロジェクトのキーを再生成する。旧キーは即座に無効となる。
// POST /projects/{project_id}/regenerate-key
func (h *ProjectHandler) RegenerateKey(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "project_id")

	newKey, err := h.service.RotateProjectKey(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"api_key": newKey})
}
