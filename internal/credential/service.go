// Package credential はユーザー・プロジェクト両スコープのAPIキーの
// ライフサイクル（発行・一覧・ローテーション・失効）を提供する。
package credential

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/anirame128/monomind-api/internal/auth"
	"github.com/anirame128/monomind-api/internal/metrics"
	"github.com/anirame128/monomind-api/internal/model"
	"github.com/anirame128/monomind-api/internal/repository"
	"github.com/anirame128/monomind-api/internal/security"
)

// Service はクレデンシャル管理のビジネスロジックを提供する。
type Service struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	apiKeys  repository.APIKeyRepository
	tokens   security.TokenGenerator
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	projects repository.ProjectRepository,
	apiKeys repository.APIKeyRepository,
	tokens security.TokenGenerator,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		users:    users,
		projects: projects,
		apiKeys:  apiKeys,
		tokens:   tokens,
		metrics:  collector,
	}
}

// IssueUserKey はユーザースコープのAPIキーを発行する。
// 平文のキーはこの戻り値でのみ得られ、以降はメタデータのみ参照可能。
func (s *Service) IssueUserKey(ctx context.Context, clerkUserID, name string) (*model.APIKey, error) {
	if clerkUserID == "" {
		return nil, model.NewValidationError("clerk_user_idが指定されていません")
	}
	if name == "" {
		return nil, model.NewValidationError("nameが指定されていません")
	}

	key, err := s.tokens.Generate(security.TokenPrefixUserKey)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user key: %w", err)
	}

	apiKey := &model.APIKey{
		Key:         key,
		ClerkUserID: clerkUserID,
		Name:        name,
	}
	if err := s.apiKeys.Create(ctx, apiKey); err != nil {
		return nil, fmt.Errorf("failed to save api key: %w", err)
	}

	s.metrics.RecordKeyIssued("user")
	slog.Info("api key issued",
		slog.String("clerk_user_id", clerkUserID),
		slog.String("name", name),
	)

	return apiKey, nil
}

// ListUserKeys はユーザーのAPIキーのメタデータ一覧を返す。
// 平文のキーは発行時以外に復元できないため含めない。
func (s *Service) ListUserKeys(ctx context.Context, clerkUserID string) ([]*model.APIKeyMetadata, error) {
	if clerkUserID == "" {
		return nil, model.NewValidationError("clerk_user_idが指定されていません")
	}

	keys, err := s.apiKeys.ListByUser(ctx, clerkUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}

	metadata := make([]*model.APIKeyMetadata, 0, len(keys))
	for _, k := range keys {
		metadata = append(metadata, &model.APIKeyMetadata{
			Name:      k.Name,
			CreatedAt: k.CreatedAt,
		})
	}
	return metadata, nil
}

// RevokeUserKey はキー値に一致するAPIキーを削除する。
// 存在しないキーの削除は成功として扱う（冪等）。
func (s *Service) RevokeUserKey(ctx context.Context, key string) error {
	if key == "" {
		return model.NewValidationError("keyが指定されていません")
	}

	if err := s.apiKeys.DeleteByKey(ctx, key); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	return nil
}

// CreateProject はプロジェクトを作成し、プロジェクトスコープのキーを発行する。
// プロビジョニングWebhookが未到着でも作成できるよう、ユーザー行が
// 存在しない場合は仮メールアドレスで先に作成する。
func (s *Service) CreateProject(ctx context.Context, clerkUserID, name string, description *string) (*model.Project, error) {
	if clerkUserID == "" {
		return nil, model.NewValidationError("clerk_user_idが指定されていません")
	}
	if name == "" {
		return nil, model.NewValidationError("nameが指定されていません")
	}

	if err := s.users.EnsureExists(ctx, clerkUserID, auth.PlaceholderEmail(clerkUserID)); err != nil {
		return nil, fmt.Errorf("failed to ensure user exists: %w", err)
	}

	key, err := s.tokens.Generate(security.TokenPrefixProjectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to generate project key: %w", err)
	}

	project := &model.Project{
		ID:          uuid.New().String(),
		ClerkUserID: clerkUserID,
		Name:        name,
		Description: description,
		APIKey:      key,
		IsDefault:   false,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.metrics.RecordKeyIssued("project")
	slog.Info("project created",
		slog.String("clerk_user_id", clerkUserID),
		slog.String("project_id", project.ID),
	)

	return project, nil
}

// ListProjects はユーザーのプロジェクト一覧を返す。
func (s *Service) ListProjects(ctx context.Context, clerkUserID string) ([]*model.Project, error) {
	if clerkUserID == "" {
		return nil, model.NewValidationError("clerk_user_idが指定されていません")
	}

	projects, err := s.projects.ListByUser(ctx, clerkUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject は指定IDのプロジェクトを返す。
func (s *Service) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}
	return project, nil
}

// UpdateProject はプロジェクトの名前・説明を部分更新する。
// nilのフィールドは変更しない。
func (s *Service) UpdateProject(ctx context.Context, projectID string, name *string, description *string) (*model.Project, error) {
	if name == nil && description == nil {
		return nil, model.NewValidationError("更新するフィールドが指定されていません")
	}
	if name != nil && *name == "" {
		return nil, model.NewValidationError("nameを空にすることはできません")
	}

	project, err := s.projects.Update(ctx, projectID, name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}
	return project, nil
}

// DeleteProject はプロジェクトを削除する。キーも同時に無効となる。
// ユーザーデータには影響しない。
func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	deleted, err := s.projects.Delete(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if !deleted {
		return model.NewProjectNotFoundError(projectID)
	}

	slog.Info("project deleted", slog.String("project_id", projectID))
	return nil
}

// RotateProjectKey はプロジェクトのキーを新しい値で上書きする。
// 旧キーは書き込みと同時に無効となり、猶予期間はない。
func (s *Service) RotateProjectKey(ctx context.Context, projectID string) (string, error) {
	newKey, err := s.tokens.Generate(security.TokenPrefixProjectKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate project key: %w", err)
	}

	updated, err := s.projects.UpdateKey(ctx, projectID, newKey)
	if err != nil {
		return "", fmt.Errorf("failed to rotate project key: %w", err)
	}
	if !updated {
		return "", model.NewProjectNotFoundError(projectID)
	}

	s.metrics.RecordKeyRotated()
	slog.Info("project key rotated", slog.String("project_id", projectID))

	return newKey, nil
}
