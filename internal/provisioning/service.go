// Package provisioning はIDプロバイダーのWebhookイベントからの
// ユーザープロビジョニングを提供する。
package provisioning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/anirame128/monomind-api/internal/metrics"
	"github.com/anirame128/monomind-api/internal/model"
	"github.com/anirame128/monomind-api/internal/repository"
	"github.com/anirame128/monomind-api/internal/security"
)

const (
	// EventTypeUserCreated はユーザー作成イベントのタイプ。
	// これ以外のイベントタイプは無視される。
	EventTypeUserCreated = "user.created"

	// DefaultProjectName は初回プロビジョニング時に自動作成される
	// プロジェクトの名前。
	DefaultProjectName = "Default Project"
	// DefaultProjectDescription はデフォルトプロジェクトの説明。
	DefaultProjectDescription = "アカウント作成時に自動生成されたプロジェクト"
)

// Event はIDプロバイダー（Clerk）のユーザーライフサイクルイベントを表す。
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData はイベントのペイロード。
type EventData struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
}

// EmailAddress は検証済みメールアドレスのエントリ。
type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// Service はWebhookイベントからのユーザープロビジョニングを提供する。
type Service struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	tokens   security.TokenGenerator
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	projects repository.ProjectRepository,
	tokens security.TokenGenerator,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		users:    users,
		projects: projects,
		tokens:   tokens,
		metrics:  collector,
	}
}

// ProvisionFromEvent はユーザーライフサイクルイベントを処理する。
// user.created以外のイベントタイプは無視して成功を返す。
// ユーザーはclerk_user_idをキーにUPSERTされ、イベントのemailを
// 信頼できる情報源として既存行のemailも上書きする。
// 初回プロビジョニング時にはデフォルトプロジェクトを作成する。
// イベントの再配送（at-least-once配送）に対して冪等:
// 条件付きINSERTによりデフォルトプロジェクトが重複することはない。
func (s *Service) ProvisionFromEvent(ctx context.Context, event *Event) error {
	s.metrics.RecordWebhookEvent(event.Type)

	if event.Type != EventTypeUserCreated {
		slog.Info("ignoring webhook event",
			slog.String("type", event.Type),
		)
		return nil
	}

	if event.Data.ID == "" {
		return model.NewValidationError("イベントにユーザーIDが含まれていません")
	}
	if len(event.Data.EmailAddresses) == 0 || event.Data.EmailAddresses[0].EmailAddress == "" {
		return model.NewValidationError("イベントにメールアドレスが含まれていません")
	}

	email := event.Data.EmailAddresses[0].EmailAddress

	inserted, err := s.users.Upsert(ctx, event.Data.ID, email)
	if err != nil {
		return fmt.Errorf("failed to provision user: %w", err)
	}

	if inserted {
		s.metrics.RecordUserProvisioned()
		slog.Info("user provisioned",
			slog.String("clerk_user_id", event.Data.ID),
		)
	}

	// デフォルトプロジェクトはUPSERTの結果に関わらず条件付きINSERTで
	// 作成を試みる。OAuthコールバック側が先にユーザー行を作成していた
	// 場合（inserted = false）でもデフォルトプロジェクトは必要になるため。
	key, err := s.tokens.Generate(security.TokenPrefixProjectKey)
	if err != nil {
		return fmt.Errorf("failed to generate default project key: %w", err)
	}

	desc := DefaultProjectDescription
	created, err := s.projects.CreateDefaultIfAbsent(ctx, &model.Project{
		ID:          uuid.New().String(),
		ClerkUserID: event.Data.ID,
		Name:        DefaultProjectName,
		Description: &desc,
		APIKey:      key,
		IsDefault:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to create default project: %w", err)
	}

	if created {
		s.metrics.RecordKeyIssued("project")
		slog.Info("default project created",
			slog.String("clerk_user_id", event.Data.ID),
		)
	}

	return nil
}
