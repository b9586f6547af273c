// Package auth はGitHub OAuthによる外部ID連携フローを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anirame128/monomind-api/internal/metrics"
	"github.com/anirame128/monomind-api/internal/model"
	"github.com/anirame128/monomind-api/internal/repository"
	"github.com/anirame128/monomind-api/internal/security"
)

// placeholderEmailDomain はOAuthコールバックが先行してユーザー行を
// 作成する場合に使う仮メールアドレスのドメイン。
// 後続のWebhookプロビジョニングで実アドレスに上書きされる。
const placeholderEmailDomain = "temp.monomind"

// PlaceholderEmail はclerkUserIDから仮メールアドレスを組み立てる。
func PlaceholderEmail(clerkUserID string) string {
	return clerkUserID + "@" + placeholderEmailDomain
}

// OAuthProvider はGitHub OAuthプロバイダーのインターフェース。
type OAuthProvider interface {
	// AuthorizeURL はOAuth認可URLを生成する。
	AuthorizeURL(state string) string
	// ExchangeCode は認可コードをアクセストークンに交換する。
	ExchangeCode(ctx context.Context, code string) (string, error)
	// FetchUser はアクセストークンでユーザー情報を取得する。
	FetchUser(ctx context.Context, accessToken string) (*GithubUser, error)
}

// LinkOutcome はID連携試行の結果種別。
type LinkOutcome string

const (
	// OutcomeLinked は連携が成立したことを示す。
	OutcomeLinked LinkOutcome = "linked"
	// OutcomeAlreadyLinked は対象のGitHubアカウントが別の内部ユーザーに
	// 連携済みであることを示す。
	OutcomeAlreadyLinked LinkOutcome = "already_linked"
	// OutcomeAuthFailed はOAuth交換またはstate検証の失敗を示す。
	OutcomeAuthFailed LinkOutcome = "auth_failed"
)

// LinkResult はコールバック処理の結果。
// 連携の成否はエラーではなく結果として表現する。
// ハンドラーはこれをもとにフロントエンドへのリダイレクト先を決める。
type LinkResult struct {
	Outcome  LinkOutcome
	Username string
	Message  string
}

// LinkStatus はユーザーのGitHub連携状態。
type LinkStatus struct {
	Connected bool    `json:"connected"`
	Username  *string `json:"username"`
}

// LinkService はGitHubアカウントの連携フローを提供する。
type LinkService struct {
	oauth   OAuthProvider
	states  *StateSigner
	users   repository.UserRepository
	cipher  *security.Cipher
	metrics metrics.MetricsCollector
}

// NewLinkService はLinkServiceを生成する。
func NewLinkService(
	oauth OAuthProvider,
	states *StateSigner,
	users repository.UserRepository,
	cipher *security.Cipher,
	collector metrics.MetricsCollector,
) *LinkService {
	return &LinkService{
		oauth:   oauth,
		states:  states,
		users:   users,
		cipher:  cipher,
		metrics: collector,
	}
}

// BeginLink は連携フローを開始し、GitHubの認可URLを返す。
// clerkUserIDは署名付きstateに埋め込まれ、コールバックで復元される。
func (s *LinkService) BeginLink(clerkUserID string) (string, error) {
	if clerkUserID == "" {
		return "", model.NewValidationError("user_idが指定されていません")
	}

	state, err := s.states.Issue(clerkUserID)
	if err != nil {
		return "", fmt.Errorf("failed to issue state: %w", err)
	}

	return s.oauth.AuthorizeURL(state), nil
}

// CompleteLink はOAuthコールバックを処理し、連携結果を返す。
// 認証系の失敗（state不正、コード交換失敗）はエラーではなく
// OutcomeAuthFailedとして返し、インフラ障害のみerrorで返す。
//
// 外部呼び出し（トークン交換、ユーザー情報取得）をすべて完了させてから
// DBへの書き込みを行う。途中で失敗した場合にDBが中途半端な状態に
// ならないようにするため。
func (s *LinkService) CompleteLink(ctx context.Context, state, code string) (*LinkResult, error) {
	clerkUserID, err := s.states.Verify(state)
	if err != nil {
		slog.Warn("oauth state verification failed", slog.String("error", err.Error()))
		s.metrics.RecordLinkAttempt(string(OutcomeAuthFailed))
		return &LinkResult{Outcome: OutcomeAuthFailed, Message: "認証に失敗しました"}, nil
	}

	accessToken, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		slog.Warn("oauth code exchange failed",
			slog.String("clerk_user_id", clerkUserID),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordLinkAttempt(string(OutcomeAuthFailed))
		return &LinkResult{Outcome: OutcomeAuthFailed, Message: "認証に失敗しました"}, nil
	}

	githubUser, err := s.oauth.FetchUser(ctx, accessToken)
	if err != nil {
		slog.Warn("github user fetch failed",
			slog.String("clerk_user_id", clerkUserID),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordLinkAttempt(string(OutcomeAuthFailed))
		return &LinkResult{Outcome: OutcomeAuthFailed, Message: "認証に失敗しました"}, nil
	}

	// 外部呼び出しが完了した後の書き込みフェーズ。クライアントが
	// リダイレクト中に切断してもDB書き込みは最後まで実行する。
	writeCtx := context.WithoutCancel(ctx)

	// 同じGitHubアカウントが別の内部ユーザーに連携済みかを確認する。
	// 同一ユーザーによる再連携（トークン更新）は許可する。
	existing, err := s.users.FindByGithubID(writeCtx, githubUser.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing link: %w", err)
	}
	if existing != nil && existing.ClerkUserID != clerkUserID {
		s.metrics.RecordLinkAttempt(string(OutcomeAlreadyLinked))
		return &LinkResult{
			Outcome:  OutcomeAlreadyLinked,
			Username: githubUser.Login,
			Message:  fmt.Sprintf("GitHubアカウント %s は既に別のユーザーに連携されています", githubUser.Login),
		}, nil
	}

	encryptedToken, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	err = s.users.UpsertLink(writeCtx, clerkUserID, PlaceholderEmail(clerkUserID), githubUser.ID, githubUser.Login, encryptedToken)
	if err != nil {
		// ユニーク制約違反はチェックとUPSERTの間に別ユーザーが
		// 同じGitHubアカウントを連携した競合。
		if errors.Is(err, repository.ErrDuplicateGithubID) {
			s.metrics.RecordLinkAttempt(string(OutcomeAlreadyLinked))
			return &LinkResult{
				Outcome:  OutcomeAlreadyLinked,
				Username: githubUser.Login,
				Message:  fmt.Sprintf("GitHubアカウント %s は既に別のユーザーに連携されています", githubUser.Login),
			}, nil
		}
		return nil, fmt.Errorf("failed to save github link: %w", err)
	}

	s.metrics.RecordLinkAttempt(string(OutcomeLinked))
	slog.Info("github account linked",
		slog.String("clerk_user_id", clerkUserID),
		slog.String("github_username", githubUser.Login),
	)

	return &LinkResult{Outcome: OutcomeLinked, Username: githubUser.Login}, nil
}

// Status はユーザーのGitHub連携状態を返す。
// ユーザーが存在しない場合は未連携として扱う。
func (s *LinkService) Status(ctx context.Context, clerkUserID string) (*LinkStatus, error) {
	if clerkUserID == "" {
		return nil, model.NewValidationError("user_idが指定されていません")
	}

	user, err := s.users.FindByClerkID(ctx, clerkUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !user.GithubConnected() {
		return &LinkStatus{Connected: false}, nil
	}

	return &LinkStatus{Connected: true, Username: user.GithubUsername}, nil
}
