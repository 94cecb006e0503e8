package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/common/validation"
	"github.com/frahmantamala/user-management/internal/core/events"
	"github.com/frahmantamala/user-management/internal/user"
	"github.com/frahmantamala/user-management/pkg/metrics"
)

// timingPlaintext is hashed once at startup so unknown usernames still pay for a bcrypt compare.
const timingPlaintext = "timing-equalization-placeholder"

type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*user.User, error)
	FindByUsername(ctx context.Context, username string) (*user.User, error)
}

type PasswordVerifier interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type TokenIssuer interface {
	Issue(userID int64, username string) (string, time.Time, error)
	Parse(token string) (*Claims, error)
}

type Service struct {
	users     UserFinder
	hasher    PasswordVerifier
	tokens    TokenIssuer
	publisher events.Publisher
	logger    *slog.Logger

	dummyDigest string
}

func NewService(users UserFinder, hasher PasswordVerifier, tokens TokenIssuer, publisher events.Publisher, logger *slog.Logger) *Service {
	s := &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		logger:    logger,
	}
	if digest, err := hasher.Hash(timingPlaintext); err == nil {
		s.dummyDigest = digest
	} else {
		logger.Warn("failed to prepare timing digest", "error", err)
	}
	return s
}

type LoginResult struct {
	User      *user.User
	Token     string
	ExpiresAt time.Time
}

// Login checks the credentials and issues an access token. Unknown usernames and wrong
// passwords both return internal.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, dto LoginDTO, remoteIP string) (*LoginResult, error) {
	if verr := validation.Struct(dto); verr != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.OutcomeBadRequest).Inc()
		return nil, verr
	}

	u, err := s.users.FindByUsername(ctx, dto.Username)
	if err != nil {
		if !errors.Is(err, internal.ErrUserNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, err
		}
		s.hasher.Verify(dto.Password, s.dummyDigest)
		s.loginFailed(ctx, dto.Username, remoteIP)
		return nil, internal.ErrInvalidCredentials
	}

	if !s.hasher.Verify(dto.Password, u.PasswordHash) {
		s.loginFailed(ctx, dto.Username, remoteIP)
		return nil, internal.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, internal.NewInternalError("failed to issue token", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.publish(ctx, events.NewLoginSucceededEvent(u.ID, u.Username, remoteIP))

	return &LoginResult{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a bearer token to the caller. The user must still exist.
func (s *Service) Authenticate(ctx context.Context, token string) (*internal.Principal, error) {
	if token == "" {
		return nil, internal.ErrMissingToken
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, err
	}
	if u.Username != claims.Username {
		return nil, internal.ErrInvalidToken
	}

	return &internal.Principal{ID: u.ID, Username: u.Username, Roles: u.RoleNames()}, nil
}

func (s *Service) loginFailed(ctx context.Context, username, remoteIP string) {
	metrics.LoginAttemptsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
	s.publish(ctx, events.NewLoginFailedEvent(username, remoteIP))
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
