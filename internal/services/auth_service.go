package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"refund-service/internal/auth"
	"refund-service/internal/config"
	"refund-service/internal/models"
	"refund-service/internal/repositories"
)

const minPasswordLength = 4

type AuthService struct {
	table    *auth.UserTable
	users    repositories.UserRepository
	sessions repositories.SessionRepository
	cfg      config.SessionConfig
	logger   *slog.Logger
}

func NewAuthService(
	table *auth.UserTable,
	users repositories.UserRepository,
	sessions repositories.SessionRepository,
	cfg config.SessionConfig,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{table: table, users: users, sessions: sessions, cfg: cfg, logger: logger}
}

// Session is a signed-in user and the cookie that identifies them.
type Session struct {
	ID   string
	User *models.User
	TTL  time.Duration
}

// Login checks the password against the stored credential, creating that
// credential from the account table on first sign-in. Legacy plain-text
// credentials are upgraded to bcrypt once they verify.
func (s *AuthService) Login(ctx context.Context, username, password string, rememberMe bool) (*Session, error) {
	if username == "" || password == "" {
		return nil, invalid("username and password are required")
	}
	username = auth.NormalizeUsername(username)

	account, ok := s.table.Find(username)
	if !ok {
		return nil, unauthorized("invalid username or password")
	}

	cred, err := s.users.GetCredential(ctx, username)
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		hash, err := auth.HashPassword(account.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		cred = &models.StoredCredential{Password: hash, MustChangePassword: account.MustChangePassword}
	case err != nil:
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	cred.Role = account.Role
	cred.Name = account.Name
	cred.BranchName = account.BranchName

	var valid bool
	if auth.IsHashed(cred.Password) {
		valid = auth.VerifyPassword(password, cred.Password)
	} else if password == cred.Password {
		valid = true
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		cred.Password = hash
		s.logger.Info("upgraded legacy password", "user", username)
	}

	if err := s.users.SaveCredential(ctx, username, cred); err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}
	if !valid {
		s.logger.Info("login rejected", "user", username)
		return nil, unauthorized("invalid username or password")
	}

	user := &models.User{
		Username:           username,
		Role:               cred.Role,
		Name:               cred.Name,
		BranchName:         cred.BranchName,
		MustChangePassword: cred.MustChangePassword,
	}
	ttl := s.cfg.TTL
	if rememberMe {
		ttl = s.cfg.RememberMeTTL
	}
	sessionID := uuid.NewString()
	if err := s.sessions.Create(ctx, sessionID, user, ttl); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("user logged in", "user", username, "role", user.Role, "remember_me", rememberMe)
	return &Session{ID: sessionID, User: user, TTL: ttl}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a session cookie to its user.
func (s *AuthService) Authenticate(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, unauthorized("authentication required")
	}
	user, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, repositories.ErrSessionNotFound) {
		return nil, unauthorized("session expired")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return user, nil
}

// Me returns the session's user and how long the session has left.
func (s *AuthService) Me(ctx context.Context, sessionID string) (*Session, error) {
	user, err := s.Authenticate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ttl, err := s.sessions.RemainingTTL(ctx, sessionID)
	if errors.Is(err, repositories.ErrSessionNotFound) {
		return nil, unauthorized("session expired")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &Session{ID: sessionID, User: user, TTL: ttl}, nil
}

// ChangePassword replaces the user's password and clears the forced-change
// flag on both the credential and the live session.
func (s *AuthService) ChangePassword(ctx context.Context, sessionID string, user *models.User, current, next string) error {
	if current == "" || next == "" {
		return invalid("current and new password are required")
	}
	if len([]rune(next)) < minPasswordLength {
		return invalid("new password must be at least %d characters", minPasswordLength)
	}
	if current == next {
		return invalid("new password must differ from the current one")
	}

	cred, err := s.users.GetCredential(ctx, user.Username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return notFound("user not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if !auth.VerifyPassword(current, cred.Password) {
		return unauthorized("current password is incorrect")
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	cred.Password = hash
	cred.MustChangePassword = false
	if err := s.users.SaveCredential(ctx, user.Username, cred); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	updated := *user
	updated.MustChangePassword = false
	if err := s.sessions.Replace(ctx, sessionID, &updated); err != nil {
		s.logger.Warn("failed to refresh session after password change", "user", user.Username, "error", err)
	}

	s.logger.Info("password changed", "user", user.Username)
	return nil
}
