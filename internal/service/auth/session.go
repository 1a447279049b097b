package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"apparel-storefront/internal/backend"
	"apparel-storefront/internal/domain"
	"apparel-storefront/internal/repository/kv"
	"github.com/sirupsen/logrus"
)

const (
	tokenKey          = "token"
	minPasswordLength = 6
)

// Fallback messages when the collaborator gives no reason.
const (
	LoginFailed    = "Invalid credentials"
	RegisterFailed = "Registration failed"
)

// ValidationError is an input problem caught before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Client is the auth collaborator.
type Client interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, email, password, name string) (string, error)
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}

// Session holds the visitor's identity and bearer token. The user is only
// ever set while a token is set.
type Session struct {
	mu       sync.RWMutex
	kv       kv.Store
	client   Client
	user     *domain.User
	token    string
	restored bool
	logger   logrus.FieldLogger
}

// New creates an unauthenticated session. Call Restore before serving.
func New(store kv.Store, client Client, logger logrus.FieldLogger) *Session {
	return &Session{
		kv:     store,
		client: client,
		logger: logger.WithField("component", "auth"),
	}
}

// Restore revalidates a stored token. Any failure purges the token and
// leaves the session unauthenticated; nothing is reported to the shopper.
func (s *Session) Restore(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.restored = true
		s.mu.Unlock()
	}()

	token, err := s.kv.Get(ctx, tokenKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WithError(err).Warn("read stored token failed")
		}
		return
	}
	if token == "" {
		s.purge(ctx)
		return
	}

	user, err := s.client.CurrentUser(ctx, token)
	if err != nil {
		s.logger.WithError(err).Info("stored token rejected, signing out")
		s.purge(ctx)
		return
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	s.logger.WithField("user_id", user.ID).Debug("session restored")
}

// Restored reports whether Restore has finished.
func (s *Session) Restored() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restored
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &ValidationError{Message: "Please fill in all fields"}
	}
	token, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.establish(ctx, token)
}

// Register creates an account and signs in with it.
func (s *Session) Register(ctx context.Context, email, password, confirm, name string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || confirm == "" || name == "" {
		return nil, &ValidationError{Message: "Please fill in all fields"}
	}
	if password != confirm {
		return nil, &ValidationError{Message: "Passwords do not match"}
	}
	if len(password) < minPasswordLength {
		return nil, &ValidationError{Message: fmt.Sprintf("Password must be at least %d characters", minPasswordLength)}
	}
	token, err := s.client.Register(ctx, email, password, name)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return s.establish(ctx, token)
}

// Logout forgets the token locally. The collaborator is not contacted.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
	if err := s.kv.Remove(ctx, tokenKey); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// User returns the signed-in user, if any.
func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// BearerToken returns the token for calls that need a signed-in user, or
// domain.ErrUnauthenticated when signed out.
func (s *Session) BearerToken() (string, error) {
	if token := s.Token(); token != "" {
		return token, nil
	}
	return "", domain.ErrUnauthenticated
}

// establish stores a freshly issued token and resolves its user. If the user
// cannot be resolved the token is dropped again.
func (s *Session) establish(ctx context.Context, token string) (*domain.User, error) {
	if err := s.kv.Set(ctx, tokenKey, token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	user, err := s.client.CurrentUser(ctx, token)
	if err != nil {
		s.purge(ctx)
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	s.logger.WithField("user_id", user.ID).Info("signed in")
	u := *user
	return &u, nil
}

func (s *Session) purge(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
	if err := s.kv.Remove(ctx, tokenKey); err != nil {
		s.logger.WithError(err).Warn("purge token failed")
	}
}

// UserMessage turns an error from Login or Register into text for the
// shopper: validation text, then the collaborator's reason, then fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	if msg := backend.Message(err); msg != "" {
		return msg
	}
	return fallback
}
