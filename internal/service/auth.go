// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/splitr/splitr/internal/identity"
	"github.com/splitr/splitr/internal/metrics"
	"github.com/splitr/splitr/internal/model"
)

// Service errors.
var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrMissingToken       = errors.New("authentication token is required")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUpstream           = errors.New("identity provider unavailable")
)

// ProfileStore persists user profile documents.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *model.UserProfile) error
	GetProfileByUID(ctx context.Context, uid string) (*model.UserProfile, error)
}

// TokenCache caches verified session tokens to spare provider round trips.
type TokenCache interface {
	GetVerifiedToken(ctx context.Context, token string) (*model.AuthContext, error)
	SetVerifiedToken(ctx context.Context, token string, auth *model.AuthContext) error
}

// AuthResult is the outcome of a successful login or signup.
type AuthResult struct {
	UID   string
	Token string
}

// AuthService handles authentication flows against the identity provider.
type AuthService struct {
	provider identity.Provider
	profiles ProfileStore
	tokens   TokenCache
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(provider identity.Provider, profiles ProfileStore, tokens TokenCache, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		provider: provider,
		profiles: profiles,
		tokens:   tokens,
		logger:   logger,
		metrics:  recorder,
	}
}

// Login authenticates a user by email and issues a session token.
//
// The flow is lookup, mint, exchange; each step is a single provider round
// trip and any failure is terminal for the request. The password travels to
// the provider with the lookup but is not independently re-checked here;
// credential verification is wholly the provider's responsibility.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.provider.LookupUserByEmail(ctx, email)
	if err != nil {
		s.metrics.IncLogin("failure")
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, wrapUpstream(err)
	}

	token, err := s.issueSessionToken(ctx, user.UID)
	if err != nil {
		s.metrics.IncLogin("failure")
		return nil, err
	}

	s.metrics.IncLogin("success")
	s.logger.Info("login successful", "uid", user.UID)

	return &AuthResult{UID: user.UID, Token: token}, nil
}

// SignupInput defines input for registering a new account.
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// Signup registers a new account, writes its profile document, and issues a
// session token. A failed profile write is logged but does not fail the
// signup: the account already exists at the provider and retrying the whole
// operation would only hit ErrEmailExists.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.provider.CreateUser(ctx, input.Email, input.Password)
	if err != nil {
		s.metrics.IncSignup("failure")
		if errors.Is(err, identity.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, wrapUpstream(err)
	}

	profile := &model.UserProfile{
		UID:        user.UID,
		Name:       input.Name,
		Email:      input.Email,
		GroupCodes: []string{},
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		s.logger.Warn("profile write failed after signup",
			"uid", user.UID,
			"error", err.Error(),
		)
	}

	token, err := s.issueSessionToken(ctx, user.UID)
	if err != nil {
		s.metrics.IncSignup("failure")
		return nil, err
	}

	s.metrics.IncSignup("success")
	s.logger.Info("signup successful", "uid", user.UID)

	return &AuthResult{UID: user.UID, Token: token}, nil
}

// Authorize verifies a session token and returns the authenticated identity.
// Verified tokens are cached briefly to avoid repeat provider calls.
func (s *AuthService) Authorize(ctx context.Context, token string) (*model.AuthContext, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	if cached, _ := s.tokens.GetVerifiedToken(ctx, token); cached != nil {
		s.metrics.IncTokenVerification("cache_hit")
		return cached, nil
	}

	user, err := s.provider.VerifyIDToken(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			s.metrics.IncTokenVerification("rejected")
			return nil, ErrInvalidToken
		}
		s.metrics.IncTokenVerification("error")
		return nil, wrapUpstream(err)
	}

	authCtx := &model.AuthContext{UID: user.UID, Email: user.Email}
	if err := s.tokens.SetVerifiedToken(ctx, token, authCtx); err != nil {
		s.logger.Warn("token cache write failed", "error", err.Error())
	}

	s.metrics.IncTokenVerification("verified")
	return authCtx, nil
}

// issueSessionToken mints a custom token for uid and exchanges it for a
// session token.
func (s *AuthService) issueSessionToken(ctx context.Context, uid string) (string, error) {
	custom, err := s.provider.MintCustomToken(ctx, uid)
	if err != nil {
		return "", wrapUpstream(err)
	}

	idToken, err := s.provider.ExchangeCustomToken(ctx, custom)
	if err != nil {
		return "", wrapUpstream(err)
	}

	return idToken, nil
}

// wrapUpstream converts a provider error into ErrUpstream while keeping the
// detail for the human-readable response body.
func wrapUpstream(err error) error {
	detail := strings.TrimPrefix(err.Error(), identity.ErrUpstream.Error()+": ")
	return fmt.Errorf("%w: %s", ErrUpstream, detail)
}
