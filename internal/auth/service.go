package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/auth/jwt"
	"github.com/gokatarajesh/question-bank/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDisabled           = errors.New("authentication is disabled")
)

// Service issues and checks admin tokens. A nil *Service means auth is off.
type Service struct {
	tokens       *jwt.Manager
	username     string
	passwordHash string
	logger       zerolog.Logger
}

// NewService returns nil, nil when no JWT secret is configured.
func NewService(cfg config.Security, logger zerolog.Logger) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	if err := CheckHash(cfg.AdminPasswordHash); err != nil {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH: %w", err)
	}
	return &Service{
		tokens: jwt.NewManager(jwt.TokenConfig{
			Secret: []byte(cfg.JWTSecret),
			TTL:    cfg.TokenTTL,
		}),
		username:     cfg.AdminUsername,
		passwordHash: cfg.AdminPasswordHash,
		logger:       logger.With().Str("component", "auth_service").Logger(),
	}, nil
}

// Enabled reports whether writes require a token.
func (s *Service) Enabled() bool { return s != nil }

// Login verifies the admin credentials and issues an access token.
func (s *Service) Login(_ context.Context, req LoginRequest) (TokenResponse, error) {
	if !s.Enabled() {
		return TokenResponse{}, ErrDisabled
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) == 1
	// bcrypt runs even when the username is wrong
	passErr := VerifyPassword(s.passwordHash, req.Password)
	if !userOK || passErr != nil {
		s.logger.Warn().Str("username", req.Username).Msg("login rejected")
		return TokenResponse{}, ErrInvalidCredentials
	}
	return s.Issue(s.username)
}

// Issue mints a token without a password check; used by the admin CLI.
func (s *Service) Issue(username string) (TokenResponse, error) {
	if !s.Enabled() {
		return TokenResponse{}, ErrDisabled
	}
	token, expires, err := s.tokens.GenerateAccessToken(username)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("sign token: %w", err)
	}
	return TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL() / time.Second),
		ExpiresAt:   expires.UTC().Format(time.RFC3339),
	}, nil
}

// ValidateToken parses a bearer token.
func (s *Service) ValidateToken(token string) (*jwt.Claims, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	return s.tokens.ValidateAccessToken(token)
}
