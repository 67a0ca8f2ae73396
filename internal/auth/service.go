// Package auth guards the mutating API surface with a single-operator
// login: the configured password trades for a short-lived JWT. When no
// password is configured, authentication is disabled and every request
// passes, which is the local-development mode.
package auth

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Service struct {
	jwtHandler   *JWTHandler
	hasher       *PasswordHasher
	passwordHash string
	enabled      bool
	logger       *zap.Logger
}

// NewService hashes the operator password at startup; an empty password
// disables authentication.
func NewService(secret, password string, tokenTTL time.Duration, logger *zap.Logger) (*Service, error) {
	s := &Service{
		jwtHandler: NewJWTHandler(secret, tokenTTL),
		hasher:     NewPasswordHasher(),
		enabled:    password != "",
		logger:     logger,
	}

	if !s.enabled {
		logger.Warn("no operator password configured, API authentication disabled")
		return s, nil
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash operator password: %w", err)
	}
	s.passwordHash = hash
	return s, nil
}

func (s *Service) Enabled() bool {
	return s.enabled
}

// Login verifies the operator password and issues a token.
func (s *Service) Login(password string) (string, error) {
	if !s.enabled {
		return "", fmt.Errorf("authentication is disabled")
	}

	ok, err := s.hasher.VerifyPassword(password, s.passwordHash)
	if err != nil {
		return "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.logger.Warn("operator login rejected")
		return "", fmt.Errorf("invalid password")
	}

	return s.jwtHandler.GenerateToken()
}

// Validate checks a bearer token.
func (s *Service) Validate(token string) error {
	_, err := s.jwtHandler.ValidateToken(token)
	return err
}
