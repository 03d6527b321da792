// Package auth signs users in against the LearnHub backend and keeps the
// resulting token in the server-side session.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/learnhub-academy/learnhub/internal/backend"
	"github.com/learnhub-academy/learnhub/internal/rbac"
)

// ErrInvalidCredentials is returned for rejected email/password pairs.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Backend is the subset of the backend client auth needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
	Profile(ctx context.Context, token string) (rbac.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	backend Backend
}

// NewService constructs a new Service.
func NewService(b Backend) *Service {
	return &Service{backend: b}
}

// Authenticate exchanges credentials for a token and the signed-in user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (backend.LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		if isCredentialError(err) {
			return backend.LoginResult{}, ErrInvalidCredentials
		}
		return backend.LoginResult{}, err
	}
	return res, nil
}

// Refresh re-reads the profile behind token, picking up role changes.
func (s *Service) Refresh(ctx context.Context, token string) (rbac.User, error) {
	return s.backend.Profile(ctx, token)
}

func isCredentialError(err error) bool {
	if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, backend.ErrNotFound) {
		return true
	}
	var apiErr *backend.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}
