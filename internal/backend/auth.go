package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/learnhub-academy/learnhub/internal/rbac"
)

type wireUser struct {
	ID    string `json:"_id"`
	AltID string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (w wireUser) toUser() rbac.User {
	id := w.ID
	if id == "" {
		id = w.AltID
	}
	// Unknown roles are kept verbatim; they resolve to no permissions.
	role, _ := rbac.ParseRole(w.Role)
	return rbac.User{ID: id, Name: w.Name, Email: w.Email, Role: role}
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Token string
	User  rbac.User
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var resp struct {
		AccessToken string   `json:"access_token"`
		Token       string   `json:"token"`
		User        wireUser `json:"user"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", in, &resp); err != nil {
		return LoginResult{}, err
	}
	token := resp.AccessToken
	if token == "" {
		token = resp.Token
	}
	if token == "" {
		return LoginResult{}, errors.New("backend: login response without token")
	}
	return LoginResult{Token: token, User: resp.User.toUser()}, nil
}

// Profile returns the user owning token.
func (c *Client) Profile(ctx context.Context, token string) (rbac.User, error) {
	var resp wireUser
	if err := c.doJSON(ctx, http.MethodGet, "/auth/profile", token, nil, &resp); err != nil {
		return rbac.User{}, err
	}
	return resp.toUser(), nil
}
