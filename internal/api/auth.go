package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"animehub-client/internal/models"
)

// Me returns the session user. A 401 surfaces as ErrUnauthenticated.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.do(ctx, request{method: http.MethodGet, route: "/api/auth/me", path: "/api/auth/me"}, &user)
	return user, err
}

type CheckResult struct {
	LoggedIn bool        `json:"loggedIn"`
	User     models.User `json:"user"`
}

// Check reports whether the stored cookies still hold a live session.
func (c *Client) Check(ctx context.Context) (CheckResult, error) {
	var res CheckResult
	err := c.do(ctx, request{method: http.MethodGet, route: "/api/auth/check", path: "/api/auth/check"}, &res)
	if errors.Is(err, ErrUnauthenticated) {
		return CheckResult{}, nil
	}
	return res, err
}

// Login opens a session and persists its cookies.
func (c *Client) Login(ctx context.Context, email, password string) error {
	req, err := jsonRequest(http.MethodPost, "/api/auth/login", "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}
	if err := c.do(ctx, req, nil); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return c.saveSession(ctx)
}

// Logout ends the session server side and forgets the local cookies even when
// the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, request{method: http.MethodPost, route: "/api/auth/logout", path: "/api/auth/logout"}, nil)
	if dropErr := c.dropSession(ctx); dropErr != nil && err == nil {
		err = dropErr
	}
	if err != nil && !errors.Is(err, ErrUnauthenticated) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// SearchUsers finds users by username or email. The backend excludes the
// caller and caps the result at ten.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/api/auth/search",
		path:   "/api/auth/search",
		query:  url.Values{"q": {query}},
	}, &users)
	return users, err
}
