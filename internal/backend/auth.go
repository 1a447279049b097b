package backend

import (
	"context"
	"errors"
	"net/http"

	"apparel-storefront/internal/domain"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var tok wireToken
	err := c.do(ctx, http.MethodPost, "/auth/login", "", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &tok)
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", errors.New("login response carried no token")
	}
	return tok.AccessToken, nil
}

// Register creates a new account and returns its bearer token.
func (c *Client) Register(ctx context.Context, email, password, name string) (string, error) {
	var tok wireToken
	err := c.do(ctx, http.MethodPost, "/auth/register", "", nil, map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, &tok)
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", errors.New("register response carried no token")
	}
	return tok.AccessToken, nil
}

// CurrentUser resolves the user behind token.
func (c *Client) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	var u wireUser
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, errors.New("current user response carried no id")
	}
	user := u.toDomain()
	return &user, nil
}
