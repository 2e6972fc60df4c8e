package movieclient

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoRefreshToken is returned by Refresh before any login.
var ErrNoRefreshToken = errors.New("movieclient: no refresh token")

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates by email and keeps the returned tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	res, err := call[*AuthResult](ctx, c, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	c.setSession(res)
	return res, nil
}

// Signup creates an account and keeps the returned tokens.
func (c *Client) Signup(ctx context.Context, username, email, password string) (*AuthResult, error) {
	res, err := call[*AuthResult](ctx, c, http.MethodPost, "/auth/signup", nil, signupRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	c.setSession(res)
	return res, nil
}

// Refresh exchanges the stored refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context) (*AuthResult, error) {
	c.mu.RLock()
	refresh := c.refreshToken
	c.mu.RUnlock()
	if refresh == "" {
		return nil, ErrNoRefreshToken
	}

	res, err := call[*AuthResult](ctx, c, http.MethodPost, "/auth/refresh", nil, map[string]string{"refresh_token": refresh})
	if err != nil {
		return nil, err
	}
	c.setSession(res)
	return res, nil
}

// Logout revokes the session on the server and forgets the tokens.
func (c *Client) Logout(ctx context.Context) error {
	_, err := call[struct{}](ctx, c, http.MethodPost, "/auth/logout", nil, nil)
	c.setSession(&AuthResult{})
	return err
}
