package authsdk

import (
	"context"
	"net/http"
)

// Login exchanges credentials for the session cookies.
func (c *Client) Login(ctx context.Context, email, password string) (*UserResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	return &user, nil
}

// Me returns the user the access cookie belongs to.
func (c *Client) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	return &user, nil
}

// Refresh swaps the refresh cookie for a new pair of cookies.
func (c *Client) Refresh(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/refresh", nil)
	if err != nil {
		return err
	}
	return expectStatus(resp, http.StatusOK)
}

// Logout clears both cookies. It needs a valid access cookie.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return err
	}
	return expectStatus(resp, http.StatusNoContent)
}
