package client

import (
	"context"

	"github.com/mkraev/docquery/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for an access token. Persisting the token is
// the session's job, not the transport's.
func (c *Client) Login(ctx context.Context, email, password string) (model.Tokens, error) {
	var toks model.Tokens
	err := c.doJSON(ctx, "POST", "/token/", loginRequest{Email: email, Password: password}, &toks, callOpts{})
	return toks, err
}

// Register creates an account. It does not authenticate; callers log in separately.
func (c *Client) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	var u model.User
	err := c.doJSON(ctx, "POST", "/users/register/", reg, &u, callOpts{})
	return u, err
}

// CurrentUser fetches the profile of the authenticated account.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.doJSON(ctx, "GET", "/users/me/", nil, &u, callOpts{})
	return u, err
}

// ProbeUser fetches the profile with the call flagged as a retry attempt, so
// a 401 fails the call without firing the forced-logout cascade. Used when
// validating a restored token: there is no live session to force out yet.
func (c *Client) ProbeUser(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.doJSON(ctx, "GET", "/users/me/", nil, &u, callOpts{retried: true})
	return u, err
}
