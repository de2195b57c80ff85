package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/TushxrTxndon/CampusBazaar/internal/models"
)

// RegisterUser creates a regular account
func (c *Client) RegisterUser(ctx context.Context, req models.RegisterUserRequest) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/users/register",
		path:   "/users/register",
		body:   req,
	}, nil)
}

// RegisterStudent attaches student details to an existing account
func (c *Client) RegisterStudent(ctx context.Context, info models.StudentInfo) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/students/register",
		path:   "/students/register",
		body:   info,
	}, nil)
}

// RegisterFaculty attaches faculty details to an existing account
func (c *Client) RegisterFaculty(ctx context.Context, info models.FacultyInfo) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/faculty/register",
		path:   "/faculty/register",
		body:   info,
	}, nil)
}

// LoginUser authenticates with email and password
func (c *Client) LoginUser(ctx context.Context, req models.LoginRequest) (*models.UserProfile, error) {
	var user models.UserProfile
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/users/login",
		path:   "/users/login",
		body:   req,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches an account by email
func (c *Client) GetUser(ctx context.Context, email string) (*models.UserProfile, error) {
	var user models.UserProfile
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/users/{email_id}",
		path:   "/users/" + url.PathEscape(email),
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// OAuthProviders lists the enabled external login providers
func (c *Client) OAuthProviders(ctx context.Context) ([]models.OAuthProvider, error) {
	var resp models.OAuthProvidersResponse
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/oauth/providers",
		path:   "/oauth/providers",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Providers, nil
}

// GoogleLoginURL is where the browser goes to start Google sign-in.
// Any mode other than "signup" is treated as "login".
func (c *Client) GoogleLoginURL(mode string) string {
	if mode != "signup" {
		mode = "login"
	}
	return c.baseURL + "/oauth/login/google?" + url.Values{"mode": {mode}}.Encode()
}
