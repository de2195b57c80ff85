package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"

	"github.com/TushxrTxndon/CampusBazaar/internal/models"
)

// OAuthParseError is the error code sent to the login page when the callback payload is unusable
const OAuthParseError = "oauth_parse_error"

// Navigation is where the browser goes after the OAuth callback
type Navigation struct {
	Path       string
	Query      url.Values
	SignupHint bool
}

// URL renders the path with its query
func (n Navigation) URL() string {
	if len(n.Query) == 0 {
		return n.Path
	}
	return n.Path + "?" + n.Query.Encode()
}

// OAuthCallback is the query the backend appends when redirecting back
type OAuthCallback struct {
	Success string
	Error   string
	User    string
	Mode    string
}

// OAuthCallbackFromQuery extracts the callback fields
func OAuthCallbackFromQuery(q url.Values) OAuthCallback {
	return OAuthCallback{
		Success: q.Get("success"),
		Error:   q.Get("error"),
		User:    q.Get("user"),
		Mode:    q.Get("mode"),
	}
}

// OAuthHandler completes an external login
type OAuthHandler struct {
	session *SessionService
	logger  *slog.Logger
}

func NewOAuthHandler(session *SessionService, logger *slog.Logger) *OAuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OAuthHandler{session: session, logger: logger.With("component", "oauth")}
}

// Handle logs the user in on success and decides where to navigate
func (h *OAuthHandler) Handle(ctx context.Context, cb OAuthCallback) Navigation {
	mode := cb.Mode
	if mode == "" {
		mode = "login"
	}

	record := func(outcome string) {
		h.session.metrics.RecordOAuthCallback(ctx, mode, outcome)
	}

	switch {
	case cb.Success == "true" && cb.User != "":
		user, err := parseOAuthUser(cb.User)
		if err != nil {
			h.logger.Warn("failed to parse oauth user", "error", err)
			record("parse_error")
			return loginError(OAuthParseError)
		}
		if _, err := h.session.loginVia(ctx, "oauth", user); err != nil {
			h.logger.Warn("oauth login failed", "error", err)
			record("parse_error")
			return loginError(OAuthParseError)
		}
		record("success")
		return Navigation{Path: "/", SignupHint: mode == "signup"}

	case cb.Error != "":
		path := "/login"
		if mode == "signup" {
			path = "/register"
		}
		record("provider_error")
		return Navigation{Path: path, Query: url.Values{"error": {cb.Error}}}

	default:
		record("empty")
		return Navigation{Path: "/login"}
	}
}

func loginError(code string) Navigation {
	return Navigation{Path: "/login", Query: url.Values{"error": {code}}}
}

// parseOAuthUser accepts the user payload either raw or still URL-encoded
func parseOAuthUser(raw string) (models.UserProfile, error) {
	var user models.UserProfile
	err := json.Unmarshal([]byte(raw), &user)
	if err == nil {
		return user, nil
	}
	decoded, decodeErr := url.QueryUnescape(raw)
	if decodeErr != nil {
		return user, err
	}
	if err := json.Unmarshal([]byte(decoded), &user); err != nil {
		return user, err
	}
	return user, nil
}
