package api

import (
	"net/http"

	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/TushxrTxndon/CampusBazaar/internal/services"
)

const (
	cookieName = "campusbazaar"
	// flashSignedUp tells the UI the OAuth login created a new account
	flashSignedUp = "signup_complete"
)

// sessionView is the session snapshot plus the one-shot flashes queued for the UI
type sessionView struct {
	services.SessionSnapshot
	Flashes []string `json:"flashes"`
}

// GetSessionHandler handles GET /api/v1/session
func (a *App) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	view := sessionView{SessionSnapshot: a.svc.Session.Snapshot(), Flashes: []string{}}

	cookie, err := a.cookies.Get(r, cookieName)
	if err != nil {
		a.logger.Debug("discarding unreadable session cookie", "error", err)
	}
	if flashes := cookie.Flashes(); len(flashes) > 0 {
		for _, f := range flashes {
			if s, ok := f.(string); ok {
				view.Flashes = append(view.Flashes, s)
			}
		}
		if err := cookie.Save(r, w); err != nil {
			a.logger.Warn("failed to save session cookie", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// LoginHandler handles POST /api/v1/session/login
func (a *App) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := a.svc.Users.Login(detach(r), req.EmailID, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// RegisterHandler handles POST /api/v1/session/register
func (a *App) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := a.svc.Users.Register(detach(r), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// LogoutHandler handles POST /api/v1/session/logout
func (a *App) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Session.Logout(detach(r)); err != nil {
		a.logger.Warn("logout not persisted", "error", err)
	}
	writeJSON(w, http.StatusOK, a.svc.Session.Snapshot())
}

// OAuthProvidersHandler handles GET /oauth/providers
func (a *App) OAuthProvidersHandler(w http.ResponseWriter, r *http.Request) {
	providers, err := a.gateway.OAuthProviders(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if providers == nil {
		providers = []models.OAuthProvider{}
	}
	writeJSON(w, http.StatusOK, models.OAuthProvidersResponse{Providers: providers})
}

// GoogleLoginHandler handles GET /oauth/login/google by sending the browser to the backend
func (a *App) GoogleLoginHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, a.gateway.GoogleLoginURL(r.URL.Query().Get("mode")), http.StatusFound)
}

// OAuthCallbackHandler handles GET /oauth/callback, where the backend returns the browser
func (a *App) OAuthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	nav := a.svc.OAuth.Handle(detach(r), services.OAuthCallbackFromQuery(r.URL.Query()))

	if nav.SignupHint {
		cookie, err := a.cookies.Get(r, cookieName)
		if err != nil {
			a.logger.Debug("replacing unreadable session cookie", "error", err)
		}
		cookie.AddFlash(flashSignedUp)
		if err := cookie.Save(r, w); err != nil {
			a.logger.Warn("failed to save session cookie", "error", err)
		}
	}
	http.Redirect(w, r, a.frontendURL(nav.URL()), http.StatusFound)
}
