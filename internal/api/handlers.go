package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/TushxrTxndon/CampusBazaar/internal/checkout"
	"github.com/TushxrTxndon/CampusBazaar/internal/gateway"
	"github.com/TushxrTxndon/CampusBazaar/internal/imaging"
	"github.com/TushxrTxndon/CampusBazaar/internal/metrics"
	"github.com/TushxrTxndon/CampusBazaar/internal/middleware"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/TushxrTxndon/CampusBazaar/internal/services"
	"github.com/TushxrTxndon/CampusBazaar/pkg/config"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

// Services bundles the storefront services the handlers call
type Services struct {
	Products *services.ProductService
	Cart     *services.CartService
	Session  *services.SessionService
	Users    *services.UserService
	Orders   *services.OrderService
	Listings *services.ListingService
	OAuth    *services.OAuthHandler
}

// App holds application dependencies
type App struct {
	config    *config.Config
	metrics   *metrics.AppMetrics
	gateway   *gateway.Client
	svc       Services
	checkouts *checkout.Manager
	cookies   sessions.Store
	logger    *slog.Logger
}

// NewApp creates a new application instance
func NewApp(
	cfg *config.Config,
	m *metrics.AppMetrics,
	gw *gateway.Client,
	svc Services,
	checkouts *checkout.Manager,
	logger *slog.Logger,
) *App {
	if logger == nil {
		logger = slog.Default()
	}
	cookies := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookies.Options.HttpOnly = true
	cookies.Options.SameSite = http.SameSiteLaxMode
	cookies.Options.MaxAge = 3600

	return &App{
		config:    cfg,
		metrics:   m,
		gateway:   gw,
		svc:       svc,
		checkouts: checkouts,
		cookies:   cookies,
		logger:    logger.With("component", "api"),
	}
}

// SetupRoutes configures the HTTP routes
func (a *App) SetupRoutes(r *mux.Router) {
	// Middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.CORSMiddleware(a.config.FrontendOrigin))
	r.Use(middleware.RecoverMiddleware)
	r.Use(middleware.MetricsMiddleware(a.metrics))

	api := r.PathPrefix("/api/v1").Subrouter()

	// Catalog
	api.HandleFunc("/products", a.ListProductsHandler).Methods("GET")
	api.HandleFunc("/products/{pid}", a.GetProductHandler).Methods("GET")
	api.HandleFunc("/products/{pid}/images", a.ProductImagesHandler).Methods("GET")
	api.HandleFunc("/products/{pid}/feedback", a.ProductFeedbackHandler).Methods("GET")
	api.HandleFunc("/products/{pid}/stock", a.CheckStockHandler).Methods("GET")
	api.HandleFunc("/categories", a.ListCategoriesHandler).Methods("GET")

	// Cart
	api.HandleFunc("/cart", a.GetCartHandler).Methods("GET")
	api.HandleFunc("/cart/add", a.AddToCartHandler).Methods("POST")
	api.HandleFunc("/cart/remove", a.RemoveFromCartHandler).Methods("POST")
	api.HandleFunc("/cart/update", a.UpdateCartHandler).Methods("POST")
	api.HandleFunc("/cart/clear", a.ClearCartHandler).Methods("POST")

	// Session
	api.HandleFunc("/session", a.GetSessionHandler).Methods("GET")
	api.HandleFunc("/session/login", a.LoginHandler).Methods("POST")
	api.HandleFunc("/session/register", a.RegisterHandler).Methods("POST")
	api.HandleFunc("/session/logout", a.LogoutHandler).Methods("POST")

	// Checkout
	api.HandleFunc("/checkout", a.BeginCheckoutHandler).Methods("POST")
	api.HandleFunc("/checkout", a.GetCheckoutHandler).Methods("GET")
	api.HandleFunc("/checkout", a.AbandonCheckoutHandler).Methods("DELETE")
	api.HandleFunc("/checkout/proceed", a.ProceedHandler).Methods("POST")
	api.HandleFunc("/checkout/otp", a.SetOTPHandler).Methods("POST")
	api.HandleFunc("/checkout/verify", a.VerifyHandler).Methods("POST")
	api.HandleFunc("/checkout/resend", a.ResendHandler).Methods("POST")

	// Orders
	api.HandleFunc("/orders", a.ListOrdersHandler).Methods("GET")
	api.HandleFunc("/orders/{id}", a.GetOrderHandler).Methods("GET")
	api.HandleFunc("/feedback", a.AddFeedbackHandler).Methods("POST")

	// Seller listings
	api.HandleFunc("/listings", a.ListListingsHandler).Methods("GET")
	api.HandleFunc("/listings", a.AddListingHandler).Methods("POST")
	api.HandleFunc("/listings", a.UpdateListingHandler).Methods("PUT")
	api.HandleFunc("/listings/{pid}", a.RemoveListingHandler).Methods("DELETE")
	api.HandleFunc("/listings/{pid}/images", a.AddImageHandler).Methods("POST")
	api.HandleFunc("/listings/{pid}/images/order", a.ReorderImagesHandler).Methods("PUT")
	api.HandleFunc("/images/{id}", a.DeleteImageHandler).Methods("DELETE")

	// OAuth
	r.HandleFunc("/oauth/providers", a.OAuthProvidersHandler).Methods("GET")
	r.HandleFunc("/oauth/login/google", a.GoogleLoginHandler).Methods("GET")
	r.HandleFunc("/oauth/callback", a.OAuthCallbackHandler).Methods("GET")

	// Health
	r.HandleFunc("/health", a.HealthHandler).Methods("GET")

	// Preflight requests are answered by CORSMiddleware once a route matches
	r.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(http.ResponseWriter, *http.Request) {})
}

// HealthHandler handles health check requests
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"session": a.svc.Session.Status().String(),
		"backend": a.gateway.BaseURL(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// errorBody is the error shape of every endpoint, matching the backend's
type errorBody struct {
	Detail string          `json:"detail"`
	State  *checkout.State `json:"state,omitempty"`
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeError maps a service error to its HTTP status
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := errorStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeDetail(w, status, detail)
}

// writeCheckoutError reports a failed checkout action along with the flow's state
func (a *App) writeCheckoutError(w http.ResponseWriter, r *http.Request, st checkout.State, err error) {
	status, detail := errorStatus(err)
	switch {
	case st.StockError != "":
		detail = st.StockError
	case st.OTPError != "":
		detail = st.OTPError
	}
	if status >= http.StatusInternalServerError {
		a.logger.Error("checkout action failed", "path", r.URL.Path, "checkout_id", st.ID, "error", err)
	}
	writeJSON(w, status, errorBody{Detail: detail, State: &st})
}

func errorStatus(err error) (int, string) {
	var validation *services.ValidationError
	var shortage *checkout.StockShortageError
	var partial *checkout.PartialOrderError
	var apiErr *gateway.APIError
	var urlErr *url.Error

	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, err.Error()
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.Is(err, checkout.ErrInvalidOTP):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrNotAuthenticated):
		return http.StatusUnauthorized, "Not logged in"
	case errors.Is(err, services.ErrOrderNotFound), errors.Is(err, checkout.ErrNoFlow):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, checkout.ErrNotReady):
		return http.StatusPreconditionFailed, err.Error()
	case errors.Is(err, checkout.ErrBusy),
		errors.Is(err, checkout.ErrResendTooSoon),
		errors.Is(err, checkout.ErrInvalidTransition),
		errors.Is(err, checkout.ErrAbandoned):
		return http.StatusConflict, err.Error()
	case errors.As(err, &shortage):
		return http.StatusConflict, shortage.Error()
	case errors.As(err, &partial):
		return http.StatusBadGateway, partial.Error()
	case errors.As(err, &apiErr):
		if apiErr.Detail == "" {
			return apiErr.StatusCode, http.StatusText(apiErr.StatusCode)
		}
		return apiErr.StatusCode, apiErr.Detail
	case errors.Is(err, models.ErrMalformedResponse):
		return http.StatusBadGateway, err.Error()
	case errors.As(err, &urlErr):
		return http.StatusBadGateway, "Backend unavailable"
	}
	return http.StatusInternalServerError, "Internal Server Error"
}

// detach keeps the request values but outlives a client disconnect, so a
// multi-step backend sequence or a state save is never cut short halfway
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// decodeJSON reads a request body into v, answering 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// frontendURL resolves a UI path against the configured frontend origin
func (a *App) frontendURL(path string) string {
	origin := a.config.FrontendOrigin
	if origin == "" || origin == "*" {
		return path
	}
	return strings.TrimSuffix(origin, "/") + path
}
