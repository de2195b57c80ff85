package api

import (
	"context"
	"net/http"

	"github.com/TushxrTxndon/CampusBazaar/internal/checkout"
)

// BeginCheckoutHandler handles POST /api/v1/checkout. Starting a checkout
// abandons the previous one; the state says whether the UI must redirect.
func (a *App) BeginCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	f := a.checkouts.Begin()
	writeJSON(w, http.StatusCreated, f.State())
}

// GetCheckoutHandler handles GET /api/v1/checkout
func (a *App) GetCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	f, err := a.checkouts.Current()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f.State())
}

// AbandonCheckoutHandler handles DELETE /api/v1/checkout
func (a *App) AbandonCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.checkouts.Abandon(); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProceedHandler handles POST /api/v1/checkout/proceed
func (a *App) ProceedHandler(w http.ResponseWriter, r *http.Request) {
	a.checkoutAction(w, r, (*checkout.Flow).Proceed)
}

// SetOTPHandler handles POST /api/v1/checkout/otp
func (a *App) SetOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OTP string `json:"otp"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a.checkoutAction(w, r, func(f *checkout.Flow, _ context.Context) (checkout.State, error) {
		return f.SetOTP(req.OTP)
	})
}

// VerifyHandler handles POST /api/v1/checkout/verify
func (a *App) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	a.checkoutAction(w, r, (*checkout.Flow).Verify)
}

// ResendHandler handles POST /api/v1/checkout/resend
func (a *App) ResendHandler(w http.ResponseWriter, r *http.Request) {
	a.checkoutAction(w, r, (*checkout.Flow).Resend)
}

func (a *App) checkoutAction(w http.ResponseWriter, r *http.Request, action func(*checkout.Flow, context.Context) (checkout.State, error)) {
	f, err := a.checkouts.Current()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	st, err := action(f, detach(r))
	if err != nil {
		a.writeCheckoutError(w, r, st, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
