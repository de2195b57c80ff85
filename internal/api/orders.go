package api

import (
	"net/http"

	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/gorilla/mux"
)

// ListOrdersHandler handles GET /api/v1/orders
func (a *App) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := a.svc.Orders.History(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrderHandler handles GET /api/v1/orders/{id}
func (a *App) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, err := a.svc.Orders.GetOrder(r.Context(), models.OrderID(mux.Vars(r)["id"]))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// AddFeedbackHandler handles POST /api/v1/feedback
func (a *App) AddFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PID    string `json:"PID"`
		Rating int    `json:"Rating"`
		Review string `json:"Review"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PID == "" {
		writeDetail(w, http.StatusBadRequest, "PID is required")
		return
	}

	if err := a.svc.Orders.AddFeedback(r.Context(), req.PID, req.Rating, req.Review); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "Feedback added"})
}
