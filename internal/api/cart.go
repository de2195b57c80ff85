package api

import (
	"net/http"

	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/TushxrTxndon/CampusBazaar/internal/services"
)

// cartView is the cart with its derived totals
type cartView struct {
	Items []models.CartLine `json:"items"`
	Total string            `json:"total"`
	Count int               `json:"count"`
}

func (a *App) cartView() cartView {
	items := a.svc.Cart.Items()
	if items == nil {
		items = []models.CartLine{}
	}
	return cartView{
		Items: items,
		Total: services.LinesTotal(items).StringFixed(2),
		Count: services.LinesCount(items),
	}
}

// GetCartHandler handles GET /api/v1/cart
func (a *App) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.cartView())
}

// AddToCartHandler handles POST /api/v1/cart/add. The body is the product as listed.
func (a *App) AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if !decodeJSON(w, r, &product) {
		return
	}
	if product.PID == "" {
		writeDetail(w, http.StatusBadRequest, "PID is required")
		return
	}

	// a failed save keeps the change in memory; report it and still answer with the cart
	if err := a.svc.Cart.AddToCart(detach(r), product); err != nil {
		a.logger.Warn("cart not persisted", "error", err)
	}
	writeJSON(w, http.StatusOK, a.cartView())
}

// RemoveFromCartHandler handles POST /api/v1/cart/remove
func (a *App) RemoveFromCartHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PID string `json:"PID"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := a.svc.Cart.RemoveFromCart(detach(r), req.PID); err != nil {
		a.logger.Warn("cart not persisted", "error", err)
	}
	writeJSON(w, http.StatusOK, a.cartView())
}

// UpdateCartHandler handles POST /api/v1/cart/update
func (a *App) UpdateCartHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PID      string `json:"PID"`
		Quantity int    `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := a.svc.Cart.UpdateQuantity(detach(r), req.PID, req.Quantity); err != nil {
		a.logger.Warn("cart not persisted", "error", err)
	}
	writeJSON(w, http.StatusOK, a.cartView())
}

// ClearCartHandler handles POST /api/v1/cart/clear
func (a *App) ClearCartHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Cart.ClearCart(detach(r)); err != nil {
		a.logger.Warn("cart not persisted", "error", err)
	}
	writeJSON(w, http.StatusOK, a.cartView())
}
