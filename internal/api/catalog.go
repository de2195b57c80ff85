package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/gorilla/mux"
)

// ListProductsHandler handles GET /api/v1/products
func (a *App) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := a.svc.Products.ListProducts(r.Context(), filters)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

type inputError string

func (e inputError) Error() string { return string(e) }

func parseFilters(q url.Values) (models.ProductFilters, error) {
	f := models.ProductFilters{
		SortBy: q.Get("sort_by"),
		Search: q.Get("search"),
	}
	if v := q.Get("category_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return f, inputError("Invalid category_id")
		}
		f.CategoryID = id
	}
	for _, p := range []struct {
		key string
		dst **float64
	}{{"min_price", &f.MinPrice}, {"max_price", &f.MaxPrice}} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, inputError("Invalid " + p.key)
		}
		*p.dst = &n
	}
	return f, nil
}

// GetProductHandler handles GET /api/v1/products/{pid}
func (a *App) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	product, err := a.svc.Products.GetProduct(r.Context(), mux.Vars(r)["pid"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// ProductImagesHandler handles GET /api/v1/products/{pid}/images
func (a *App) ProductImagesHandler(w http.ResponseWriter, r *http.Request) {
	images, err := a.svc.Products.Images(r.Context(), mux.Vars(r)["pid"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// ProductFeedbackHandler handles GET /api/v1/products/{pid}/feedback
func (a *App) ProductFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	feedback, err := a.svc.Products.Feedback(r.Context(), mux.Vars(r)["pid"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

// CheckStockHandler handles GET /api/v1/products/{pid}/stock
func (a *App) CheckStockHandler(w http.ResponseWriter, r *http.Request) {
	quantity := 1
	if q := r.URL.Query().Get("quantity"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid quantity")
			return
		}
		quantity = parsed
	}

	result, err := a.svc.Products.CheckStock(r.Context(), mux.Vars(r)["pid"], quantity)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListCategoriesHandler handles GET /api/v1/categories
func (a *App) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := a.svc.Products.Categories(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}
