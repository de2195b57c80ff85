package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/TushxrTxndon/CampusBazaar/internal/models"
)

func filterQuery(f models.ProductFilters) url.Values {
	q := url.Values{}
	if f.CategoryID > 0 {
		q.Set("category_id", strconv.Itoa(f.CategoryID))
	}
	if f.MinPrice != nil {
		q.Set("min_price", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if f.SortBy != "" {
		q.Set("sort_by", f.SortBy)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

// ListProducts returns the catalog matching filters
func (c *Client) ListProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, error) {
	var products []models.Product
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/products/",
		path:   "/products/",
		query:  filterQuery(filters),
	}, &products)
	if err != nil {
		return nil, err
	}
	if err := validateEach(products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches one product with its sellers
func (c *Client) GetProduct(ctx context.Context, pid string) (*models.Product, error) {
	var product models.Product
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/products/{pid}",
		path:   "/products/" + url.PathEscape(pid),
	}, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// AddProduct creates a catalog entry
func (c *Client) AddProduct(ctx context.Context, req models.NewProductRequest) (*models.NewProductResponse, error) {
	var resp models.NewProductResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/products/add",
		path:   "/products/add",
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListCategories returns every category
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/category/",
		path:   "/category/",
	}, &categories)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// AssignCategory links a product to a category
func (c *Client) AssignCategory(ctx context.Context, req models.ProductCategoryRequest) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/product-category/assign",
		path:   "/product-category/assign",
		body:   req,
	}, nil)
}

// ProductFeedback lists the reviews of a product
func (c *Client) ProductFeedback(ctx context.Context, pid string) ([]models.Feedback, error) {
	var feedback []models.Feedback
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/feedback/product/{pid}",
		path:   "/feedback/product/" + url.PathEscape(pid),
	}, &feedback)
	if err != nil {
		return nil, err
	}
	return feedback, nil
}

// AddFeedback posts a review
func (c *Client) AddFeedback(ctx context.Context, req models.NewFeedbackRequest) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/feedback/add",
		path:   "/feedback/add",
		body:   req,
	}, nil)
}
