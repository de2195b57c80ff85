package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TushxrTxndon/CampusBazaar/internal/gateway"
	"github.com/TushxrTxndon/CampusBazaar/internal/metrics"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
)

// Catalog sort orders understood by the backend
var validSorts = map[string]bool{"": true, "name": true, "price_asc": true, "price_desc": true, "newest": true}

// ValidationError is a request rejected locally before any backend call
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// invalidImage names the rejected file and keeps the imaging cause
func invalidImage(name string, err error) error {
	return &ValidationError{Message: name + ": " + err.Error(), Err: err}
}

// ProductService serves catalog reads
type ProductService struct {
	gw      *gateway.Client
	metrics *metrics.AppMetrics
	logger  *slog.Logger
}

// NewProductService creates a new product service
func NewProductService(gw *gateway.Client, m *metrics.AppMetrics, logger *slog.Logger) *ProductService {
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductService{gw: gw, metrics: m, logger: logger.With("component", "catalog")}
}

// ListProducts returns the catalog matching filters
func (s *ProductService) ListProducts(ctx context.Context, f models.ProductFilters) ([]models.Product, error) {
	f.SortBy = strings.ToLower(strings.TrimSpace(f.SortBy))
	if !validSorts[f.SortBy] {
		return nil, invalid("unknown sort order %q", f.SortBy)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, invalid("min_price must not exceed max_price")
	}
	f.Search = strings.TrimSpace(f.Search)

	products, err := s.gw.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetProduct returns one product with its sellers
func (s *ProductService) GetProduct(ctx context.Context, pid string) (*models.Product, error) {
	p, err := s.gw.GetProduct(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", pid, err)
	}
	if len(p.Sellers) == 0 {
		sellers, err := s.gw.ProductSellers(ctx, pid)
		if err != nil {
			s.logger.Warn("failed to load sellers", "pid", pid, "error", err)
		} else {
			p.Sellers = sellers
		}
	}
	s.metrics.RecordProductView(ctx, pid)
	return p, nil
}

// Images returns the product's images in display order
func (s *ProductService) Images(ctx context.Context, pid string) ([]models.ProductImage, error) {
	images, err := s.gw.ProductImages(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to get images for %s: %w", pid, err)
	}
	if images == nil {
		images = []models.ProductImage{}
	}
	return images, nil
}

// Feedback returns the product's reviews
func (s *ProductService) Feedback(ctx context.Context, pid string) ([]models.Feedback, error) {
	feedback, err := s.gw.ProductFeedback(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback for %s: %w", pid, err)
	}
	if feedback == nil {
		feedback = []models.Feedback{}
	}
	return feedback, nil
}

// Categories returns every category
func (s *ProductService) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.gw.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// CheckStock checks one product for the product page
func (s *ProductService) CheckStock(ctx context.Context, pid string, quantity int) (*models.StockCheckResult, error) {
	if quantity <= 0 {
		return nil, invalid("quantity must be positive")
	}
	res, err := s.gw.CheckStock(ctx, pid, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to check stock for %s: %w", pid, err)
	}
	return res, nil
}
