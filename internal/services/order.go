package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/TushxrTxndon/CampusBazaar/internal/gateway"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/google/uuid"
)

// DateLayout is the backend's calendar date format
const DateLayout = "2006-01-02"

// ErrOrderNotFound hides orders placed by other users
var ErrOrderNotFound = errors.New("order not found")

// OrderService serves the order history and reviews of the logged-in user
type OrderService struct {
	gw      *gateway.Client
	session *SessionService
	logger  *slog.Logger
	now     func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(gw *gateway.Client, session *SessionService, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{gw: gw, session: session, logger: logger.With("component", "orders"), now: time.Now}
}

// History lists the current user's orders
func (s *OrderService) History(ctx context.Context) ([]models.Order, error) {
	user, err := s.session.RequireUser()
	if err != nil {
		return nil, err
	}
	orders, err := s.gw.GetUserOrders(ctx, user.EmailID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// GetOrder returns one of the current user's orders
func (s *OrderService) GetOrder(ctx context.Context, id models.OrderID) (*models.Order, error) {
	user, err := s.session.RequireUser()
	if err != nil {
		return nil, err
	}
	order, err := s.gw.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	if order.EmailID != "" && !strings.EqualFold(order.EmailID, user.EmailID) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// AddFeedback posts a review by the current user
func (s *OrderService) AddFeedback(ctx context.Context, pid string, rating int, review string) error {
	user, err := s.session.RequireUser()
	if err != nil {
		return err
	}
	if pid == "" {
		return invalid("PID is required")
	}
	if rating < 1 || rating > 5 {
		return invalid("Rating must be between 1 and 5")
	}

	req := models.NewFeedbackRequest{
		FeedBackID: int(uuid.New().ID() & 0x7fffffff),
		Date:       s.now().Format(DateLayout),
		Rating:     rating,
		Review:     strings.TrimSpace(review),
		EmailID:    user.EmailID,
		PID:        pid,
	}
	if err := s.gw.AddFeedback(ctx, req); err != nil {
		return fmt.Errorf("failed to add feedback: %w", err)
	}
	s.logger.Info("feedback added", "pid", pid, "rating", rating)
	return nil
}
