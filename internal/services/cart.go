package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/TushxrTxndon/CampusBazaar/internal/metrics"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/TushxrTxndon/CampusBazaar/internal/store"
	"github.com/shopspring/decimal"
)

// CartService holds the shopper's cart and persists it after every change
type CartService struct {
	mu      sync.Mutex
	items   []models.CartLine
	doc     *store.Document[[]models.CartLine]
	metrics *metrics.AppMetrics
	logger  *slog.Logger
	subs    subscribers[[]models.CartLine]
}

// NewCartService loads the persisted cart; a missing or corrupt record yields an empty cart
func NewCartService(ctx context.Context, doc *store.Document[[]models.CartLine], m *metrics.AppMetrics, logger *slog.Logger) *CartService {
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	items, _ := doc.Load(ctx)
	s := &CartService{
		items:   items,
		doc:     doc,
		metrics: m,
		logger:  logger.With("component", "cart"),
	}
	m.RecordCartItems(ctx, LinesCount(items))
	return s
}

// Items returns a copy of the cart lines in insertion order
func (s *CartService) Items() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyLines(s.items)
}

// AddToCart increments the line for p, or appends a new line with quantity 1
func (s *CartService) AddToCart(ctx context.Context, p models.Product) error {
	return s.mutate(ctx, func(items []models.CartLine) []models.CartLine {
		for i := range items {
			if items[i].PID == p.PID {
				items[i].Quantity++
				return items
			}
		}
		return append(items, models.NewCartLine(p))
	})
}

// RemoveFromCart drops the line for pid; absent pids are ignored
func (s *CartService) RemoveFromCart(ctx context.Context, pid string) error {
	return s.mutate(ctx, func(items []models.CartLine) []models.CartLine {
		return removeLine(items, pid)
	})
}

// UpdateQuantity sets the quantity for pid; qty <= 0 removes the line
func (s *CartService) UpdateQuantity(ctx context.Context, pid string, qty int) error {
	return s.mutate(ctx, func(items []models.CartLine) []models.CartLine {
		if qty <= 0 {
			return removeLine(items, pid)
		}
		for i := range items {
			if items[i].PID == pid {
				items[i].Quantity = qty
			}
		}
		return items
	})
}

// ClearCart empties the cart
func (s *CartService) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func([]models.CartLine) []models.CartLine {
		return []models.CartLine{}
	})
}

// Total is the sum of price times quantity
func (s *CartService) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LinesTotal(s.items)
}

// ItemCount is the sum of quantities
func (s *CartService) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LinesCount(s.items)
}

// Subscribe registers fn to receive a copy of the cart after each change.
// The returned func unregisters it.
func (s *CartService) Subscribe(fn func([]models.CartLine)) func() {
	return s.subs.add(fn)
}

// mutate applies fn to a working copy, persists the result and notifies observers.
// The in-memory cart keeps the change even when persisting fails.
func (s *CartService) mutate(ctx context.Context, fn func([]models.CartLine) []models.CartLine) error {
	s.mu.Lock()
	next := fn(copyLines(s.items))
	if next == nil {
		next = []models.CartLine{}
	}
	s.items = next
	err := s.doc.Save(ctx, next)
	snapshot := copyLines(next)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("failed to persist cart", "error", err)
	}
	s.metrics.RecordCartItems(ctx, LinesCount(snapshot))
	s.subs.notify(snapshot)
	return err
}

// LinesTotal sums price times quantity with decimal arithmetic
func LinesTotal(items []models.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// LinesCount is the sum of quantities
func LinesCount(items []models.CartLine) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func removeLine(items []models.CartLine, pid string) []models.CartLine {
	out := items[:0]
	for _, item := range items {
		if item.PID != pid {
			out = append(out, item)
		}
	}
	return out
}

func copyLines(items []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(items))
	copy(out, items)
	return out
}
