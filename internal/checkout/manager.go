package checkout

import (
	"log/slog"
	"sync"
	"time"

	"github.com/TushxrTxndon/CampusBazaar/internal/metrics"
	"github.com/TushxrTxndon/CampusBazaar/internal/services"
	"github.com/google/uuid"
)

type deps struct {
	gw        Gateway
	cart      *services.CartService
	session   *services.SessionService
	metrics   *metrics.AppMetrics
	logger    *slog.Logger
	now       func() time.Time
	newTicker TickerFunc
}

// Option configures a Manager
type Option func(*deps)

func WithMetrics(m *metrics.AppMetrics) Option {
	return func(d *deps) { d.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *deps) { d.logger = l }
}

// WithClock sets the clock used for the order date
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithTicker replaces the one-second countdown ticker
func WithTicker(t TickerFunc) Option {
	return func(d *deps) { d.newTicker = t }
}

// Manager holds the checkout page of the single shopper context. Beginning a
// new checkout abandons the previous one.
type Manager struct {
	deps deps

	mu      sync.Mutex
	current *Flow
}

func NewManager(gw Gateway, cart *services.CartService, session *services.SessionService, opts ...Option) *Manager {
	d := deps{
		gw:        gw,
		cart:      cart,
		session:   session,
		metrics:   metrics.NewNoopMetrics(),
		logger:    slog.Default(),
		now:       time.Now,
		newTicker: realTicker,
	}
	for _, opt := range opts {
		opt(&d)
	}
	d.logger = d.logger.With("component", "checkout")
	return &Manager{deps: d}
}

// Begin starts a fresh flow at the review step
func (m *Manager) Begin() *Flow {
	f := newFlow(uuid.NewString(), m.deps)

	m.mu.Lock()
	prev := m.current
	m.current = f
	m.mu.Unlock()

	if prev != nil {
		prev.Abandon()
	}
	f.logger.Info("checkout started", "guard", f.State().Guard.String())
	return f
}

// Current returns the active flow
func (m *Manager) Current() (*Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoFlow
	}
	return m.current, nil
}

// Abandon tears down the active flow
func (m *Manager) Abandon() error {
	m.mu.Lock()
	f := m.current
	m.current = nil
	m.mu.Unlock()

	if f == nil {
		return ErrNoFlow
	}
	f.Abandon()
	return nil
}
