package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/TushxrTxndon/CampusBazaar/internal/metrics"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/TushxrTxndon/CampusBazaar/internal/services"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PaymentMethod is the only payment method the backend offers
const PaymentMethod = "email-otp"

const otpLength = 6

// State is a snapshot of a flow for the UI
type State struct {
	ID            string            `json:"id"`
	Step          Step              `json:"step"`
	StepName      string            `json:"step_name"`
	OrderID       models.OrderID    `json:"order_id,omitempty"`
	OTP           string            `json:"otp"`
	Countdown     int               `json:"countdown"`
	CanResend     bool              `json:"can_resend"`
	PaymentMethod string            `json:"payment_method"`
	StockError    string            `json:"stock_error,omitempty"`
	OTPError      string            `json:"otp_error,omitempty"`
	Notice        string            `json:"notice,omitempty"`
	Loading       bool              `json:"loading"`
	Total         string            `json:"total"`
	Items         []models.CartLine `json:"items"`
	Guard         Guard             `json:"guard"`
	Redirect      string            `json:"redirect,omitempty"`
}

// Flow is one checkout attempt
type Flow struct {
	id        string
	gw        Gateway
	cart      *services.CartService
	session   *services.SessionService
	metrics   *metrics.AppMetrics
	logger    *slog.Logger
	now       func() time.Time
	newTicker TickerFunc

	mu         sync.Mutex
	step       Step
	guard      Guard
	orderID    models.OrderID
	otp        string
	countdown  int
	stockError string
	otpError   string
	notice     string
	loading    bool
	closed     bool
	paidTotal  decimal.Decimal
	paidItems  []models.CartLine
	stopTick   func()
	tickGen    uint64
	unsubs     []func()
}

func newFlow(id string, d deps) *Flow {
	f := &Flow{
		id:        id,
		gw:        d.gw,
		cart:      d.cart,
		session:   d.session,
		metrics:   d.metrics,
		logger:    d.logger.With("checkout_id", id),
		now:       d.now,
		newTicker: d.newTicker,
		step:      StepReview,
	}
	f.guard = Evaluate(f.session.Status(), f.cart.ItemCount(), f.step)

	f.unsubs = append(f.unsubs,
		f.cart.Subscribe(func([]models.CartLine) { f.reevaluate() }),
		f.session.Subscribe(func(services.SessionSnapshot) { f.reevaluate() }),
	)
	return f
}

// ID identifies the flow
func (f *Flow) ID() string { return f.id }

// reevaluate recomputes the guard from the live cart and session. Notifications
// may arrive out of order, so their payloads are not trusted.
func (f *Flow) reevaluate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	g := Evaluate(f.session.Status(), f.cart.ItemCount(), f.step)
	if g != f.guard {
		f.logger.Info("checkout guard changed", "from", f.guard.String(), "to", g.String())
		f.guard = g
	}
}

// State returns a snapshot
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *Flow) stateLocked() State {
	s := State{
		ID:            f.id,
		Step:          f.step,
		StepName:      f.step.String(),
		OrderID:       f.orderID,
		OTP:           f.otp,
		Countdown:     f.countdown,
		CanResend:     f.canResendLocked(),
		PaymentMethod: PaymentMethod,
		StockError:    f.stockError,
		OTPError:      f.otpError,
		Notice:        f.notice,
		Loading:       f.loading,
		Guard:         f.guard,
		Redirect:      f.guard.RedirectPath(),
	}
	if f.step == StepReview {
		items := f.cart.Items()
		s.Items = items
		s.Total = services.LinesTotal(items).StringFixed(2)
	} else {
		s.Items = append([]models.CartLine{}, f.paidItems...)
		s.Total = f.paidTotal.StringFixed(2)
	}
	return s
}

// Proceed places the order: stock check, order creation, one detail per cart
// line, payment initiation. On success the flow waits for the OTP.
func (f *Flow) Proceed(ctx context.Context) (State, error) {
	f.mu.Lock()
	if err := f.beginCallLocked(StepReview); err != nil {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, err
	}
	user := f.session.User()
	if user == nil {
		f.loading = false
		st := f.stateLocked()
		f.mu.Unlock()
		return st, services.ErrNotAuthenticated
	}
	items := f.cart.Items()
	p := &placement{
		email:     user.EmailID,
		orderDate: f.now().UTC().Format(services.DateLayout),
		items:     items,
		total:     services.LinesTotal(items),
	}
	f.stockError = ""
	f.mu.Unlock()

	err := p.run(ctx, f.gw)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if f.closed {
		f.logger.Info("discarding placement result of abandoned checkout", "order_id", p.orderID.String())
		return f.stateLocked(), ErrAbandoned
	}

	if err != nil {
		ev := EventPlacementFailed
		var shortage *StockShortageError
		if errors.As(err, &shortage) {
			ev = EventStockShort
			f.metrics.StockShortages.Add(ctx, 1, metric.WithAttributes(f.metrics.WithServiceName([]attribute.KeyValue{
				attribute.Int("checkout.short_items", len(shortage.Items)),
			})...))
		}
		var partial *PartialOrderError
		if errors.As(err, &partial) {
			f.logger.Warn("order left incomplete on backend",
				"order_id", partial.OrderID.String(), "stage", partial.Stage, "error", partial.Err)
		} else if ev == EventPlacementFailed {
			f.logger.Warn("order placement failed", "error", err)
		}
		f.orderID = ""
		f.stockError = placementMessage(err)
		f.transitionLocked(ctx, ev)
		return f.stateLocked(), err
	}

	f.orderID = p.orderID
	f.paidTotal = p.total
	f.paidItems = p.items
	f.otp = ""
	f.otpError = ""
	f.notice = ""
	f.countdown = OTPValiditySeconds
	f.transitionLocked(ctx, EventOrderPlaced)
	f.startTickerLocked()
	f.logger.Info("order placed, awaiting OTP", "order_id", p.orderID.String(), "total", p.total.StringFixed(2))
	return f.stateLocked(), nil
}

// SetOTP stores the OTP input, keeping only digits and at most six of them
func (f *Flow) SetOTP(raw string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return f.stateLocked(), ErrAbandoned
	}
	if f.step != StepOTP {
		return f.stateLocked(), ErrInvalidTransition
	}
	f.otp = sanitizeOTP(raw)
	return f.stateLocked(), nil
}

// Verify submits the OTP. A malformed OTP is rejected without a backend call.
func (f *Flow) Verify(ctx context.Context) (State, error) {
	f.mu.Lock()
	if err := f.beginCallLocked(StepOTP); err != nil {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, err
	}
	f.otpError = ""
	f.notice = ""
	if len(f.otp) != otpLength {
		f.loading = false
		f.otpError = ErrInvalidOTP.Error()
		st := f.stateLocked()
		f.mu.Unlock()
		return st, ErrInvalidOTP
	}
	user := f.session.User()
	if user == nil {
		f.loading = false
		st := f.stateLocked()
		f.mu.Unlock()
		return st, services.ErrNotAuthenticated
	}
	req := models.VerifyPaymentRequest{EmailID: user.EmailID, OTP: f.otp, OrderID: f.orderID}
	f.mu.Unlock()

	_, err := f.gw.VerifyPayment(ctx, req)

	f.mu.Lock()
	f.loading = false
	if f.closed {
		st := f.stateLocked()
		f.mu.Unlock()
		f.logger.Info("discarding verification result of abandoned checkout", "order_id", req.OrderID.String())
		return st, ErrAbandoned
	}
	if err != nil {
		f.otpError = detailOr(err, msgInvalidOTP)
		f.otp = ""
		f.metrics.OTPFailures.Add(ctx, 1, metric.WithAttributes(f.metrics.WithServiceName(nil)...))
		f.transitionLocked(ctx, EventOTPRejected)
		st := f.stateLocked()
		f.mu.Unlock()
		return st, err
	}

	f.transitionLocked(ctx, EventOTPVerified)
	f.stopTickerLocked()
	f.metrics.OrdersPlaced.Add(ctx, 1, metric.WithAttributes(f.metrics.WithServiceName(nil)...))
	f.metrics.RevenueTotal.Add(ctx, f.paidTotal.InexactFloat64(), metric.WithAttributes(f.metrics.WithServiceName(nil)...))
	f.logger.Info("payment verified", "order_id", req.OrderID.String(), "total", f.paidTotal.StringFixed(2))
	f.mu.Unlock()

	// cart observers re-enter the flow, so the lock must be released first
	if err := f.cart.ClearCart(ctx); err != nil {
		f.logger.Error("failed to clear cart after payment", "error", err)
	}
	return f.State(), nil
}

// Resend requests a fresh OTP once the resend window is open
func (f *Flow) Resend(ctx context.Context) (State, error) {
	f.mu.Lock()
	if f.closed {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, ErrAbandoned
	}
	if f.step == StepOTP && !f.loading && f.countdown > resendThreshold {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, ErrResendTooSoon
	}
	if err := f.beginCallLocked(StepOTP); err != nil {
		st := f.stateLocked()
		f.mu.Unlock()
		return st, err
	}
	f.notice = ""
	user := f.session.User()
	if user == nil {
		f.loading = false
		st := f.stateLocked()
		f.mu.Unlock()
		return st, services.ErrNotAuthenticated
	}
	email, orderID := user.EmailID, f.orderID
	f.mu.Unlock()

	_, err := f.gw.ResendOTP(ctx, email, orderID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if f.closed {
		return f.stateLocked(), ErrAbandoned
	}
	if err != nil {
		f.notice = detailOr(err, msgResendFailed)
		return f.stateLocked(), err
	}

	f.countdown = OTPValiditySeconds
	f.otpError = ""
	f.notice = msgOTPResent
	f.transitionLocked(ctx, EventOTPResent)
	f.startTickerLocked()
	return f.stateLocked(), nil
}

// Abandon stops the countdown and detaches the flow; late results are discarded
func (f *Flow) Abandon() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.stopTickerLocked()
	unsubs := f.unsubs
	f.unsubs = nil
	f.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	f.logger.Info("checkout abandoned")
}

// beginCallLocked checks that a network call may start from step and marks the flow busy
func (f *Flow) beginCallLocked(step Step) error {
	switch {
	case f.closed:
		return ErrAbandoned
	case f.loading:
		return ErrBusy
	case f.guard != GuardReady:
		return ErrNotReady
	case f.step != step:
		return ErrInvalidTransition
	}
	f.loading = true
	return nil
}

func (f *Flow) transitionLocked(ctx context.Context, ev Event) {
	next, err := Next(f.step, ev)
	if err != nil {
		f.logger.Error("rejected checkout transition", "error", err)
		return
	}
	f.metrics.RecordCheckoutTransition(ctx, f.step.String(), next.String(), ev.String())
	f.step = next
}

func sanitizeOTP(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == otpLength {
				break
			}
		}
	}
	return b.String()
}
