package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/TushxrTxndon/CampusBazaar/internal/gateway"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/TushxrTxndon/CampusBazaar/internal/services"
	"github.com/TushxrTxndon/CampusBazaar/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway scripts backend answers and records the call sequence
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	stock       *models.BatchStockResult
	stockErr    error
	orderID     models.OrderID
	createErr   error
	detailErrAt int // 1-based line index that fails, 0 for none
	initiateErr error
	verifyErr   error
	resendErr   error

	details  []models.OrderDetailRequest
	payments []models.PaymentInitiateRequest
	verifies []models.VerifyPaymentRequest

	// block, when set, holds VerifyPayment until closed
	block chan struct{}
}

func sufficient(ok bool, short ...models.InsufficientItem) *models.BatchStockResult {
	return &models.BatchStockResult{AllSufficient: &ok, InsufficientItems: short}
}

func (g *fakeGateway) record(name string) {
	g.mu.Lock()
	g.calls = append(g.calls, name)
	g.mu.Unlock()
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) CheckStockMultiple(_ context.Context, items []models.StockCheckItem) (*models.BatchStockResult, error) {
	g.record("stock")
	if g.stockErr != nil {
		return nil, g.stockErr
	}
	if g.stock == nil {
		return sufficient(true), nil
	}
	return g.stock, nil
}

func (g *fakeGateway) CreateOrder(_ context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	g.record("create")
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &models.CreateOrderResponse{OrderID: g.orderID}, nil
}

func (g *fakeGateway) AddOrderDetail(_ context.Context, req models.OrderDetailRequest) error {
	g.record("detail:" + req.PID)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.details = append(g.details, req)
	if g.detailErrAt > 0 && len(g.details) == g.detailErrAt {
		return &gateway.APIError{StatusCode: 400, Detail: "Product not found"}
	}
	return nil
}

func (g *fakeGateway) InitiatePayment(_ context.Context, req models.PaymentInitiateRequest) (*models.OTPDispatch, error) {
	g.record("initiate")
	g.mu.Lock()
	g.payments = append(g.payments, req)
	g.mu.Unlock()
	if g.initiateErr != nil {
		return nil, g.initiateErr
	}
	return &models.OTPDispatch{Email: req.EmailID, ExpiresIn: 300}, nil
}

func (g *fakeGateway) VerifyPayment(_ context.Context, req models.VerifyPaymentRequest) (*models.PaymentReceipt, error) {
	g.record("verify")
	g.mu.Lock()
	g.verifies = append(g.verifies, req)
	block := g.block
	g.mu.Unlock()
	if block != nil {
		<-block
	}
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return &models.PaymentReceipt{OrderID: req.OrderID, Status: "completed"}, nil
}

func (g *fakeGateway) ResendOTP(_ context.Context, email string, orderID models.OrderID) (*models.OTPDispatch, error) {
	g.record("resend")
	if g.resendErr != nil {
		return nil, g.resendErr
	}
	return &models.OTPDispatch{Email: email, ExpiresIn: 300}, nil
}

// silentTicker never fires; tests drive the countdown with tick()
func silentTicker(time.Duration) (<-chan time.Time, func()) {
	return nil, func() {}
}

type fixture struct {
	gw      *fakeGateway
	cart    *services.CartService
	session *services.SessionService
	manager *Manager
}

func newFixture(t *testing.T, loggedIn bool, products ...models.Product) *fixture {
	t.Helper()
	ctx := context.Background()
	backend := store.NewMemoryBackend()

	cart := services.NewCartService(ctx, store.NewDocument[[]models.CartLine](backend, store.KeyCart, nil), nil, nil)
	for _, p := range products {
		require.NoError(t, cart.AddToCart(ctx, p))
	}

	session := services.NewSessionService(store.NewDocument[*models.UserProfile](backend, store.KeyUser, nil), nil, nil)
	session.Restore(ctx)
	if loggedIn {
		_, err := session.Login(ctx, models.UserProfile{EmailID: "buyer@x.edu", FirstName: "B"})
		require.NoError(t, err)
	}

	gw := &fakeGateway{orderID: "O1"}
	clock := func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	m := NewManager(gw, cart, session, WithTicker(silentTicker), WithClock(clock))
	return &fixture{gw: gw, cart: cart, session: session, manager: m}
}

func p1() models.Product { return models.Product{PID: "P1", ProductName: "Lamp", Price: 20} }
func p2() models.Product { return models.Product{PID: "P2", ProductName: "Chair", Price: 5.5} }

func TestNextTransitions(t *testing.T) {
	tests := []struct {
		from Step
		ev   Event
		to   Step
		ok   bool
	}{
		{StepReview, EventOrderPlaced, StepOTP, true},
		{StepReview, EventStockShort, StepReview, true},
		{StepReview, EventPlacementFailed, StepReview, true},
		{StepReview, EventOTPVerified, StepReview, false},
		{StepPayment, EventOrderPlaced, StepPayment, false},
		{StepPayment, EventOTPVerified, StepPayment, false},
		{StepOTP, EventOTPVerified, StepSuccess, true},
		{StepOTP, EventOTPRejected, StepOTP, true},
		{StepOTP, EventOTPResent, StepOTP, true},
		{StepOTP, EventOrderPlaced, StepOTP, false},
		{StepSuccess, EventOTPVerified, StepSuccess, false},
		{StepSuccess, EventOrderPlaced, StepSuccess, false},
		{Step(9), EventOrderPlaced, Step(9), false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.ev.String(), func(t *testing.T) {
			got, err := Next(tt.from, tt.ev)
			assert.Equal(t, tt.to, got)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestEvaluateGuard(t *testing.T) {
	assert.Equal(t, GuardLoading, Evaluate(services.StatusLoading, 0, StepReview))
	assert.Equal(t, GuardRedirectLogin, Evaluate(services.StatusAnonymous, 3, StepReview))
	assert.Equal(t, GuardRedirectCart, Evaluate(services.StatusAuthenticated, 0, StepReview))
	assert.Equal(t, GuardRedirectCart, Evaluate(services.StatusAuthenticated, 0, StepOTP))
	assert.Equal(t, GuardReady, Evaluate(services.StatusAuthenticated, 0, StepSuccess))
	assert.Equal(t, GuardReady, Evaluate(services.StatusAuthenticated, 2, StepReview))
	assert.Equal(t, "/login", GuardRedirectLogin.RedirectPath())
	assert.Empty(t, GuardReady.RedirectPath())
}

func TestGuardWhileSessionLoading(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	cart := services.NewCartService(ctx, store.NewDocument[[]models.CartLine](backend, store.KeyCart, nil), nil, nil)
	session := services.NewSessionService(store.NewDocument[*models.UserProfile](backend, store.KeyUser, nil), nil, nil)
	m := NewManager(&fakeGateway{}, cart, session, WithTicker(silentTicker))

	f := m.Begin()
	assert.Equal(t, GuardLoading, f.State().Guard)

	_, err := f.Proceed(ctx)
	assert.ErrorIs(t, err, ErrNotReady)

	session.Restore(ctx)
	assert.Equal(t, GuardRedirectLogin, f.State().Guard)
}

func TestGuardFollowsCartAndSession(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	f := fx.manager.Begin()
	assert.Equal(t, GuardReady, f.State().Guard)

	require.NoError(t, fx.cart.ClearCart(ctx))
	assert.Equal(t, GuardRedirectCart, f.State().Guard)
	assert.Equal(t, "/cart", f.State().Redirect)

	require.NoError(t, fx.cart.AddToCart(ctx, p1()))
	assert.Equal(t, GuardReady, f.State().Guard)

	require.NoError(t, fx.session.Logout(ctx))
	assert.Equal(t, GuardRedirectLogin, f.State().Guard)
}

func TestGuardIgnoresLateCartNotification(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	f := fx.manager.Begin()

	// hold the "cleared" notification until the cart has been refilled
	cleared := make(chan struct{})
	release := make(chan struct{})
	unsub := fx.cart.Subscribe(func(items []models.CartLine) {
		if len(items) == 0 {
			close(cleared)
			<-release
		}
	})
	defer unsub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, fx.cart.ClearCart(ctx))
	}()
	<-cleared
	require.NoError(t, fx.cart.AddToCart(ctx, p1()))
	close(release)
	<-done

	assert.Equal(t, 1, fx.cart.ItemCount())
	assert.Equal(t, GuardReady, f.State().Guard)
	st, err := f.Proceed(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepOTP, st.Step)
}

func TestStockShortageCreatesNoOrder(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1(), p2())
	fx.gw.stock = sufficient(false, models.InsufficientItem{PID: "P2", RequestedQuantity: 1, AvailableStock: 0}, models.InsufficientItem{PID: "P9"})
	f := fx.manager.Begin()

	st, err := f.Proceed(ctx)

	var shortage *StockShortageError
	require.True(t, errors.As(err, &shortage))
	assert.Equal(t, StepReview, st.Step)
	assert.Empty(t, st.OrderID)
	assert.Equal(t, "Insufficient stock for: Chair, P9. Please update your cart and try again.", st.StockError)
	assert.Equal(t, []string{"stock"}, fx.gw.Calls())
	assert.Equal(t, 2, fx.cart.ItemCount(), "cart is untouched")
	assert.False(t, st.Loading)
}

func TestHappyPath(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	f := fx.manager.Begin()

	st, err := f.Proceed(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepOTP, st.Step)
	assert.Equal(t, models.OrderID("O1"), st.OrderID)
	assert.Equal(t, OTPValiditySeconds, st.Countdown)
	assert.Equal(t, []string{"stock", "create", "detail:P1", "initiate"}, fx.gw.Calls())
	require.Len(t, fx.gw.payments, 1)
	assert.Equal(t, 20.0, fx.gw.payments[0].Amount)
	assert.Equal(t, models.OrderID("O1"), fx.gw.payments[0].OrderID)

	_, err = f.SetOTP("123456")
	require.NoError(t, err)
	st, err = f.Verify(ctx)
	require.NoError(t, err)

	assert.Equal(t, StepSuccess, st.Step)
	assert.Equal(t, "success", st.StepName)
	assert.Equal(t, models.OrderID("O1"), st.OrderID)
	assert.Equal(t, "20.00", st.Total)
	assert.Equal(t, GuardReady, st.Guard, "success stays visible with an empty cart")
	assert.Zero(t, fx.cart.ItemCount())
	assert.Equal(t, "123456", fx.gw.verifies[0].OTP)
	assert.Equal(t, "buyer@x.edu", fx.gw.verifies[0].EmailID)

	_, err = f.Verify(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition, "success is terminal")
}

func TestOrderLinesFollowCartOrder(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p2(), p1(), p2())
	f := fx.manager.Begin()

	_, err := f.Proceed(ctx)
	require.NoError(t, err)

	require.Len(t, fx.gw.details, 2)
	assert.Equal(t, models.OrderDetailRequest{OrderID: "O1", PID: "P2", OrderQty: 2}, fx.gw.details[0])
	assert.Equal(t, models.OrderDetailRequest{OrderID: "O1", PID: "P1", OrderQty: 1}, fx.gw.details[1])
	assert.Equal(t, 31.0, fx.gw.payments[0].Amount)
}

func TestPartialOrderFailure(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1(), p2())
	fx.gw.detailErrAt = 2
	f := fx.manager.Begin()

	st, err := f.Proceed(ctx)

	var partial *PartialOrderError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, models.OrderID("O1"), partial.OrderID)
	assert.Equal(t, StageOrderDetails, partial.Stage)
	assert.Equal(t, StepReview, st.Step)
	assert.Empty(t, st.OrderID)
	assert.Equal(t, "Product not found", st.StockError)
	assert.NotContains(t, fx.gw.Calls(), "initiate")
}

func TestPaymentInitiationFailureIsPartial(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	fx.gw.initiateErr = errors.New("connection reset")
	f := fx.manager.Begin()

	st, err := f.Proceed(ctx)

	var partial *PartialOrderError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, StagePaymentInitiation, partial.Stage)
	assert.Equal(t, "Failed to create order. Please try again.", st.StockError)
}

func TestFirstStepFailureIsNotPartial(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	fx.gw.createErr = &gateway.APIError{StatusCode: 400, Detail: "Invalid email"}
	f := fx.manager.Begin()

	st, err := f.Proceed(ctx)

	var partial *PartialOrderError
	assert.False(t, errors.As(err, &partial))
	assert.Equal(t, "Invalid email", st.StockError)
}

func TestServerStockDetailIsRewritten(t *testing.T) {
	for _, detail := range []string{"Insufficient stock for product P1", "1644 (45000): stock too low"} {
		ctx := context.Background()
		fx := newFixture(t, true, p1())
		fx.gw.createErr = &gateway.APIError{StatusCode: 400, Detail: detail}
		f := fx.manager.Begin()

		st, err := f.Proceed(ctx)
		require.Error(t, err)
		assert.Equal(t, "One or more products have insufficient stock. Please update your cart and try again.", st.StockError)
	}
}

func TestRetryAfterFailure(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	fx.gw.stockErr = errors.New("timeout")
	f := fx.manager.Begin()

	_, err := f.Proceed(ctx)
	require.Error(t, err)

	fx.gw.stockErr = nil
	st, err := f.Proceed(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepOTP, st.Step)
	assert.Empty(t, st.StockError)
}

func enterOTP(t *testing.T, fx *fixture) *Flow {
	t.Helper()
	f := fx.manager.Begin()
	_, err := f.Proceed(context.Background())
	require.NoError(t, err)
	return f
}

func TestOTPFormatGate(t *testing.T) {
	fx := newFixture(t, true, p1())
	f := enterOTP(t, fx)

	for _, input := range []string{"12a45", "1234"} {
		st, err := f.SetOTP(input)
		require.NoError(t, err)
		assert.Len(t, st.OTP, 4)

		st, err = f.Verify(context.Background())
		assert.ErrorIs(t, err, ErrInvalidOTP)
		assert.Equal(t, "OTP must be 6 digits", st.OTPError)
		assert.False(t, st.Loading)
	}
	assert.NotContains(t, fx.gw.Calls(), "verify")
}

func TestSanitizeOTP(t *testing.T) {
	assert.Equal(t, "1245", sanitizeOTP("12a45"))
	assert.Equal(t, "123456", sanitizeOTP("12-34-56-78"))
	assert.Equal(t, "", sanitizeOTP("abc"))
	assert.Equal(t, "2", sanitizeOTP("１2"), "only ASCII digits count")
}

func TestOTPRejected(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	fx.gw.verifyErr = &gateway.APIError{StatusCode: 400, Detail: "OTP expired"}
	f := enterOTP(t, fx)
	f.tick()

	_, err := f.SetOTP("654321")
	require.NoError(t, err)
	st, err := f.Verify(ctx)

	require.Error(t, err)
	assert.Equal(t, StepOTP, st.Step)
	assert.Equal(t, "OTP expired", st.OTPError)
	assert.Empty(t, st.OTP)
	assert.Equal(t, 299, st.Countdown, "countdown is preserved")
	assert.Equal(t, 1, fx.cart.ItemCount())

	fx.gw.verifyErr = errors.New("network down")
	_, err = f.SetOTP("654321")
	require.NoError(t, err)
	st, _ = f.Verify(ctx)
	assert.Equal(t, "Invalid OTP. Please try again.", st.OTPError)
}

func TestResendThrottle(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	f := enterOTP(t, fx)

	st := f.State()
	assert.Equal(t, 300, st.Countdown)
	assert.False(t, st.CanResend)
	_, err := f.Resend(ctx)
	assert.ErrorIs(t, err, ErrResendTooSoon)

	for i := 0; i < 59; i++ {
		f.tick()
	}
	assert.Equal(t, 241, f.State().Countdown)
	assert.False(t, f.State().CanResend)

	f.tick()
	assert.Equal(t, 240, f.State().Countdown)
	assert.True(t, f.State().CanResend)

	st, err = f.Resend(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, st.Countdown)
	assert.Equal(t, "OTP has been resent to your email", st.Notice)
	assert.False(t, st.CanResend)
	assert.Equal(t, 1, countCalls(fx.gw.Calls(), "resend"))
}

func TestResendFailureNotice(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	fx.gw.resendErr = errors.New("boom")
	f := enterOTP(t, fx)
	for i := 0; i < 60; i++ {
		f.tick()
	}

	st, err := f.Resend(ctx)
	require.Error(t, err)
	assert.Equal(t, "Failed to resend OTP", st.Notice)
	assert.Equal(t, 240, st.Countdown)
}

func TestResendClearsOTPError(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	fx.gw.verifyErr = &gateway.APIError{StatusCode: 400, Detail: "Invalid OTP"}
	f := enterOTP(t, fx)
	_, _ = f.SetOTP("000000")
	st, _ := f.Verify(ctx)
	require.NotEmpty(t, st.OTPError)

	for i := 0; i < 60; i++ {
		f.tick()
	}
	st, err := f.Resend(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.OTPError)
}

func TestCountdownStopsAtZero(t *testing.T) {
	fx := newFixture(t, true, p1())
	f := enterOTP(t, fx)

	for i := 0; i < OTPValiditySeconds+5; i++ {
		f.tick()
	}
	st := f.State()
	assert.Equal(t, 0, st.Countdown)
	assert.True(t, st.CanResend)

	f.mu.Lock()
	assert.Nil(t, f.stopTick)
	f.mu.Unlock()
}

func TestRealTickerCountsDown(t *testing.T) {
	ticks := make(chan time.Time)
	stopped := make(chan struct{})
	fx := newFixture(t, true, p1())
	fx.manager.deps.newTicker = func(time.Duration) (<-chan time.Time, func()) {
		return ticks, func() { close(stopped) }
	}
	f := enterOTP(t, fx)

	ticks <- time.Now()
	ticks <- time.Now()
	assert.Eventually(t, func() bool { return f.State().Countdown == 298 }, time.Second, 5*time.Millisecond)

	require.NoError(t, fx.manager.Abandon())
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("ticker not stopped on abandon")
	}
}

func TestConcurrentCallIsBusy(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	f := enterOTP(t, fx)
	fx.gw.block = make(chan struct{})
	_, err := f.SetOTP("123456")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.Verify(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return f.State().Loading }, time.Second, time.Millisecond)

	_, err = f.Verify(ctx)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = f.Resend(ctx)
	assert.ErrorIs(t, err, ErrBusy)

	close(fx.gw.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, countCalls(fx.gw.Calls(), "verify"))
}

func TestAbandonDiscardsLateResult(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	f := enterOTP(t, fx)
	fx.gw.block = make(chan struct{})
	_, err := f.SetOTP("123456")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.Verify(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return f.State().Loading }, time.Second, time.Millisecond)

	require.NoError(t, fx.manager.Abandon())
	close(fx.gw.block)

	assert.ErrorIs(t, <-done, ErrAbandoned)
	assert.Equal(t, StepOTP, f.State().Step)
	assert.Equal(t, 1, fx.cart.ItemCount(), "late success is not applied")

	_, err = fx.manager.Current()
	assert.ErrorIs(t, err, ErrNoFlow)
}

func TestBeginReplacesPreviousFlow(t *testing.T) {
	fx := newFixture(t, true, p1())
	first := enterOTP(t, fx)

	second := fx.manager.Begin()
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, StepReview, second.State().Step)

	_, err := first.SetOTP("123456")
	assert.ErrorIs(t, err, ErrAbandoned)

	cur, err := fx.manager.Current()
	require.NoError(t, err)
	assert.Same(t, second, cur)
}

func TestAnonymousCannotProceed(t *testing.T) {
	fx := newFixture(t, false, p1())
	f := fx.manager.Begin()

	st, err := f.Proceed(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, GuardRedirectLogin, st.Guard)
	assert.Empty(t, fx.gw.Calls())
}

func TestOrderDateUsesClock(t *testing.T) {
	fx := newFixture(t, true, p1())
	var got models.CreateOrderRequest
	gw := &recordingCreate{fakeGateway: fx.gw, got: &got}
	m := NewManager(gw, fx.cart, fx.session, WithTicker(silentTicker),
		WithClock(func() time.Time { return time.Date(2025, 1, 1, 2, 0, 0, 0, time.FixedZone("IST", 5*3600+1800)) }))

	_, err := m.Begin().Proceed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", got.OrderDate)
	assert.Equal(t, "buyer@x.edu", got.EmailID)
}

type recordingCreate struct {
	*fakeGateway
	got *models.CreateOrderRequest
}

func (r *recordingCreate) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	*r.got = req
	return r.fakeGateway.CreateOrder(ctx, req)
}

func TestStateItemsAfterPlacement(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, true, p1())
	f := enterOTP(t, fx)

	require.NoError(t, fx.cart.AddToCart(ctx, p2()))
	st := f.State()
	assert.Equal(t, "20.00", st.Total, "OTP step shows what is being paid")
	require.Len(t, st.Items, 1)
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}
