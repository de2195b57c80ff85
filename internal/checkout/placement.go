package checkout

import (
	"context"
	"fmt"

	"github.com/TushxrTxndon/CampusBazaar/internal/models"
	"github.com/shopspring/decimal"
)

// Gateway is the part of the backend the checkout needs
type Gateway interface {
	CheckStockMultiple(ctx context.Context, items []models.StockCheckItem) (*models.BatchStockResult, error)
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error)
	AddOrderDetail(ctx context.Context, req models.OrderDetailRequest) error
	InitiatePayment(ctx context.Context, req models.PaymentInitiateRequest) (*models.OTPDispatch, error)
	VerifyPayment(ctx context.Context, req models.VerifyPaymentRequest) (*models.PaymentReceipt, error)
	ResendOTP(ctx context.Context, email string, orderID models.OrderID) (*models.OTPDispatch, error)
}

// Placement stages
const (
	StageStockCheck        = "stock_check"
	StageCreateOrder       = "create_order"
	StageOrderDetails      = "order_details"
	StagePaymentInitiation = "payment_initiation"
)

// placement is one attempt to turn the cart into an order awaiting its OTP
type placement struct {
	email     string
	orderDate string
	items     []models.CartLine
	total     decimal.Decimal

	orderID  models.OrderID
	dispatch *models.OTPDispatch
}

type placementStep struct {
	stage string
	run   func(ctx context.Context, gw Gateway, p *placement) error
}

var placementSteps = []placementStep{
	{StageStockCheck, checkStock},
	{StageCreateOrder, createOrder},
	{StageOrderDetails, addOrderLines},
	{StagePaymentInitiation, initiatePayment},
}

// run executes the steps in order, stopping at the first failure
func (p *placement) run(ctx context.Context, gw Gateway) error {
	for _, step := range placementSteps {
		if err := step.run(ctx, gw, p); err != nil {
			if p.orderID != "" {
				return &PartialOrderError{OrderID: p.orderID, Stage: step.stage, Err: err}
			}
			return err
		}
	}
	return nil
}

func checkStock(ctx context.Context, gw Gateway, p *placement) error {
	req := make([]models.StockCheckItem, 0, len(p.items))
	for _, item := range p.items {
		req = append(req, models.StockCheckItem{PID: item.PID, Quantity: item.Quantity})
	}
	res, err := gw.CheckStockMultiple(ctx, req)
	if err != nil {
		return fmt.Errorf("stock check: %w", err)
	}
	if res.Sufficient() {
		return nil
	}

	names := make([]string, 0, len(res.InsufficientItems))
	for _, short := range res.InsufficientItems {
		name := short.PID
		for _, item := range p.items {
			if item.PID == short.PID && item.ProductName != "" {
				name = item.ProductName
				break
			}
		}
		names = append(names, name)
	}
	return &StockShortageError{Items: res.InsufficientItems, Names: names}
}

func createOrder(ctx context.Context, gw Gateway, p *placement) error {
	resp, err := gw.CreateOrder(ctx, models.CreateOrderRequest{OrderDate: p.orderDate, EmailID: p.email})
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	p.orderID = resp.OrderID
	return nil
}

func addOrderLines(ctx context.Context, gw Gateway, p *placement) error {
	for _, item := range p.items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		err := gw.AddOrderDetail(ctx, models.OrderDetailRequest{OrderID: p.orderID, PID: item.PID, OrderQty: qty})
		if err != nil {
			return fmt.Errorf("add line %s: %w", item.PID, err)
		}
	}
	return nil
}

func initiatePayment(ctx context.Context, gw Gateway, p *placement) error {
	dispatch, err := gw.InitiatePayment(ctx, models.PaymentInitiateRequest{
		EmailID: p.email,
		Amount:  p.total.InexactFloat64(),
		OrderID: p.orderID,
	})
	if err != nil {
		return fmt.Errorf("initiate payment: %w", err)
	}
	p.dispatch = dispatch
	return nil
}
