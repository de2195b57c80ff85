package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/TushxrTxndon/CampusBazaar/internal/models"
)

// CheckStock checks whether quantity units of pid are available
func (c *Client) CheckStock(ctx context.Context, pid string, quantity int) (*models.StockCheckResult, error) {
	var result models.StockCheckResult
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/stock/check",
		path:   "/stock/check",
		body:   models.StockCheckItem{PID: pid, Quantity: quantity},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckStockMultiple checks every line in one request
func (c *Client) CheckStockMultiple(ctx context.Context, items []models.StockCheckItem) (*models.BatchStockResult, error) {
	var result models.BatchStockResult
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/stock/check-multiple",
		path:   "/stock/check-multiple",
		body:   struct {
			Items []models.StockCheckItem `json:"items"`
		}{Items: items},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateOrder opens an order and returns its id
func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	var resp models.CreateOrderResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/orders/create",
		path:   "/orders/create",
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddOrderDetail adds one line to an open order
func (c *Client) AddOrderDetail(ctx context.Context, req models.OrderDetailRequest) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/order-details/add",
		path:   "/order-details/add",
		body:   req,
	}, nil)
}

// GetUserOrders lists the orders placed by email
func (c *Client) GetUserOrders(ctx context.Context, email string) ([]models.Order, error) {
	var orders []models.Order
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/orders/user/{email_id}",
		path:   "/orders/user/" + url.PathEscape(email),
	}, &orders)
	if err != nil {
		return nil, err
	}
	if err := validateEach(orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches one order with its lines
func (c *Client) GetOrder(ctx context.Context, id models.OrderID) (*models.Order, error) {
	var order models.Order
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/orders/{order_id}",
		path:   "/orders/" + url.PathEscape(id.String()),
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// InitiatePayment asks the backend to email a payment OTP
func (c *Client) InitiatePayment(ctx context.Context, req models.PaymentInitiateRequest) (*models.OTPDispatch, error) {
	var resp models.OTPDispatch
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/payments/initiate",
		path:   "/payments/initiate",
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyPayment submits the OTP for an order
func (c *Client) VerifyPayment(ctx context.Context, req models.VerifyPaymentRequest) (*models.PaymentReceipt, error) {
	var resp models.PaymentReceipt
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/payments/verify",
		path:   "/payments/verify",
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResendOTP requests a fresh OTP for an order
func (c *Client) ResendOTP(ctx context.Context, email string, orderID models.OrderID) (*models.OTPDispatch, error) {
	var resp models.OTPDispatch
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/payments/resend-otp",
		path:   "/payments/resend-otp",
		body:   models.ResendOTPRequest{EmailID: email, OrderID: orderID},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
