package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TushxrTxndon/CampusBazaar/internal/gateway"
	"github.com/TushxrTxndon/CampusBazaar/internal/models"
)

var (
	// ErrBusy is returned while another call of the same flow is in flight
	ErrBusy = errors.New("checkout is busy")
	// ErrNotReady is returned when the entry guard does not allow checkout
	ErrNotReady = errors.New("checkout is not ready")
	// ErrAbandoned is returned by a flow that was torn down
	ErrAbandoned = errors.New("checkout was abandoned")
	// ErrNoFlow is returned when no checkout has begun
	ErrNoFlow = errors.New("no checkout in progress")
	// ErrInvalidOTP is a local OTP format rejection
	ErrInvalidOTP = errors.New("OTP must be 6 digits")
	// ErrResendTooSoon is returned before the resend window opens
	ErrResendTooSoon = errors.New("OTP resend is not available yet")
)

// User-facing messages
const (
	msgPlacementFailed    = "Failed to create order. Please try again."
	msgInsufficientStock  = "One or more products have insufficient stock. Please update your cart and try again."
	msgInvalidOTP         = "Invalid OTP. Please try again."
	msgOTPResent          = "OTP has been resent to your email"
	msgResendFailed       = "Failed to resend OTP"
	stockShortageTemplate = "Insufficient stock for: %s. Please update your cart and try again."
)

// StockShortageError lists the cart lines the backend cannot fulfil
type StockShortageError struct {
	Items []models.InsufficientItem
	Names []string
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf(stockShortageTemplate, strings.Join(e.Names, ", "))
}

// PartialOrderError is a placement failure after the order was created.
// The order remains on the backend without its remaining lines or payment.
type PartialOrderError struct {
	OrderID models.OrderID
	Stage   string
	Err     error
}

func (e *PartialOrderError) Error() string {
	return fmt.Sprintf("order %s created but %s failed: %v", e.OrderID, e.Stage, e.Err)
}

func (e *PartialOrderError) Unwrap() error { return e.Err }

// placementMessage is the text shown on the review step after a failed placement
func placementMessage(err error) string {
	var shortage *StockShortageError
	if errors.As(err, &shortage) {
		return shortage.Error()
	}
	msg, ok := gateway.Detail(err)
	if !ok {
		msg = msgPlacementFailed
	}
	if strings.Contains(msg, "Insufficient stock") || strings.Contains(msg, "45000") {
		return msgInsufficientStock
	}
	return msg
}

func detailOr(err error, fallback string) string {
	if msg, ok := gateway.Detail(err); ok {
		return msg
	}
	return fallback
}
