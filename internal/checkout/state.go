// Package checkout drives a purchase from cart review through OTP payment
// confirmation.
//
// The step graph is a pure function (Next); a Flow owns one walk through it,
// serializes its network calls and keeps the OTP countdown.
package checkout

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an event does not apply to the current step
var ErrInvalidTransition = errors.New("invalid checkout transition")

// Step is a checkout stage. Values match the page numbering of the storefront UI.
type Step int

const (
	StepReview Step = iota + 1
	// StepPayment is reserved for a payment-method choice and never entered
	StepPayment
	StepOTP
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepReview:
		return "review"
	case StepPayment:
		return "payment"
	case StepOTP:
		return "otp"
	case StepSuccess:
		return "success"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Event is something that happened during checkout
type Event int

const (
	// EventOrderPlaced: order created, lines added and payment OTP sent
	EventOrderPlaced Event = iota + 1
	// EventStockShort: the batch stock check found a shortage
	EventStockShort
	// EventPlacementFailed: any other failure while placing the order
	EventPlacementFailed
	EventOTPVerified
	EventOTPRejected
	EventOTPResent
)

func (e Event) String() string {
	switch e {
	case EventOrderPlaced:
		return "order_placed"
	case EventStockShort:
		return "stock_short"
	case EventPlacementFailed:
		return "placement_failed"
	case EventOTPVerified:
		return "otp_verified"
	case EventOTPRejected:
		return "otp_rejected"
	case EventOTPResent:
		return "otp_resent"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Next returns the step reached from step on ev
func Next(step Step, ev Event) (Step, error) {
	switch step {
	case StepReview:
		switch ev {
		case EventOrderPlaced:
			return StepOTP, nil
		case EventStockShort, EventPlacementFailed:
			return StepReview, nil
		}
	case StepPayment:
		// reserved: nothing leads here and nothing leaves
	case StepOTP:
		switch ev {
		case EventOTPVerified:
			return StepSuccess, nil
		case EventOTPRejected, EventOTPResent:
			return StepOTP, nil
		}
	case StepSuccess:
		// terminal
	}
	return step, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, step)
}
