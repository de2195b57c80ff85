package checkout

import (
	"fmt"

	"github.com/TushxrTxndon/CampusBazaar/internal/services"
)

// Guard is the entry condition of the checkout page
type Guard int

const (
	GuardLoading Guard = iota
	GuardRedirectLogin
	GuardRedirectCart
	GuardReady
)

func (g Guard) String() string {
	switch g {
	case GuardLoading:
		return "loading"
	case GuardRedirectLogin:
		return "login"
	case GuardRedirectCart:
		return "cart"
	case GuardReady:
		return "ready"
	default:
		return fmt.Sprintf("Guard(%d)", int(g))
	}
}

func (g Guard) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// RedirectPath is where the UI should go, or "" when it should stay
func (g Guard) RedirectPath() string {
	switch g {
	case GuardRedirectLogin:
		return "/login"
	case GuardRedirectCart:
		return "/cart"
	default:
		return ""
	}
}

// Evaluate decides whether checkout may be shown. A flow that reached
// Success stays visible after its cart was cleared.
func Evaluate(auth services.AuthStatus, cartItems int, step Step) Guard {
	switch {
	case auth == services.StatusLoading:
		return GuardLoading
	case auth != services.StatusAuthenticated:
		return GuardRedirectLogin
	case cartItems == 0 && step != StepSuccess:
		return GuardRedirectCart
	default:
		return GuardReady
	}
}
