package payments

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSignature = errors.New("invalid notification signature")
	ErrAmountMismatch   = errors.New("notification amount does not match the transaction")
	ErrNothingToPay     = errors.New("nothing to pay for this reference")
	ErrNotOwner         = errors.New("reference belongs to another visitor")
	ErrUnknownPurpose   = errors.New("unknown payment purpose")
	ErrNotConfigured    = errors.New("payment gateway is not configured")
)

// GatewayError is a non-2xx response from the payment gateway.
type GatewayError struct {
	StatusCode int
	Messages   []string
}

func (e *GatewayError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("payment gateway error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("payment gateway error: HTTP %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// Retryable reports whether repeating the request may succeed.
func (e *GatewayError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
