// Package payment wraps the external payment processor behind a small
// storefront-facing surface: confirm, look up, and cancel.
package payment

import (
	"context"

	"github.com/xenking/storefront/internal/toss"
)

// Status is the normalized processor state of a payment.
type Status string

const (
	StatusDone     Status = "DONE"
	StatusCanceled Status = "CANCELED"
	StatusFailed   Status = "FAILED"
	StatusUnknown  Status = "UNKNOWN"
)

// Result is the storefront view of a processor response. CanceledAmount is
// set only for cancellations; nil means the full amount was voided.
type Result struct {
	Success        bool   `json:"success"`
	PaymentKey     string `json:"payment_key"`
	OrderID        string `json:"order_id,omitempty"`
	Amount         int64  `json:"amount"`
	CanceledAmount *int64 `json:"canceled_amount,omitempty"`
	Status         Status `json:"status"`
	Method         string `json:"method,omitempty"`
	ApprovedAt     string `json:"approved_at,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Gateway is the slice of the processor client the service needs.
type Gateway interface {
	Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*toss.Payment, error)
	Payment(ctx context.Context, paymentKey string) (*toss.Payment, error)
	Cancel(ctx context.Context, paymentKey, reason string, amount *int64) (*toss.Payment, error)
}
