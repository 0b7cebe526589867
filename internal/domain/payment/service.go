package payment

import (
	"context"

	"github.com/xenking/storefront/internal/toss"
)

// Service normalizes processor payments for the storefront. The client key is
// public widget configuration and is served to browsers as is.
type Service struct {
	gw        Gateway
	clientKey string
}

func NewService(gw Gateway, clientKey string) *Service {
	return &Service{gw: gw, clientKey: clientKey}
}

// ClientKey returns the public widget key.
func (s *Service) ClientKey() string {
	return s.clientKey
}

// Confirm approves a widget-initiated payment. Success is true only when the
// processor settles the payment as DONE.
func (s *Service) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*Result, error) {
	p, err := s.gw.Confirm(ctx, paymentKey, orderID, amount)
	if err != nil {
		return nil, err
	}
	return fromPayment(p), nil
}

// Info looks up the current processor state of a payment.
func (s *Service) Info(ctx context.Context, paymentKey string) (*Result, error) {
	p, err := s.gw.Payment(ctx, paymentKey)
	if err != nil {
		return nil, err
	}
	return fromPayment(p), nil
}

// Cancel voids a payment. A nil amount voids the full balance; a non-nil
// amount requests a partial cancellation and the result reports the amount
// the processor actually voided.
func (s *Service) Cancel(ctx context.Context, paymentKey, reason string, amount *int64) (*Result, error) {
	p, err := s.gw.Cancel(ctx, paymentKey, reason, amount)
	if err != nil {
		return nil, err
	}

	res := fromPayment(p)
	if len(p.Cancels) > 0 {
		last := p.Cancels[len(p.Cancels)-1].CancelAmount
		res.CanceledAmount = &last
	} else if amount != nil {
		res.CanceledAmount = amount
	}
	return res, nil
}

func fromPayment(p *toss.Payment) *Result {
	st := normalize(p.Status)
	return &Result{
		Success:    st == StatusDone,
		PaymentKey: p.PaymentKey,
		OrderID:    p.OrderID,
		Amount:     p.TotalAmount,
		Status:     st,
		Method:     p.Method,
		ApprovedAt: p.ApprovedAt,
	}
}

// normalize folds the processor's status vocabulary onto the storefront's.
// Partial cancellations count as canceled.
func normalize(s string) Status {
	switch s {
	case "DONE":
		return StatusDone
	case "CANCELED", "PARTIAL_CANCELED":
		return StatusCanceled
	case "ABORTED", "EXPIRED":
		return StatusFailed
	case "":
		return StatusUnknown
	default:
		return Status(s)
	}
}
