package order

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/cafe24"
)

// Service orchestrates order placement and status reconciliation.
type Service struct {
	repo   Repository
	carts  CartSource
	vendor VendorGateway
	now    func() time.Time
}

func NewService(repo Repository, carts CartSource, vendor VendorGateway) *Service {
	return &Service{
		repo:   repo,
		carts:  carts,
		vendor: vendor,
		now:    time.Now,
	}
}

// PlaceOrder turns a cart into an order after payment has been confirmed.
// The vendor mirror is attempted first so a successful submission lands in
// the stored record; a vendor failure downgrades the result to MirrorFailed
// but never fails the placement. Once the order is stored the cart is
// cleared, mirror outcome notwithstanding, so a paid cart can not be
// submitted twice.
func (s *Service) PlaceOrder(ctx context.Context, cartID, paymentKey string, shipping ShippingAddress) (*PlaceResult, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	now := s.now()
	o := &Order{
		ID:         uuid.NewString(),
		CartID:     cartID,
		Items:      make([]Item, len(c.Items)),
		Total:      c.Total,
		Status:     StatusPaid,
		PaymentKey: paymentKey,
		Shipping:   shipping,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i, it := range c.Items {
		o.Items[i] = Item{
			ID:        uuid.NewString(),
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Title:     it.Title,
			Price:     it.Price,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
		}
	}

	res := &PlaceResult{Order: o, Mirror: MirrorSubmitted}
	rec, err := s.vendor.CreateOrder(ctx, vendorRequest(o))
	if err != nil {
		zctx.From(ctx).Warn("Vendor order submission failed",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		res.Mirror = MirrorFailed
		res.MirrorErr = err
	} else {
		o.VendorOrderID = rec.OrderID
	}

	// The order record is written before the cart is touched: losing a cart
	// wipe is recoverable, losing a paid purchase record is not.
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "store order")
	}

	if _, err := s.carts.Clear(ctx, cartID); err != nil {
		zctx.From(ctx).Warn("Clearing cart after order failed",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)
	}
	return res, nil
}

// Get returns a stored order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns stored orders newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Order, error) {
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// SyncStatus refreshes an order's status from the vendor. Orders without a
// vendor copy are returned unchanged, as are orders whose vendor status is
// unknown or would move the lifecycle backwards. A vendor read failure is
// logged and the local state kept.
func (s *Service) SyncStatus(ctx context.Context, id string) (*Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.VendorOrderID == "" {
		return o, nil
	}

	rec, err := s.vendor.Order(ctx, o.VendorOrderID)
	if err != nil {
		zctx.From(ctx).Warn("Vendor status lookup failed",
			zap.String("order_id", o.ID),
			zap.String("vendor_order_id", o.VendorOrderID),
			zap.Error(err),
		)
		return o, nil
	}

	next, ok := StatusFromVendor(rec.OrderStatus)
	if !ok || !o.Status.CanTransitionTo(next) {
		return o, nil
	}

	o.Status = next
	o.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return o, nil
}

// vendorRequest builds the mirror submission. Orders placed here are always
// settled through the external payment processor, so the vendor copy is
// marked paid with an external payment method.
func vendorRequest(o *Order) cafe24.OrderRequest {
	items := make([]cafe24.OrderItemRequest, 0, len(o.Items))
	for _, it := range o.Items {
		no, err := strconv.Atoi(it.ProductID)
		if err != nil {
			continue
		}
		items = append(items, cafe24.OrderItemRequest{
			ProductNo:    no,
			Quantity:     it.Quantity,
			ProductPrice: it.Price.Amount.IntPart(),
		})
	}
	return cafe24.OrderRequest{
		OrderID:       o.ID,
		PaymentMethod: "etc",
		Paid:          true,
		Items:         items,
		Receiver: cafe24.Receiver{
			Name:     o.Shipping.Name,
			Phone:    o.Shipping.Phone,
			Zipcode:  o.Shipping.ZipCode,
			Address1: o.Shipping.Address1,
			Address2: o.Shipping.Address2,
		},
	}
}
