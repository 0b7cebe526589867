package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/toss"
)

type fakeGateway struct {
	payment *toss.Payment
	err     error

	gotKey    string
	gotAmount *int64
	gotReason string
}

func (f *fakeGateway) Confirm(_ context.Context, paymentKey, _ string, _ int64) (*toss.Payment, error) {
	f.gotKey = paymentKey
	return f.payment, f.err
}

func (f *fakeGateway) Payment(_ context.Context, paymentKey string) (*toss.Payment, error) {
	f.gotKey = paymentKey
	return f.payment, f.err
}

func (f *fakeGateway) Cancel(_ context.Context, paymentKey, reason string, amount *int64) (*toss.Payment, error) {
	f.gotKey = paymentKey
	f.gotReason = reason
	f.gotAmount = amount
	return f.payment, f.err
}

func TestConfirm_DoneIsSuccess(t *testing.T) {
	gw := &fakeGateway{payment: &toss.Payment{
		PaymentKey: "pk_1", OrderID: "ord_1", Status: "DONE", TotalAmount: 2500, Method: "카드",
	}}
	svc := NewService(gw, "test_ck_public")

	res, err := svc.Confirm(context.Background(), "pk_1", "ord_1", 2500)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, StatusDone, res.Status)
	assert.EqualValues(t, 2500, res.Amount)
	assert.Equal(t, "카드", res.Method)
}

func TestConfirm_RejectionPassesThrough(t *testing.T) {
	gw := &fakeGateway{err: &toss.PaymentError{Status: 400, Code: "INVALID_AMOUNT", Message: "금액이 일치하지 않습니다."}}
	svc := NewService(gw, "ck")

	_, err := svc.Confirm(context.Background(), "pk_1", "ord_1", 1)
	var perr *toss.PaymentError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "INVALID_AMOUNT", perr.Code)
}

func TestCancel_FullAndPartial(t *testing.T) {
	gw := &fakeGateway{payment: &toss.Payment{
		PaymentKey: "pk_1", Status: "CANCELED", TotalAmount: 2000,
		Cancels: []toss.Cancel{{CancelAmount: 2000, CancelReason: "customer request"}},
	}}
	svc := NewService(gw, "ck")

	res, err := svc.Cancel(context.Background(), "pk_1", "customer request", nil)
	require.NoError(t, err)
	assert.Nil(t, gw.gotAmount)
	assert.Equal(t, StatusCanceled, res.Status)
	require.NotNil(t, res.CanceledAmount)
	assert.EqualValues(t, 2000, *res.CanceledAmount)

	partial := int64(500)
	gw.payment = &toss.Payment{
		PaymentKey: "pk_1", Status: "PARTIAL_CANCELED", TotalAmount: 2000,
		Cancels: []toss.Cancel{{CancelAmount: 500, CancelReason: "size exchange"}},
	}
	res, err = svc.Cancel(context.Background(), "pk_1", "size exchange", &partial)
	require.NoError(t, err)
	require.NotNil(t, gw.gotAmount)
	assert.EqualValues(t, 500, *gw.gotAmount)
	assert.Equal(t, StatusCanceled, res.Status, "partial cancel folds onto canceled")
	assert.EqualValues(t, 500, *res.CanceledAmount)
}

func TestInfo_UnknownStatusPreserved(t *testing.T) {
	gw := &fakeGateway{payment: &toss.Payment{PaymentKey: "pk_1", Status: "READY"}}
	svc := NewService(gw, "ck")

	res, err := svc.Info(context.Background(), "pk_1")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, Status("READY"), res.Status)
}

func TestClientKey(t *testing.T) {
	svc := NewService(&fakeGateway{}, "test_ck_public")
	assert.Equal(t, "test_ck_public", svc.ClientKey())
}
