package application

import (
	"context"
	"errors"
	"testing"

	"github.com/dmehra2102/pix-payments/internal/payment/domain"
	"github.com/dmehra2102/pix-payments/pkg/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultPayer = domain.Payer{Email: "payer@example.com", FirstName: "Nome", LastName: "Sobrenome", CPF: "11111111111"}

func TestCreateChargeFillsDefaults(t *testing.T) {
	var gotReq domain.ChargeRequest
	var gotKey string
	gw := &fakeGateway{CreatePixPaymentFunc: func(ctx context.Context, req domain.ChargeRequest, key string) (domain.Charge, error) {
		gotReq, gotKey = req, key
		return domain.Charge{PaymentID: "P1", Status: domain.StatusPending, QRCode: "000201", QRCodeBase64: "iVBOR"}, nil
	}}
	svc := NewPixService(logging.Discard(), gw, defaultPayer)

	charge, err := svc.CreateCharge(context.Background(), domain.ChargeRequest{
		OrderID: "O1", UserID: "U1", Amount: 25.9, Payer: domain.Payer{Email: "real@example.com"},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "P1", charge.PaymentID)
	assert.Equal(t, "Pagamento do Pedido O1", gotReq.Description)
	assert.Equal(t, "real@example.com", gotReq.Payer.Email)
	assert.Equal(t, "Nome", gotReq.Payer.FirstName)
	assert.Equal(t, "11111111111", gotReq.Payer.CPF)
	_, err = uuid.Parse(gotKey)
	assert.NoError(t, err, "generated idempotency key should be a uuid")
}

func TestCreateChargeKeepsCallerKey(t *testing.T) {
	var gotKey string
	gw := &fakeGateway{CreatePixPaymentFunc: func(ctx context.Context, req domain.ChargeRequest, key string) (domain.Charge, error) {
		gotKey = key
		return domain.Charge{PaymentID: "P1"}, nil
	}}

	_, err := NewPixService(logging.Discard(), gw, defaultPayer).
		CreateCharge(context.Background(), domain.ChargeRequest{OrderID: "O1", UserID: "U1", Amount: 1}, "client-key")
	require.NoError(t, err)
	assert.Equal(t, "client-key", gotKey)
}

func TestCreateChargeValidation(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewPixService(logging.Discard(), gw, defaultPayer)

	_, err := svc.CreateCharge(context.Background(), domain.ChargeRequest{OrderID: "O1", UserID: "U1"}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidCharge)
	assert.Zero(t, gw.calls)
}

func TestCreateChargeGatewayError(t *testing.T) {
	boom := errors.New("boom")
	gw := &fakeGateway{CreatePixPaymentFunc: func(ctx context.Context, req domain.ChargeRequest, key string) (domain.Charge, error) {
		return domain.Charge{}, boom
	}}

	_, err := NewPixService(logging.Discard(), gw, defaultPayer).
		CreateCharge(context.Background(), domain.ChargeRequest{OrderID: "O1", UserID: "U1", Amount: 1}, "")
	assert.ErrorIs(t, err, boom)
}
