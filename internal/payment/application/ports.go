package application

import (
	"context"

	orderdomain "github.com/dmehra2102/pix-payments/internal/order/domain"
	"github.com/dmehra2102/pix-payments/internal/payment/domain"
)

type PaymentGateway interface {
	GetPayment(ctx context.Context, paymentID string) (domain.Record, error)
}

type ChargeGateway interface {
	CreatePixPayment(ctx context.Context, req domain.ChargeRequest, idempotencyKey string) (domain.Charge, error)
}

// OrderStore holds the two copies of every order. Updates are partial and never
// create a missing order.
type OrderStore interface {
	GetIndexed(ctx context.Context, orderID string) (orderdomain.Order, error)
	UpdateIndexed(ctx context.Context, u orderdomain.StatusUpdate, traceparent string) error
	UpdateForUser(ctx context.Context, u orderdomain.StatusUpdate) error
}
