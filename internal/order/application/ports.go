package application

import (
	"context"

	"github.com/dmehra2102/pix-payments/internal/order/domain"
)

type OrderRepository interface {
	Create(ctx context.Context, o domain.Order) error
	GetIndexed(ctx context.Context, orderID string) (domain.Order, error)
	GetForUser(ctx context.Context, userID, orderID string) (domain.Order, error)
}
