package application

import (
	"context"
	"errors"
	"time"

	"github.com/dmehra2102/pix-payments/internal/order/domain"
)

var ErrInvalidOrder = errors.New("order id and user id are required")

type Service struct {
	repo OrderRepository
}

func NewService(repo OrderRepository) *Service {
	return &Service{repo: repo}
}

// PlaceOrder registers a new order awaiting payment under both copies.
func (s *Service) PlaceOrder(ctx context.Context, id, userID string) (domain.Order, error) {
	if id == "" || userID == "" {
		return domain.Order{}, ErrInvalidOrder
	}
	o := domain.Order{
		ID:        id,
		UserID:    userID,
		Status:    domain.StatusAwaitingPayment,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.GetIndexed(ctx, id)
}

func (s *Service) GetForUser(ctx context.Context, userID, id string) (domain.Order, error) {
	return s.repo.GetForUser(ctx, userID, id)
}
