package application

import (
	"context"
	"errors"
	"sync"

	orderdomain "github.com/dmehra2102/pix-payments/internal/order/domain"
	"github.com/dmehra2102/pix-payments/internal/payment/domain"
)

type fakeGateway struct {
	GetPaymentFunc       func(ctx context.Context, paymentID string) (domain.Record, error)
	CreatePixPaymentFunc func(ctx context.Context, req domain.ChargeRequest, key string) (domain.Charge, error)
	calls                int
}

func (g *fakeGateway) GetPayment(ctx context.Context, paymentID string) (domain.Record, error) {
	g.calls++
	if g.GetPaymentFunc != nil {
		return g.GetPaymentFunc(ctx, paymentID)
	}
	return domain.Record{}, errors.New("not configured")
}

func (g *fakeGateway) CreatePixPayment(ctx context.Context, req domain.ChargeRequest, key string) (domain.Charge, error) {
	g.calls++
	if g.CreatePixPaymentFunc != nil {
		return g.CreatePixPaymentFunc(ctx, req, key)
	}
	return domain.Charge{}, errors.New("not configured")
}

func recordGateway(rec domain.Record) *fakeGateway {
	return &fakeGateway{GetPaymentFunc: func(ctx context.Context, id string) (domain.Record, error) {
		return rec, nil
	}}
}

type userKey struct{ user, order string }

// memStore mirrors the two order collections in memory.
type memStore struct {
	mu        sync.Mutex
	index     map[string]orderdomain.Order
	byUser    map[userKey]orderdomain.Order
	writes    int
	failIndex error
	failUser  error
	failRead  error
}

func newMemStore() *memStore {
	return &memStore{index: map[string]orderdomain.Order{}, byUser: map[userKey]orderdomain.Order{}}
}

func (s *memStore) seed(o orderdomain.Order) {
	s.index[o.ID] = o
	if o.UserID != "" {
		s.byUser[userKey{o.UserID, o.ID}] = o
	}
}

func (s *memStore) GetIndexed(ctx context.Context, orderID string) (orderdomain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRead != nil {
		return orderdomain.Order{}, s.failRead
	}
	o, ok := s.index[orderID]
	if !ok {
		return orderdomain.Order{}, orderdomain.ErrOrderNotFound
	}
	return o, nil
}

func (s *memStore) UpdateIndexed(ctx context.Context, u orderdomain.StatusUpdate, traceparent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIndex != nil {
		return s.failIndex
	}
	o, ok := s.index[u.OrderID]
	if !ok {
		return orderdomain.ErrOrderNotFound
	}
	if o.UserID == "" {
		o.UserID = u.UserID
	}
	s.index[u.OrderID] = u.Apply(o)
	s.writes++
	return nil
}

func (s *memStore) UpdateForUser(ctx context.Context, u orderdomain.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUser != nil {
		return s.failUser
	}
	k := userKey{u.UserID, u.OrderID}
	o, ok := s.byUser[k]
	if !ok {
		return orderdomain.ErrOrderNotFound
	}
	s.byUser[k] = u.Apply(o)
	s.writes++
	return nil
}
