package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmehra2102/pix-payments/internal/order/application"
	"github.com/dmehra2102/pix-payments/internal/order/domain"
	"github.com/dmehra2102/pix-payments/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	orders map[string]domain.Order
	err    error
}

func (f *fakeRepo) Create(ctx context.Context, o domain.Order) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.orders[o.ID]; ok {
		return domain.ErrOrderExists
	}
	f.orders[o.ID] = o
	return nil
}

func (f *fakeRepo) GetIndexed(ctx context.Context, id string) (domain.Order, error) {
	if f.err != nil {
		return domain.Order{}, f.err
	}
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeRepo) GetForUser(ctx context.Context, userID, id string) (domain.Order, error) {
	o, err := f.GetIndexed(ctx, id)
	if err != nil {
		return o, err
	}
	if o.UserID != userID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func newRouter(repo *fakeRepo) http.Handler {
	return NewHandler(logging.Discard(), application.NewService(repo)).Routes()
}

func TestCreateAndGetOrder(t *testing.T) {
	h := newRouter(&fakeRepo{orders: map[string]domain.Order{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"id":"O1","user_id":"U1"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/O1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var o domain.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, "O1", o.ID)
	assert.Equal(t, "U1", o.UserID)
	assert.Equal(t, domain.StatusAwaitingPayment, o.Status)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/U1/orders/O1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/U2/orders/O1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateOrderErrors(t *testing.T) {
	existing := map[string]domain.Order{"O1": {ID: "O1", UserID: "U1"}}
	tests := []struct {
		name string
		repo *fakeRepo
		body string
		want int
	}{
		{"invalid json", &fakeRepo{orders: existing}, `{`, http.StatusBadRequest},
		{"missing user", &fakeRepo{orders: existing}, `{"id":"O2"}`, http.StatusBadRequest},
		{"duplicate", &fakeRepo{orders: existing}, `{"id":"O1","user_id":"U1"}`, http.StatusConflict},
		{"store down", &fakeRepo{orders: existing, err: errors.New("conn refused")}, `{"id":"O3","user_id":"U1"}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newRouter(tt.repo).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetOrderStoreError(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeRepo{err: errors.New("timeout")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/O1", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
