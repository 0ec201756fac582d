package domain

import (
	"errors"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderStatus string

const (
	StatusAwaitingPayment OrderStatus = "AwaitingPayment"
	StatusConfirmed       OrderStatus = "Confirmed"
	StatusCancelled       OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusAwaitingPayment, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Order is one copy of an order record. The same order exists in the flat index
// and, once the owner is known, under its owning user.
type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id,omitempty"`
	Status        OrderStatus `json:"status"`
	MercadoPagoID string      `json:"mercadopago_id,omitempty"`
	StatusDetail  string      `json:"status_detail,omitempty"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// StatusUpdate is the partial update applied to both copies of an order. It only
// overwrites fields, so applying it twice leaves the same state as applying it once.
type StatusUpdate struct {
	OrderID       string
	UserID        string
	Status        OrderStatus
	StatusDetail  string
	MercadoPagoID string
	UpdatedAt     time.Time
}

func (u StatusUpdate) Apply(o Order) Order {
	o.Status = u.Status
	o.StatusDetail = u.StatusDetail
	o.MercadoPagoID = u.MercadoPagoID
	o.UpdatedAt = u.UpdatedAt
	return o
}

var ErrOrderExists = errors.New("order already exists")
