package domain

import "time"

const EventStatusChanged = "OrderStatusChanged"

type OrderStatusChanged struct {
	OrderID       string      `json:"order_id"`
	UserID        string      `json:"user_id,omitempty"`
	Status        OrderStatus `json:"status"`
	StatusDetail  string      `json:"status_detail,omitempty"`
	MercadoPagoID string      `json:"mercadopago_id"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

func (u StatusUpdate) Event() OrderStatusChanged {
	return OrderStatusChanged{
		OrderID:       u.OrderID,
		UserID:        u.UserID,
		Status:        u.Status,
		StatusDetail:  u.StatusDetail,
		MercadoPagoID: u.MercadoPagoID,
		OccurredAt:    u.UpdatedAt,
	}
}
