package domain

import (
	orderdomain "github.com/dmehra2102/pix-payments/internal/order/domain"
)

// Status is the gateway's own payment status vocabulary.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusPending   Status = "pending"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// MetadataUserID is the canonical metadata key carrying the owning user id. The
// gateway snake_cases metadata keys, so this is the only spelling ever read.
const MetadataUserID = "user_id"

// Record is the authoritative payment as returned by the gateway.
type Record struct {
	ID                string
	Status            Status
	StatusDetail      string
	ExternalReference string
	Metadata          map[string]any
}

// OwnerID returns the owning user id carried in metadata, if any.
func (r Record) OwnerID() string {
	switch v := r.Metadata[MetadataUserID].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return stringify(v)
	}
}

// OrderStatus maps a gateway status onto the order lifecycle. Unknown values keep
// the order awaiting payment.
func OrderStatus(s Status) orderdomain.OrderStatus {
	switch s {
	case StatusApproved:
		return orderdomain.StatusConfirmed
	case StatusRejected, StatusCancelled:
		return orderdomain.StatusCancelled
	default:
		return orderdomain.StatusAwaitingPayment
	}
}
