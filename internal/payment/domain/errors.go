package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformedNotification = errors.New("notification is missing payment id or topic")
	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")
	ErrMissingReference      = errors.New("payment has no external reference")
	ErrOwnerUnresolved       = errors.New("order owner could not be resolved")
	ErrStoreWrite            = errors.New("order store write failed")
)

// GatewayError is a non-2xx answer from the payment gateway.
type GatewayError struct {
	StatusCode int
	Message    string
	Cause      json.RawMessage
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway: status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway: status %d: %s", e.StatusCode, e.Message)
}
