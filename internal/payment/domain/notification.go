package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

const TopicPayment = "payment"

// Notification is what the gateway tells us about a payment. Status is only set by
// the older protocol variant and is never trusted over a fresh fetch.
type Notification struct {
	PaymentID string
	Topic     string
	Status    Status
}

func (n Notification) Validate() error {
	if strings.TrimSpace(n.PaymentID) == "" || strings.TrimSpace(n.Topic) == "" {
		return ErrMalformedNotification
	}
	return nil
}

func (n Notification) IsPayment() bool {
	return n.Topic == TopicPayment
}

// FlexibleID accepts a JSON string or number.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
