package domain

import (
	"encoding/json"
	"testing"

	orderdomain "github.com/dmehra2102/pix-payments/internal/order/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusMapping(t *testing.T) {
	tests := []struct {
		gateway Status
		want    orderdomain.OrderStatus
	}{
		{StatusApproved, orderdomain.StatusConfirmed},
		{StatusPending, orderdomain.StatusAwaitingPayment},
		{StatusRejected, orderdomain.StatusCancelled},
		{StatusCancelled, orderdomain.StatusCancelled},
		{"in_process", orderdomain.StatusAwaitingPayment},
		{"refunded", orderdomain.StatusAwaitingPayment},
		{"Approved", orderdomain.StatusAwaitingPayment},
		{"", orderdomain.StatusAwaitingPayment},
	}
	for _, tt := range tests {
		t.Run(string(tt.gateway), func(t *testing.T) {
			got := OrderStatus(tt.gateway)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestRecordOwnerID(t *testing.T) {
	assert.Equal(t, "U1", Record{Metadata: map[string]any{"user_id": "U1"}}.OwnerID())
	assert.Equal(t, "42", Record{Metadata: map[string]any{"user_id": float64(42)}}.OwnerID())
	assert.Empty(t, Record{Metadata: map[string]any{"userId": "U1"}}.OwnerID())
	assert.Empty(t, Record{}.OwnerID())
}

func TestNotificationValidate(t *testing.T) {
	assert.NoError(t, Notification{PaymentID: "P1", Topic: "payment"}.Validate())
	assert.ErrorIs(t, Notification{Topic: "payment"}.Validate(), ErrMalformedNotification)
	assert.ErrorIs(t, Notification{PaymentID: "P1"}.Validate(), ErrMalformedNotification)
	assert.ErrorIs(t, Notification{PaymentID: " ", Topic: "payment"}.Validate(), ErrMalformedNotification)
}

func TestFlexibleID(t *testing.T) {
	var v struct {
		ID FlexibleID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"123"}`), &v))
	assert.Equal(t, FlexibleID("123"), v.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":1234567890123}`), &v))
	assert.Equal(t, FlexibleID("1234567890123"), v.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":null}`), &v))
	assert.Empty(t, v.ID)

	assert.Error(t, json.Unmarshal([]byte(`{"id":{}}`), &v))
}

func TestChargeRequestValidate(t *testing.T) {
	ok := ChargeRequest{OrderID: "O1", UserID: "U1", Amount: 10.5}
	assert.NoError(t, ok.Validate())

	for name, r := range map[string]ChargeRequest{
		"zero amount":   {OrderID: "O1", UserID: "U1"},
		"negative":      {OrderID: "O1", UserID: "U1", Amount: -1},
		"missing order": {UserID: "U1", Amount: 1},
		"missing user":  {OrderID: "O1", Amount: 1},
	} {
		assert.ErrorIs(t, r.Validate(), ErrInvalidCharge, name)
	}
}
