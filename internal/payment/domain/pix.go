package domain

import "errors"

var ErrInvalidCharge = errors.New("invalid pix charge request")

type Address struct {
	ZipCode      string `json:"cep,omitempty"`
	Street       string `json:"rua,omitempty"`
	StreetNumber string `json:"numero,omitempty"`
}

type Payer struct {
	Email     string
	FirstName string
	LastName  string
	CPF       string
}

// ChargeRequest asks the gateway for a PIX charge tied to one order.
type ChargeRequest struct {
	OrderID     string
	UserID      string
	Amount      float64
	Description string
	Payer       Payer
	Address     *Address
	Notes       string
}

func (r ChargeRequest) Validate() error {
	switch {
	case r.Amount <= 0:
		return errors.Join(ErrInvalidCharge, errors.New("amount must be positive"))
	case r.OrderID == "":
		return errors.Join(ErrInvalidCharge, errors.New("order id is required"))
	case r.UserID == "":
		return errors.Join(ErrInvalidCharge, errors.New("user id is required"))
	}
	return nil
}

// Charge is the gateway's answer: the payment id plus what the payer needs to pay.
type Charge struct {
	PaymentID    string `json:"payment_id"`
	Status       Status `json:"status"`
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
	TicketURL    string `json:"ticket_url,omitempty"`
}

// ErrIncompleteCharge means the gateway accepted the payment but returned no PIX
// transaction data to show the payer.
var ErrIncompleteCharge = errors.New("gateway returned no pix transaction data")
