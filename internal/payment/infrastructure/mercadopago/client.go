package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmehra2102/pix-payments/internal/payment/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultBaseURL = "https://api.mercadopago.com"

type Client struct {
	log             *slog.Logger
	http            *http.Client
	baseURL         string
	accessToken     string
	notificationURL string
}

func NewClient(log *slog.Logger, baseURL, accessToken, notificationURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		log: log,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
		baseURL:         strings.TrimRight(baseURL, "/"),
		accessToken:     accessToken,
		notificationURL: notificationURL,
	}
}

type paymentResponse struct {
	ID                 domain.FlexibleID `json:"id"`
	Status             string            `json:"status"`
	StatusDetail       string            `json:"status_detail"`
	ExternalReference  string            `json:"external_reference"`
	Metadata           map[string]any    `json:"metadata"`
	PointOfInteraction *struct {
		TransactionData *struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (domain.Record, error) {
	var resp paymentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, nil, &resp); err != nil {
		return domain.Record{}, err
	}
	return domain.Record{
		ID:                string(resp.ID),
		Status:            domain.Status(resp.Status),
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		Metadata:          resp.Metadata,
	}, nil
}

type createPaymentRequest struct {
	TransactionAmount float64        `json:"transaction_amount"`
	Description       string         `json:"description"`
	PaymentMethodID   string         `json:"payment_method_id"`
	ExternalReference string         `json:"external_reference"`
	NotificationURL   string         `json:"notification_url,omitempty"`
	Payer             payer          `json:"payer"`
	Metadata          map[string]any `json:"metadata"`
}

type payer struct {
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Identification *identification `json:"identification,omitempty"`
	Address        *payerAddress   `json:"address,omitempty"`
}

type identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type payerAddress struct {
	ZipCode      string `json:"zip_code"`
	StreetName   string `json:"street_name"`
	StreetNumber string `json:"street_number"`
}

func (c *Client) CreatePixPayment(ctx context.Context, req domain.ChargeRequest, idempotencyKey string) (domain.Charge, error) {
	body := createPaymentRequest{
		TransactionAmount: req.Amount,
		Description:       req.Description,
		PaymentMethodID:   "pix",
		ExternalReference: req.OrderID,
		NotificationURL:   c.notificationURL,
		Payer: payer{
			Email:     req.Payer.Email,
			FirstName: req.Payer.FirstName,
			LastName:  req.Payer.LastName,
		},
		Metadata: map[string]any{domain.MetadataUserID: req.UserID},
	}
	if req.Payer.CPF != "" {
		body.Payer.Identification = &identification{Type: "CPF", Number: req.Payer.CPF}
	}
	if req.Address != nil {
		body.Payer.Address = &payerAddress{
			ZipCode:      orDefault(req.Address.ZipCode, "00000000"),
			StreetName:   req.Address.Street,
			StreetNumber: req.Address.StreetNumber,
		}
		body.Metadata["endereco_completo"] = req.Address
	}
	if req.Notes != "" {
		body.Metadata["observacoes_pedido"] = req.Notes
	}

	headers := map[string]string{"X-Idempotency-Key": idempotencyKey}
	var resp paymentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/payments", body, headers, &resp); err != nil {
		return domain.Charge{}, err
	}
	if resp.PointOfInteraction == nil || resp.PointOfInteraction.TransactionData == nil {
		return domain.Charge{}, fmt.Errorf("payment %s: %w", resp.ID, domain.ErrIncompleteCharge)
	}
	td := resp.PointOfInteraction.TransactionData
	return domain.Charge{
		PaymentID:    string(resp.ID),
		Status:       domain.Status(resp.Status),
		QRCode:       td.QRCode,
		QRCodeBase64: td.QRCodeBase64,
		TicketURL:    td.TicketURL,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, headers map[string]string, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &domain.GatewayError{StatusCode: res.StatusCode}
		var e struct {
			Message string          `json:"message"`
			Cause   json.RawMessage `json:"cause"`
		}
		if json.Unmarshal(raw, &e) == nil {
			apiErr.Message, apiErr.Cause = e.Message, e.Cause
		}
		c.log.Warn("mercadopago request failed", "method", method, "path", path, "status", res.StatusCode, "message", apiErr.Message)
		return apiErr
	}
	return json.Unmarshal(raw, out)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
