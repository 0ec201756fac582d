package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmehra2102/pix-payments/internal/payment/application"
	"github.com/dmehra2102/pix-payments/internal/payment/domain"
	"github.com/dmehra2102/pix-payments/pkg/idempotency"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const maxBodyBytes = 1 << 20

type Reconciler interface {
	Reconcile(ctx context.Context, n domain.Notification) (application.Result, error)
}

type ChargeCreator interface {
	CreateCharge(ctx context.Context, req domain.ChargeRequest, idempotencyKey string) (domain.Charge, error)
}

type Handler struct {
	log        *slog.Logger
	reconciler Reconciler
	charges    ChargeCreator
	chargeMW   []func(http.Handler) http.Handler
	tracer     trace.Tracer
}

// NewHandler wires the webhook and charge endpoints. chargeMW wraps only the charge
// creation route.
func NewHandler(log *slog.Logger, reconciler Reconciler, charges ChargeCreator, chargeMW ...func(http.Handler) http.Handler) *Handler {
	return &Handler{
		log:        log,
		reconciler: reconciler,
		charges:    charges,
		chargeMW:   chargeMW,
		tracer:     otel.Tracer("payment-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks/mercadopago", h.notification)
	r.Get("/webhooks/mercadopago", h.notification)
	r.With(h.chargeMW...).Post("/payments/pix", h.createPix)
}

type notificationBody struct {
	Topic  string            `json:"topic"`
	Type   string            `json:"type"`
	ID     domain.FlexibleID `json:"id"`
	Status string            `json:"status"`
	Data   struct {
		ID domain.FlexibleID `json:"id"`
	} `json:"data"`
}

// parseNotification merges both delivery shapes. Query parameters win over the body;
// in the {type, data.id} shape the top-level id names the notification, not the payment.
func parseNotification(r *http.Request) domain.Notification {
	var n domain.Notification

	var body notificationBody
	if r.Body != nil {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err == nil {
			n.Topic = firstNonEmpty(body.Topic, body.Type)
			n.PaymentID = firstNonEmpty(string(body.Data.ID), string(body.ID))
			n.Status = domain.Status(body.Status)
		}
	}

	q := r.URL.Query()
	if topic := firstNonEmpty(q.Get("topic"), q.Get("type")); topic != "" {
		n.Topic = topic
	}
	if id := firstNonEmpty(q.Get("data.id"), q.Get("id")); id != "" {
		n.PaymentID = id
	}
	return n
}

func (h *Handler) notification(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PaymentNotification")
	defer span.End()

	n := parseNotification(r)
	h.log.Info("payment notification received", "topic", n.Topic, "payment_id", n.PaymentID, "method", r.Method)

	res, err := h.reconciler.Reconcile(ctx, n)
	switch {
	case errors.Is(err, domain.ErrMalformedNotification):
		h.log.Warn("malformed payment notification", "topic", n.Topic, "payment_id", n.PaymentID)
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "payment id or topic missing"})
	case err != nil:
		h.log.Error("payment notification failed", "payment_id", n.PaymentID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to process payment notification"})
	case res.Outcome == application.OutcomeIgnored:
		writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("notification for topic '%s' ignored", n.Topic)})
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"message":  "payment notification processed",
			"order_id": res.OrderID,
			"status":   res.Status,
		})
	}
}

type createPixReq struct {
	Amount    float64         `json:"valor"`
	OrderID   string          `json:"id_pedido"`
	UserID    string          `json:"user_id"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	CPF       string          `json:"cpf"`
	Address   *domain.Address `json:"endereco"`
	Notes     string          `json:"observacoes"`
}

func (h *Handler) createPix(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreatePixCharge")
	defer span.End()

	var req createPixReq
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	charge, err := h.charges.CreateCharge(ctx, domain.ChargeRequest{
		OrderID: req.OrderID,
		UserID:  req.UserID,
		Amount:  req.Amount,
		Payer: domain.Payer{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			CPF:       req.CPF,
		},
		Address: req.Address,
		Notes:   req.Notes,
	}, r.Header.Get(idempotency.HeaderKey))

	var gwErr *domain.GatewayError
	switch {
	case errors.Is(err, domain.ErrInvalidCharge):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &gwErr):
		msg := gwErr.Message
		if msg == "" {
			msg = "failed to create pix payment"
		}
		writeJSON(w, gwErr.StatusCode, map[string]any{"error": msg, "details": gwErr.Cause})
	case errors.Is(err, domain.ErrIncompleteCharge):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "gateway returned no pix data"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"qr_code_base64": charge.QRCodeBase64,
			"pix_copy_paste": charge.QRCode,
			"payment_id":     charge.PaymentID,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
