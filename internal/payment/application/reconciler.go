package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	orderdomain "github.com/dmehra2102/pix-payments/internal/order/domain"
	"github.com/dmehra2102/pix-payments/internal/payment/domain"
	"github.com/dmehra2102/pix-payments/pkg/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeIgnored   Outcome = "ignored"
)

type Result struct {
	Outcome         Outcome                 `json:"outcome"`
	PaymentID       string                  `json:"payment_id,omitempty"`
	OrderID         string                  `json:"order_id,omitempty"`
	Status          orderdomain.OrderStatus `json:"status,omitempty"`
	UserID          string                  `json:"user_id,omitempty"`
	UserCopyUpdated bool                    `json:"user_copy_updated"`
}

type Reconciler struct {
	log            *slog.Logger
	gateway        PaymentGateway
	store          OrderStore
	gatewayTimeout time.Duration
	storeTimeout   time.Duration
	now            func() time.Time
	tracer         trace.Tracer
}

type Option func(*Reconciler)

func WithTimeouts(gateway, store time.Duration) Option {
	return func(r *Reconciler) {
		r.gatewayTimeout = gateway
		r.storeTimeout = store
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func NewReconciler(log *slog.Logger, gateway PaymentGateway, store OrderStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		log:            log,
		gateway:        gateway,
		store:          store,
		gatewayTimeout: 10 * time.Second,
		storeTimeout:   5 * time.Second,
		now:            func() time.Time { return time.Now().UTC() },
		tracer:         otel.Tracer("payment-reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile applies one gateway notification to the order it refers to. Errors wrap
// one of the domain sentinels; anything the caller sees as an error leaves both
// order copies untouched except for a failed secondary write, which is only logged.
func (r *Reconciler) Reconcile(ctx context.Context, n domain.Notification) (Result, error) {
	ctx, span := r.tracer.Start(ctx, "Reconcile", trace.WithAttributes(
		attribute.String("payment.id", n.PaymentID),
		attribute.String("notification.topic", n.Topic),
	))
	defer span.End()

	res, err := r.reconcile(ctx, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (r *Reconciler) reconcile(ctx context.Context, n domain.Notification) (Result, error) {
	if n.Topic == "" {
		return Result{}, domain.ErrMalformedNotification
	}
	if !n.IsPayment() {
		r.log.Info("notification ignored", "topic", n.Topic, "payment_id", n.PaymentID)
		return Result{Outcome: OutcomeIgnored, PaymentID: n.PaymentID}, nil
	}
	if err := n.Validate(); err != nil {
		return Result{}, err
	}

	rec, err := r.fetch(ctx, n.PaymentID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch payment %s: %w: %w", n.PaymentID, domain.ErrGatewayUnavailable, err)
	}
	if rec.ExternalReference == "" {
		return Result{}, fmt.Errorf("payment %s: %w", n.PaymentID, domain.ErrMissingReference)
	}
	if rec.ID == "" {
		rec.ID = n.PaymentID
	}

	update := orderdomain.StatusUpdate{
		OrderID:       rec.ExternalReference,
		Status:        domain.OrderStatus(rec.Status),
		StatusDetail:  rec.StatusDetail,
		MercadoPagoID: rec.ID,
		UpdatedAt:     r.now(),
	}
	update.UserID = r.resolveOwner(ctx, rec)

	res := Result{
		Outcome:   OutcomeProcessed,
		PaymentID: rec.ID,
		OrderID:   update.OrderID,
		Status:    update.Status,
		UserID:    update.UserID,
	}

	if err := r.withStoreTimeout(ctx, func(ctx context.Context) error {
		return r.store.UpdateIndexed(ctx, update, tracing.Traceparent(ctx))
	}); err != nil {
		return Result{}, fmt.Errorf("%w: index copy of order %s: %w", domain.ErrStoreWrite, update.OrderID, err)
	}

	if update.UserID == "" {
		r.log.Warn("user-scoped order update skipped",
			"order_id", update.OrderID, "payment_id", rec.ID, "err", domain.ErrOwnerUnresolved)
	} else if err := r.withStoreTimeout(ctx, func(ctx context.Context) error {
		return r.store.UpdateForUser(ctx, update)
	}); err != nil {
		r.log.Warn("user-scoped order update failed",
			"order_id", update.OrderID, "user_id", update.UserID, "payment_id", rec.ID, "err", err)
	} else {
		res.UserCopyUpdated = true
	}

	r.log.Info("payment reconciled",
		"payment_id", rec.ID,
		"order_id", update.OrderID,
		"gateway_status", rec.Status,
		"status", update.Status,
		"user_copy_updated", res.UserCopyUpdated,
	)
	return res, nil
}

func (r *Reconciler) fetch(ctx context.Context, paymentID string) (domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.gatewayTimeout)
	defer cancel()
	return r.gateway.GetPayment(ctx, paymentID)
}

// resolveOwner prefers the metadata embedded at charge creation and falls back to
// the owner stored on the index copy.
func (r *Reconciler) resolveOwner(ctx context.Context, rec domain.Record) string {
	if owner := rec.OwnerID(); owner != "" {
		return owner
	}

	var indexed orderdomain.Order
	err := r.withStoreTimeout(ctx, func(ctx context.Context) error {
		var err error
		indexed, err = r.store.GetIndexed(ctx, rec.ExternalReference)
		return err
	})
	switch {
	case errors.Is(err, orderdomain.ErrOrderNotFound):
		r.log.Warn("index copy missing during owner lookup", "order_id", rec.ExternalReference)
		return ""
	case err != nil:
		r.log.Warn("owner lookup failed", "order_id", rec.ExternalReference, "err", err)
		return ""
	}
	return indexed.UserID
}

func (r *Reconciler) withStoreTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	return fn(ctx)
}
