package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/pix-payments/internal/payment/domain"
	"github.com/google/uuid"
)

type PixService struct {
	log          *slog.Logger
	gateway      ChargeGateway
	defaultPayer domain.Payer
}

func NewPixService(log *slog.Logger, gateway ChargeGateway, defaultPayer domain.Payer) *PixService {
	return &PixService{log: log, gateway: gateway, defaultPayer: defaultPayer}
}

// CreateCharge asks the gateway for a PIX charge. The owning user id travels in the
// payment metadata so notifications can be reconciled without any lookup.
func (s *PixService) CreateCharge(ctx context.Context, req domain.ChargeRequest, idempotencyKey string) (domain.Charge, error) {
	if err := req.Validate(); err != nil {
		return domain.Charge{}, err
	}
	if req.Description == "" {
		req.Description = fmt.Sprintf("Pagamento do Pedido %s", req.OrderID)
	}
	req.Payer = withDefaults(req.Payer, s.defaultPayer)
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	charge, err := s.gateway.CreatePixPayment(ctx, req, idempotencyKey)
	if err != nil {
		s.log.Error("pix charge failed", "order_id", req.OrderID, "err", err)
		return domain.Charge{}, err
	}
	s.log.Info("pix charge created", "order_id", req.OrderID, "user_id", req.UserID, "payment_id", charge.PaymentID)
	return charge, nil
}

func withDefaults(p, def domain.Payer) domain.Payer {
	if p.Email == "" {
		p.Email = def.Email
	}
	if p.FirstName == "" {
		p.FirstName = def.FirstName
	}
	if p.LastName == "" {
		p.LastName = def.LastName
	}
	if p.CPF == "" {
		p.CPF = def.CPF
	}
	return p
}
