package service

import (
	"context"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
)

// codAdapter implements the gateway surface for cash on delivery. There is no
// external provider: initiation succeeds immediately and verification reports
// the order's own total, so the shared reconciliation path can confirm the
// order without gateway-specific branches.
type codAdapter struct{}

func NewCODAdapter() GatewayAdapter {
	return &codAdapter{}
}

func (a *codAdapter) Name() string {
	return GatewayCOD
}

func (a *codAdapter) Initiate(ctx context.Context, order *model.Order) (*InitiationResult, error) {
	return &InitiationResult{
		Gateway:        a.Name(),
		TransactionRef: order.Invoice,
	}, nil
}

func (a *codAdapter) Verify(ctx context.Context, order *model.Order, params map[string]string) (*VerificationResult, error) {
	return &VerificationResult{
		OK:             true,
		Status:         "COD",
		TransactionRef: order.Invoice,
		Amount:         ComputeTotal(order),
	}, nil
}

func (a *codAdapter) ParseWebhook(body []byte) (*WebhookEvent, error) {
	return nil, ErrWebhookUnsupported
}
