package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/pkg/payment/khalti"
)

type khaltiAdapter struct {
	client *khalti.Client
}

// NewKhaltiAdapter wraps the Khalti client as a gateway adapter.
func NewKhaltiAdapter(client *khalti.Client) GatewayAdapter {
	return &khaltiAdapter{client: client}
}

func (a *khaltiAdapter) Name() string {
	return GatewayKhalti
}

func (a *khaltiAdapter) Initiate(ctx context.Context, order *model.Order) (*InitiationResult, error) {
	resp, err := a.client.Initiate(ctx, khalti.InitiateRequest{
		Amount:            khalti.ToPaisa(ComputeTotal(order)),
		PurchaseOrderID:   order.Invoice,
		PurchaseOrderName: fmt.Sprintf("Order %s", order.Invoice),
		CustomerInfo: &khalti.CustomerInfo{
			Name:  order.CustomerName,
			Phone: order.CustomerPhone,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	return &InitiationResult{
		Gateway:        a.Name(),
		TransactionRef: resp.Pidx,
		PaymentURL:     resp.PaymentURL,
	}, nil
}

// Verify always asks the lookup API; redirect parameters only supply the pidx.
func (a *khaltiAdapter) Verify(ctx context.Context, order *model.Order, params map[string]string) (*VerificationResult, error) {
	pidx := params["pidx"]
	if pidx == "" {
		return nil, khalti.ErrInvalidRequest
	}

	lookup, err := a.client.Lookup(ctx, pidx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	raw, _ := json.Marshal(lookup)
	return &VerificationResult{
		OK:             lookup.Status == khalti.StatusCompleted,
		Pending:        lookup.Status == khalti.StatusPending || lookup.Status == khalti.StatusInitiated,
		Status:         lookup.Status,
		TransactionRef: lookup.Pidx,
		ReferenceID:    lookup.TransactionID,
		Amount:         float64(lookup.TotalAmount) / 100,
		Raw:            string(raw),
	}, nil
}

func (a *khaltiAdapter) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Pidx            string `json:"pidx"`
		PurchaseOrderID string `json:"purchase_order_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Pidx == "" {
		return nil, khalti.ErrInvalidRequest
	}

	return &WebhookEvent{
		Invoice: payload.PurchaseOrderID,
		Params:  map[string]string{"pidx": payload.Pidx},
	}, nil
}
