package service

import (
	"context"
	"errors"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
)

var (
	ErrUnknownGateway     = errors.New("unknown payment gateway")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrWebhookUnsupported = errors.New("gateway does not deliver webhooks")
)

// Gateway names as they appear in routes and payment records.
const (
	GatewayCOD    = "cod"
	GatewayESewa  = "esewa"
	GatewayKhalti = "khalti"
)

// InitiationResult is what the customer needs to continue a payment: either
// a redirect URL or a pre-signed form to auto-submit.
type InitiationResult struct {
	Gateway        string            `json:"gateway"`
	TransactionRef string            `json:"transaction_ref"`
	PaymentURL     string            `json:"payment_url,omitempty"`
	FormFields     map[string]string `json:"form_fields,omitempty"`
}

// VerificationResult is a gateway's answer about one payment attempt.
// OK means the gateway confirms the money moved; Pending means it has not
// decided yet; neither means a definitive failure.
type VerificationResult struct {
	OK             bool
	Pending        bool
	Status         string
	TransactionRef string
	ReferenceID    string
	Amount         float64
	Raw            string
}

// WebhookEvent is a parsed gateway notification, before verification.
type WebhookEvent struct {
	OrderID uint
	Invoice string
	Params  map[string]string
}

// GatewayAdapter hides one payment provider behind a uniform surface.
// Verify must consult the gateway (or its signed payload), never trust the
// bare redirect parameters.
type GatewayAdapter interface {
	Name() string
	Initiate(ctx context.Context, order *model.Order) (*InitiationResult, error)
	Verify(ctx context.Context, order *model.Order, params map[string]string) (*VerificationResult, error)
	ParseWebhook(body []byte) (*WebhookEvent, error)
}

// GatewayRegistry resolves adapters by payment method id or by name.
type GatewayRegistry struct {
	byMethod map[uint]GatewayAdapter
	byName   map[string]GatewayAdapter
}

func NewGatewayRegistry() *GatewayRegistry {
	return &GatewayRegistry{
		byMethod: make(map[uint]GatewayAdapter),
		byName:   make(map[string]GatewayAdapter),
	}
}

func (r *GatewayRegistry) Register(methodID uint, adapter GatewayAdapter) {
	r.byMethod[methodID] = adapter
	r.byName[adapter.Name()] = adapter
}

func (r *GatewayRegistry) ByMethod(methodID uint) (GatewayAdapter, error) {
	adapter, ok := r.byMethod[methodID]
	if !ok {
		return nil, ErrUnknownGateway
	}
	return adapter, nil
}

func (r *GatewayRegistry) ByName(name string) (GatewayAdapter, error) {
	adapter, ok := r.byName[name]
	if !ok {
		return nil, ErrUnknownGateway
	}
	return adapter, nil
}
