package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/pkg/payment/esewa"
)

type esewaAdapter struct {
	client *esewa.Client
}

// NewESewaAdapter wraps the eSewa client as a gateway adapter.
func NewESewaAdapter(client *esewa.Client) GatewayAdapter {
	return &esewaAdapter{client: client}
}

func (a *esewaAdapter) Name() string {
	return GatewayESewa
}

// esewaTransactionRef builds the transaction_uuid sent to eSewa. The order id
// is embedded so callbacks can be correlated without extra state.
func esewaTransactionRef(orderID uint) string {
	return fmt.Sprintf("ORDER-%d-%d", orderID, time.Now().UTC().Unix())
}

// parseESewaOrderID recovers the order id from a transaction_uuid.
func parseESewaOrderID(transactionUUID string) (uint, error) {
	parts := strings.Split(transactionUUID, "-")
	if len(parts) < 3 || parts[0] != "ORDER" {
		return 0, fmt.Errorf("malformed transaction uuid: %s", transactionUUID)
	}
	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("malformed transaction uuid: %s", transactionUUID)
	}
	return uint(id), nil
}

func (a *esewaAdapter) Initiate(ctx context.Context, order *model.Order) (*InitiationResult, error) {
	total := ComputeTotal(order)
	taxable := order.Subtotal() - order.DiscountAmount
	if taxable < 0 {
		taxable = 0
	}
	tax := Round2(taxable * order.TaxRate / 100)

	ref := esewaTransactionRef(order.ID)
	form := a.client.BuildPaymentForm(
		ref,
		FormatAmount(taxable),
		FormatAmount(tax),
		FormatAmount(total),
		FormatAmount(order.ServiceCharge),
		FormatAmount(order.DeliveryFee),
	)

	return &InitiationResult{
		Gateway:        a.Name(),
		TransactionRef: ref,
		PaymentURL:     form.PaymentURL,
		FormFields: map[string]string{
			"amount":                  form.Amount,
			"tax_amount":              form.TaxAmount,
			"total_amount":            form.TotalAmount,
			"transaction_uuid":        form.TransactionUUID,
			"product_code":            form.ProductCode,
			"product_service_charge":  form.ProductServiceCharge,
			"product_delivery_charge": form.ProductDeliveryCharge,
			"success_url":             form.SuccessURL,
			"failure_url":             form.FailureURL,
			"signed_field_names":      form.SignedFieldNames,
			"signature":               form.Signature,
		},
	}, nil
}

// Verify checks a success callback. When the redirect carries the signed data
// envelope the signature decides; otherwise the status API is the authority.
func (a *esewaAdapter) Verify(ctx context.Context, order *model.Order, params map[string]string) (*VerificationResult, error) {
	if encoded, ok := params["data"]; ok && encoded != "" {
		data, err := esewa.DecodeCallbackData(encoded)
		if err != nil {
			return nil, err
		}
		if err := a.client.VerifyCallback(data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
		}

		amount, err := parseESewaAmount(data.TotalAmount)
		if err != nil {
			return nil, err
		}
		raw, _ := json.Marshal(data)
		return &VerificationResult{
			OK:             data.Status == esewa.StatusComplete,
			Pending:        data.Status == esewa.StatusPending,
			Status:         data.Status,
			TransactionRef: data.TransactionUUID,
			ReferenceID:    data.TransactionCode,
			Amount:         amount,
			Raw:            string(raw),
		}, nil
	}

	ref := params["transaction_uuid"]
	if ref == "" {
		ref = params["transaction_ref"]
	}
	if ref == "" {
		return nil, esewa.ErrInvalidCallbackData
	}

	status, err := a.client.CheckStatus(ctx, ref, FormatAmount(ComputeTotal(order)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	raw, _ := json.Marshal(status)
	return &VerificationResult{
		OK:             status.Status == esewa.StatusComplete,
		Pending:        status.Status == esewa.StatusPending,
		Status:         status.Status,
		TransactionRef: status.TransactionUUID,
		ReferenceID:    status.RefID,
		Amount:         status.TotalAmount,
		Raw:            string(raw),
	}, nil
}

// ParseWebhook accepts either the raw callback JSON or a {"data": "<base64>"}
// wrapper and resolves the order from the embedded transaction uuid.
func (a *esewaAdapter) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var envelope struct {
		Data string `json:"data"`
	}
	params := map[string]string{}

	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != "" {
		params["data"] = envelope.Data
		data, err := esewa.DecodeCallbackData(envelope.Data)
		if err != nil {
			return nil, err
		}
		orderID, err := parseESewaOrderID(data.TransactionUUID)
		if err != nil {
			return nil, err
		}
		return &WebhookEvent{OrderID: orderID, Params: params}, nil
	}

	var data esewa.CallbackData
	if err := json.Unmarshal(body, &data); err != nil || data.TransactionUUID == "" {
		return nil, esewa.ErrInvalidCallbackData
	}
	orderID, err := parseESewaOrderID(data.TransactionUUID)
	if err != nil {
		return nil, err
	}

	reencoded, _ := json.Marshal(data)
	params["data"] = base64.StdEncoding.EncodeToString(reencoded)
	return &WebhookEvent{OrderID: orderID, Params: params}, nil
}

func parseESewaAmount(s string) (float64, error) {
	// eSewa formats totals with thousands separators in some payloads.
	cleaned := strings.ReplaceAll(s, ",", "")
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed amount %q: %w", s, err)
	}
	return amount, nil
}
