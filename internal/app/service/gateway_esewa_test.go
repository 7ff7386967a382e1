package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/pkg/payment/esewa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newESewaTestAdapter(t *testing.T) (GatewayAdapter, *esewa.Client) {
	t.Helper()
	client, err := esewa.NewClient(esewa.Config{
		MerchantCode: "EPAYTEST",
		Secret:       "8gBm/:&EnhH.1/q",
		PaymentURL:   "https://rc-epay.esewa.com.np/api/epay/main/v2/form",
		StatusURL:    "https://rc.esewa.com.np/api/epay/transaction/status/",
		SuccessURL:   "https://kinmel.example/payments/esewa/success",
		FailureURL:   "https://kinmel.example/payments/esewa/failure",
	})
	require.NoError(t, err)
	return NewESewaAdapter(client), client
}

// encodeESewaCallback builds a correctly signed redirect envelope, applies the
// optional tamper step after signing, and base64-encodes the result.
func encodeESewaCallback(t *testing.T, client *esewa.Client, tamper func(*esewa.CallbackData)) string {
	t.Helper()
	data := esewa.CallbackData{
		TransactionCode:  "000ABC1",
		Status:           esewa.StatusComplete,
		TotalAmount:      "1130.00",
		TransactionUUID:  "ORDER-42-1700000000",
		ProductCode:      "EPAYTEST",
		SignedFieldNames: "transaction_code,status,total_amount,transaction_uuid,product_code,signed_field_names",
	}
	data.Signature = client.Sign(map[string]string{
		"transaction_code":   data.TransactionCode,
		"status":             data.Status,
		"total_amount":       data.TotalAmount,
		"transaction_uuid":   data.TransactionUUID,
		"product_code":       data.ProductCode,
		"signed_field_names": data.SignedFieldNames,
	}, data.SignedFieldNames)

	if tamper != nil {
		tamper(&data)
	}
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestESewaAdapter_ValidCallbackVerifies(t *testing.T) {
	adapter, client := newESewaTestAdapter(t)

	params := map[string]string{"data": encodeESewaCallback(t, client, nil)}
	result, err := adapter.Verify(context.Background(), &model.Order{}, params)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.InDelta(t, 1130, result.Amount, 0.001)
	assert.Equal(t, "ORDER-42-1700000000", result.TransactionRef)
}

func TestESewaAdapter_TamperedCallbackFailsVerification(t *testing.T) {
	adapter, client := newESewaTestAdapter(t)

	// The payload still claims COMPLETE, but a signed field was altered after
	// signing. Verification must fail outright, not merely report ok=false.
	params := map[string]string{"data": encodeESewaCallback(t, client, func(d *esewa.CallbackData) {
		d.TotalAmount = "10.00"
	})}
	_, err := adapter.Verify(context.Background(), &model.Order{}, params)
	assert.ErrorIs(t, err, ErrVerificationFailed)
}
