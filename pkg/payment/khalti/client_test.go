package khalti

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		Secret:     "test-secret-key",
		BaseURL:    baseURL,
		ReturnURL:  "https://shop.example/payments/khalti/return",
		WebsiteURL: "https://shop.example",
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(Config{Secret: "only-a-secret"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestToPaisa(t *testing.T) {
	assert.EqualValues(t, 113000, ToPaisa(1130))
	assert.EqualValues(t, 9950, ToPaisa(99.5))
	assert.EqualValues(t, 1001, ToPaisa(10.005))
	assert.EqualValues(t, 0, ToPaisa(0))
}

func TestInitiate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/epayment/initiate/", r.URL.Path)
		assert.Equal(t, "Key test-secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req InitiateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.EqualValues(t, 113000, req.Amount)
		assert.Equal(t, "INV-2001", req.PurchaseOrderID)
		assert.Equal(t, "https://shop.example/payments/khalti/return", req.ReturnURL)

		json.NewEncoder(w).Encode(InitiateResponse{
			Pidx:       "bZQLD9wRVWo4CdESSfuSsB",
			PaymentURL: "https://test-pay.khalti.com/?pidx=bZQLD9wRVWo4CdESSfuSsB",
			ExpiresIn:  1800,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.Initiate(context.Background(), InitiateRequest{
		Amount:            ToPaisa(1130),
		PurchaseOrderID:   "INV-2001",
		PurchaseOrderName: "Order INV-2001",
	})
	require.NoError(t, err)
	assert.Equal(t, "bZQLD9wRVWo4CdESSfuSsB", resp.Pidx)
	assert.Contains(t, resp.PaymentURL, "pidx=")
}

func TestLookup_Completed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/epayment/lookup/", r.URL.Path)
		assert.Equal(t, "Key test-secret-key", r.Header.Get("Authorization"))

		var req LookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bZQLD9wRVWo4CdESSfuSsB", req.Pidx)

		json.NewEncoder(w).Encode(LookupResponse{
			Pidx:          "bZQLD9wRVWo4CdESSfuSsB",
			TotalAmount:   113000,
			Status:        StatusCompleted,
			TransactionID: "GFq9PFS7b2iYvL8Lir9oXe",
			Fee:           4000,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.Lookup(context.Background(), "bZQLD9wRVWo4CdESSfuSsB")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, resp.Status)
	assert.EqualValues(t, 113000, resp.TotalAmount)
	assert.False(t, resp.Refunded)
}

func TestDoRequest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"bad request", http.StatusBadRequest, ErrInvalidRequest},
		{"server error", http.StatusInternalServerError, ErrLookupFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				json.NewEncoder(w).Encode(ErrorResponse{
					Detail:   "something went wrong",
					ErrorKey: "validation_error",
				})
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.Lookup(context.Background(), "bad-pidx")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
