package esewa

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the eSewa ePay v2 API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new eSewa client with the given configuration.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() Config {
	return c.config
}

// Sign computes the base64 HMAC-SHA256 signature over the named fields.
// The message is the comma-joined "name=value" list in the order given by
// signedFieldNames, exactly as eSewa signs it.
func (c *Client) Sign(fields map[string]string, signedFieldNames string) string {
	names := strings.Split(signedFieldNames, ",")
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		pairs = append(pairs, fmt.Sprintf("%s=%s", name, fields[name]))
	}
	message := strings.Join(pairs, ",")

	mac := hmac.New(sha256.New, []byte(c.config.Secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// BuildPaymentForm prepares the signed field set for the hosted payment page.
// Amounts arrive pre-formatted because the signature covers the exact strings.
func (c *Client) BuildPaymentForm(transactionUUID, amount, taxAmount, totalAmount, serviceCharge, deliveryCharge string) PaymentForm {
	signedFieldNames := "total_amount,transaction_uuid,product_code"
	fields := map[string]string{
		"total_amount":     totalAmount,
		"transaction_uuid": transactionUUID,
		"product_code":     c.config.MerchantCode,
	}

	return PaymentForm{
		Amount:                amount,
		TaxAmount:             taxAmount,
		TotalAmount:           totalAmount,
		TransactionUUID:       transactionUUID,
		ProductCode:           c.config.MerchantCode,
		ProductServiceCharge:  serviceCharge,
		ProductDeliveryCharge: deliveryCharge,
		SuccessURL:            c.config.SuccessURL,
		FailureURL:            c.config.FailureURL,
		SignedFieldNames:      signedFieldNames,
		Signature:             c.Sign(fields, signedFieldNames),
		PaymentURL:            c.config.PaymentURL,
	}
}

// DecodeCallbackData decodes the base64 data envelope from a success redirect.
func DecodeCallbackData(encoded string) (*CallbackData, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Some clients deliver URL-safe base64.
		raw, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCallbackData, err)
		}
	}

	var data CallbackData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCallbackData, err)
	}
	return &data, nil
}

// VerifyCallback recomputes the signature over the fields named in the
// envelope and compares in constant time.
func (c *Client) VerifyCallback(data *CallbackData) error {
	if data.SignedFieldNames == "" || data.Signature == "" {
		return ErrInvalidSignature
	}

	fields := map[string]string{
		"transaction_code":   data.TransactionCode,
		"status":             data.Status,
		"total_amount":       data.TotalAmount,
		"transaction_uuid":   data.TransactionUUID,
		"product_code":       data.ProductCode,
		"signed_field_names": data.SignedFieldNames,
	}
	expected := c.Sign(fields, data.SignedFieldNames)

	if !hmac.Equal([]byte(expected), []byte(data.Signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// CheckStatus queries the transaction status API. Transient network failures
// are retried once before giving up.
func (c *Client) CheckStatus(ctx context.Context, transactionUUID, totalAmount string) (*StatusResponse, error) {
	query := url.Values{}
	query.Set("product_code", c.config.MerchantCode)
	query.Set("total_amount", totalAmount)
	query.Set("transaction_uuid", transactionUUID)

	statusURL := c.config.StatusURL
	if !strings.Contains(statusURL, "?") {
		statusURL += "?"
	} else {
		statusURL += "&"
	}
	statusURL += query.Encode()

	var body []byte
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		body, lastErr = c.doGet(ctx, statusURL)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	var status StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status response: %w", err)
	}
	return &status, nil
}

func (c *Client) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrStatusLookupFailed, resp.StatusCode, string(body))
	}
	return body, nil
}
