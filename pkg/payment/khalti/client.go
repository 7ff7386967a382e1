package khalti

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Client represents a Khalti ePayment API client.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Khalti client with the given configuration.
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

// ToPaisa converts a rupee amount to the integer paisa the API expects.
func ToPaisa(rupees float64) int64 {
	return int64(math.Round(rupees * 100))
}

// Initiate starts a payment and returns the pidx and hosted payment URL.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	if req.ReturnURL == "" {
		req.ReturnURL = c.config.ReturnURL
	}
	if req.WebsiteURL == "" {
		req.WebsiteURL = c.config.WebsiteURL
	}

	resp, err := c.doRequest(ctx, "epayment/initiate/", req)
	if err != nil {
		return nil, fmt.Errorf("failed to make initiate request: %w", err)
	}

	var initResp InitiateResponse
	if err := json.Unmarshal(resp, &initResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal initiate response: %w", err)
	}
	return &initResp, nil
}

// Lookup fetches the authoritative state of a payment by pidx.
func (c *Client) Lookup(ctx context.Context, pidx string) (*LookupResponse, error) {
	resp, err := c.doRequest(ctx, "epayment/lookup/", LookupRequest{Pidx: pidx})
	if err != nil {
		return nil, fmt.Errorf("failed to make lookup request: %w", err)
	}

	var lookupResp LookupResponse
	if err := json.Unmarshal(resp, &lookupResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lookup response: %w", err)
	}
	return &lookupResp, nil
}

// doRequest performs an HTTP request to the Khalti ePayment API.
func (c *Client) doRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.config.BaseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Key "+c.config.Secret)
	req.Header.Set("Content-Type", "application/json")

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
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
		}

		errorMsg := fmt.Sprintf("Khalti API error - Status: %d, Key: %s, Detail: %s",
			resp.StatusCode, errResp.ErrorKey, errResp.Detail)

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, errorMsg)
		case http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, errorMsg)
		default:
			return nil, fmt.Errorf("%w: %s", ErrLookupFailed, errorMsg)
		}
	}

	return body, nil
}
