package esewa

// Config represents the configuration for the eSewa ePay client.
type Config struct {
	// MerchantCode is the product code assigned to the merchant.
	MerchantCode string

	// Secret is the HMAC signing key shared with eSewa.
	Secret string

	// PaymentURL is the hosted form endpoint the customer is sent to.
	PaymentURL string

	// StatusURL is the transaction status lookup endpoint.
	StatusURL string

	// SuccessURL is the redirect URL for successful payment.
	SuccessURL string

	// FailureURL is the redirect URL for failed or cancelled payment.
	FailureURL string
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MerchantCode == "" {
		return ErrInvalidConfig
	}
	if c.Secret == "" {
		return ErrInvalidConfig
	}
	if c.PaymentURL == "" {
		return ErrInvalidConfig
	}
	if c.StatusURL == "" {
		return ErrInvalidConfig
	}
	if c.SuccessURL == "" {
		return ErrInvalidConfig
	}
	if c.FailureURL == "" {
		return ErrInvalidConfig
	}
	return nil
}
