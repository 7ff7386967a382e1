package khalti

// Config represents the configuration for the Khalti ePayment client.
type Config struct {
	// Secret is the live or sandbox secret key ("Key <secret>" auth header).
	Secret string

	// BaseURL is the ePayment API base, e.g. https://khalti.com/api/v2.
	BaseURL string

	// ReturnURL is where Khalti redirects the customer after payment.
	ReturnURL string

	// WebsiteURL identifies the merchant site in initiate requests.
	WebsiteURL string
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return ErrInvalidConfig
	}
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	if c.ReturnURL == "" {
		return ErrInvalidConfig
	}
	if c.WebsiteURL == "" {
		return ErrInvalidConfig
	}
	return nil
}
