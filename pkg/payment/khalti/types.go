package khalti

// Lookup status values returned by the ePayment API.
const (
	StatusCompleted  = "Completed"
	StatusPending    = "Pending"
	StatusInitiated  = "Initiated"
	StatusRefunded   = "Refunded"
	StatusExpired    = "Expired"
	StatusUserCancel = "User canceled"
)

// InitiateRequest starts a payment. Amount is in paisa.
type InitiateRequest struct {
	ReturnURL         string        `json:"return_url"`
	WebsiteURL        string        `json:"website_url"`
	Amount            int64         `json:"amount"`
	PurchaseOrderID   string        `json:"purchase_order_id"`
	PurchaseOrderName string        `json:"purchase_order_name"`
	CustomerInfo      *CustomerInfo `json:"customer_info,omitempty"`
}

type CustomerInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// InitiateResponse carries the pidx used to correlate every later event.
type InitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
	ExpiresAt  string `json:"expires_at"`
	ExpiresIn  int64  `json:"expires_in"`
}

type LookupRequest struct {
	Pidx string `json:"pidx"`
}

// LookupResponse is the authoritative answer on a payment's state.
type LookupResponse struct {
	Pidx          string `json:"pidx"`
	TotalAmount   int64  `json:"total_amount"` // paisa
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Fee           int64  `json:"fee"`
	Refunded      bool   `json:"refunded"`
}

// ErrorResponse is the API error envelope.
type ErrorResponse struct {
	Detail   string `json:"detail"`
	ErrorKey string `json:"error_key"`
}
