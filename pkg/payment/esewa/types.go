package esewa

// Transaction status values returned by eSewa.
const (
	StatusComplete   = "COMPLETE"
	StatusPending    = "PENDING"
	StatusCanceled   = "CANCELED"
	StatusNotFound   = "NOT_FOUND"
	StatusFullRefund = "FULL_REFUND"
	StatusAmbiguous  = "AMBIGUOUS"
)

// PaymentForm holds the fields posted to the hosted payment page. All amounts
// are pre-formatted strings because they are signed verbatim.
type PaymentForm struct {
	Amount                string `json:"amount"`
	TaxAmount             string `json:"tax_amount"`
	TotalAmount           string `json:"total_amount"`
	TransactionUUID       string `json:"transaction_uuid"`
	ProductCode           string `json:"product_code"`
	ProductServiceCharge  string `json:"product_service_charge"`
	ProductDeliveryCharge string `json:"product_delivery_charge"`
	SuccessURL            string `json:"success_url"`
	FailureURL            string `json:"failure_url"`
	SignedFieldNames      string `json:"signed_field_names"`
	Signature             string `json:"signature"`
	PaymentURL            string `json:"payment_url"`
}

// CallbackData is the decoded base64 envelope eSewa appends to the success
// redirect as the data query parameter.
type CallbackData struct {
	TransactionCode  string `json:"transaction_code"`
	Status           string `json:"status"`
	TotalAmount      string `json:"total_amount"`
	TransactionUUID  string `json:"transaction_uuid"`
	ProductCode      string `json:"product_code"`
	SignedFieldNames string `json:"signed_field_names"`
	Signature        string `json:"signature"`
}

// StatusResponse is the answer of the transaction status API.
type StatusResponse struct {
	ProductCode     string  `json:"product_code"`
	TransactionUUID string  `json:"transaction_uuid"`
	TotalAmount     float64 `json:"total_amount"`
	Status          string  `json:"status"`
	RefID           string  `json:"ref_id"`
}
