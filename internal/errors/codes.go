package errors

// Error code constants returned in API responses.
// Format: CATEGORY_SPECIFIC_DETAIL
// Clients map these codes to localized messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Order (ORDER_) ====================
	OrderNotFound          = "ORDER_NOT_FOUND"
	OrderInvalidTransition = "ORDER_INVALID_TRANSITION"
	OrderStaleState        = "ORDER_STALE_STATE"
	OrderScanCodeMismatch  = "ORDER_SCAN_CODE_MISMATCH"

	// ==================== Courier (COURIER_) ====================
	CourierNotFound     = "COURIER_NOT_FOUND"
	CourierUnauthorized = "COURIER_UNAUTHORIZED"
	CourierInactive     = "COURIER_INACTIVE"

	// ==================== Payment (PAYMENT_) ====================
	PaymentNotFound            = "PAYMENT_NOT_FOUND"
	PaymentVerificationFailed  = "PAYMENT_VERIFICATION_FAILED"
	PaymentGatewayUnavailable  = "PAYMENT_GATEWAY_UNAVAILABLE"
	PaymentDuplicateEvent      = "PAYMENT_DUPLICATE_EVENT"
	PaymentAmountMismatch      = "PAYMENT_AMOUNT_MISMATCH"
	PaymentUnknownGateway      = "PAYMENT_UNKNOWN_GATEWAY"
	PaymentAlreadyCompleted    = "PAYMENT_ALREADY_COMPLETED"
	PaymentNotCashOnDelivery   = "PAYMENT_NOT_CASH_ON_DELIVERY"
	PaymentSettlementNotFound  = "PAYMENT_SETTLEMENT_NOT_FOUND"
	PaymentInvalidCallbackData = "PAYMENT_INVALID_CALLBACK_DATA"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
