package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs a response code with a safe message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps database and network errors to response codes without
// leaking driver internals to the client. context hints at the operation
// ("order", "settlement", ...) for the fallback messages.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "an internal error occurred"}
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	// Unique constraint violation (postgres 23505, sqlite "UNIQUE constraint failed")
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "unique constraint") {
		if strings.Contains(errStr, "courier_settlements") || strings.Contains(errStr, "order_id") {
			return ErrorInfo{Code: ResourceAlreadyExists, Message: "a settlement already exists for this order"}
		}
		if strings.Contains(errStr, "invoice") {
			return ErrorInfo{Code: ResourceAlreadyExists, Message: "invoice number already in use"}
		}
		if strings.Contains(errStr, "phone") {
			return ErrorInfo{Code: ResourceAlreadyExists, Message: "phone number already registered"}
		}
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "the record already exists"}
	}

	// Foreign key violation (postgres 23503)
	if strings.Contains(errStr, "foreign key constraint") {
		if strings.Contains(errStr, "still referenced") {
			return ErrorInfo{Code: ResourceConflict, Message: "the record is referenced by other data and cannot be removed"}
		}
		if strings.Contains(errStr, "order_id") {
			return ErrorInfo{Code: OrderNotFound, Message: "the referenced order does not exist"}
		}
		if strings.Contains(errStr, "courier_id") {
			return ErrorInfo{Code: CourierNotFound, Message: "the referenced courier does not exist"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "a referenced record does not exist"}
	}

	// Not-null violation (postgres 23502)
	if strings.Contains(errStr, "null value") && strings.Contains(errStr, "not-null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "a required field is missing"}
	}

	// Network failures against the payment gateways
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "an external service is unreachable, please try again later",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: "an internal error occurred, please try again later"}
}

func notFoundMessage(context string) string {
	switch {
	case strings.Contains(context, "order"):
		return "order not found"
	case strings.Contains(context, "courier"):
		return "courier not found"
	case strings.Contains(context, "payment"):
		return "payment record not found"
	case strings.Contains(context, "settlement"):
		return "settlement not found"
	default:
		return "the requested record was not found"
	}
}
