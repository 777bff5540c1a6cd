package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeInternal   ErrorCode = "COMMON_001"
	ErrCodeBadRequest ErrorCode = "COMMON_002"
	ErrCodeNotFound   ErrorCode = "COMMON_005"
	ErrCodeConflict   ErrorCode = "COMMON_006"
	ErrCodeTimeout    ErrorCode = "COMMON_009"
	ErrCodeValidation ErrorCode = "COMMON_010"
	ErrCodeStorage    ErrorCode = "COMMON_012"
	ErrCodeCacheError ErrorCode = "COMMON_013"
	ErrCodeTransient  ErrorCode = "COMMON_014"
	ErrCodePermanent  ErrorCode = "COMMON_015"

	ErrCodeOK      ErrorCode = "OK"
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// Document module error codes
const (
	ErrCodeDocumentNotFound      ErrorCode = "DOC_001"
	ErrCodeDocumentStatusInvalid ErrorCode = "DOC_002"
)

// Analysis module error codes
const (
	ErrCodeJobNotFound        ErrorCode = "ANL_001"
	ErrCodeJobInFlight        ErrorCode = "ANL_002"
	ErrCodeJobTerminal        ErrorCode = "ANL_003"
	ErrCodeResultsUnavailable ErrorCode = "ANL_004"
	ErrCodeKeywordSetNotFound ErrorCode = "ANL_005"
)

// Feature-extraction collaborator error codes
const (
	ErrCodeExtractionThrottled ErrorCode = "NLP_001"
	ErrCodeExtractionRejected  ErrorCode = "NLP_002"
)

// Notification error codes
const (
	ErrCodeAlertDeliveryFailed ErrorCode = "NTF_001"
	ErrCodeAlertRenderFailed   ErrorCode = "NTF_002"
)

// Infrastructure aliases kept for readability at call sites.
const (
	ErrCodeDatabaseError = ErrCodeStorage
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,
	ErrCodeConflict:   http.StatusConflict,
	ErrCodeTimeout:    http.StatusGatewayTimeout,
	ErrCodeValidation: http.StatusUnprocessableEntity,
	ErrCodeStorage:    http.StatusInternalServerError,
	ErrCodeCacheError: http.StatusInternalServerError,
	ErrCodeTransient:  http.StatusServiceUnavailable,
	ErrCodePermanent:  http.StatusBadGateway,

	ErrCodeDocumentNotFound:      http.StatusNotFound,
	ErrCodeDocumentStatusInvalid: http.StatusConflict,

	ErrCodeJobNotFound:        http.StatusNotFound,
	ErrCodeJobInFlight:        http.StatusConflict,
	ErrCodeJobTerminal:        http.StatusConflict,
	ErrCodeResultsUnavailable: http.StatusNotFound,
	ErrCodeKeywordSetNotFound: http.StatusNotFound,

	ErrCodeExtractionThrottled: http.StatusServiceUnavailable,
	ErrCodeExtractionRejected:  http.StatusBadGateway,

	ErrCodeAlertDeliveryFailed: http.StatusInternalServerError,
	ErrCodeAlertRenderFailed:   http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:   "internal server error",
	ErrCodeBadRequest: "bad request",
	ErrCodeNotFound:   "resource not found",
	ErrCodeConflict:   "resource conflict",
	ErrCodeTimeout:    "request timeout",
	ErrCodeValidation: "validation failed",
	ErrCodeStorage:    "storage error",
	ErrCodeCacheError: "cache error",
	ErrCodeTransient:  "transient collaborator failure",
	ErrCodePermanent:  "collaborator rejected input",

	ErrCodeDocumentNotFound:      "document not found",
	ErrCodeDocumentStatusInvalid: "invalid document status transition",

	ErrCodeJobNotFound:        "analysis job not found",
	ErrCodeJobInFlight:        "an analysis job is already in flight for this document",
	ErrCodeJobTerminal:        "analysis job already reached a terminal state",
	ErrCodeResultsUnavailable: "no completed analysis results available",
	ErrCodeKeywordSetNotFound: "domain keyword set not found",

	ErrCodeExtractionThrottled: "feature extraction throttled",
	ErrCodeExtractionRejected:  "feature extraction rejected input",

	ErrCodeAlertDeliveryFailed: "failed to deliver alert",
	ErrCodeAlertRenderFailed:   "failed to render alert template",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}
