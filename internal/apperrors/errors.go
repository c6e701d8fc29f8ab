package apperrors

// ErrorCode identifies the kind of failure in content API error responses
type ErrorCode string

const (
	ErrCodeInternalError     ErrorCode = "internal_error"
	ErrCodeInvalidRequest    ErrorCode = "invalid_request"
	ErrCodeMalformedBody     ErrorCode = "malformed_body"
	ErrCodeMethodNotAllowed  ErrorCode = "method_not_allowed"
	ErrCodeRateLimitExceeded ErrorCode = "rate_limit_exceeded"
	ErrCodeRequestTooLarge   ErrorCode = "request_too_large"
	ErrCodeResourceNotFound  ErrorCode = "resource_not_found"
)
