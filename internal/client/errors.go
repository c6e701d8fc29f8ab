package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed request. Only timeouts and server errors are retried.
type ErrorKind string

const (
	KindTimeout  ErrorKind = "timeout"
	KindServer   ErrorKind = "server_error"
	KindClient   ErrorKind = "client_error"
	KindNetwork  ErrorKind = "network_error"
	KindParse    ErrorKind = "parse_error"
	KindInternal ErrorKind = "internal_error"
	KindCanceled ErrorKind = "canceled"
)

// ClientError represents an error encountered when communicating with the content API.
// StatusCode 0 = no HTTP response was received, >0 = HTTP response received
type ClientError struct {
	StatusCode    int       `json:"status_code"`
	Kind          ErrorKind `json:"kind"`
	ServerMessage string    `json:"server_message,omitempty"` // the "message" field of an API error response
	UserMessage   string    `json:"user_message"`
	LogMessage    string    `json:"log_message"`
	Body          []byte    `json:"-"` // raw response body, when there was one
	Attempts      int       `json:"attempts"`
}

func (e *ClientError) Error() string {
	return e.LogMessage
}

// UserError returns the user-friendly message
func (e *ClientError) UserError() string {
	return e.UserMessage
}

// Retryable reports whether the failure is transient (timeout or 5xx)
func (e *ClientError) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindServer
}

// NewClientConnectionError creates a ClientError for network/connection issues
func NewClientConnectionError(err error) *ClientError {
	return &ClientError{
		Kind:        KindNetwork,
		UserMessage: "Unable to connect. Please check your internet connection and try again.",
		LogMessage:  fmt.Sprintf("network error: %v", err),
	}
}

// NewClientTimeoutError creates a ClientError for an attempt that did not complete within the request timeout
func NewClientTimeoutError(err error) *ClientError {
	return &ClientError{
		Kind:        KindTimeout,
		UserMessage: "The request timed out. Please try again later.",
		LogMessage:  fmt.Sprintf("timeout: %v", err),
	}
}

// NewClientCanceledError is used when the caller's context ends the request
func NewClientCanceledError(err error) *ClientError {
	return &ClientError{
		Kind:        KindCanceled,
		UserMessage: "The request was cancelled.",
		LogMessage:  fmt.Sprintf("request canceled: %v", err),
	}
}

// NewClientInternalError creates a ClientError for internal errors, supply the error and an explanation of what was being done when the error occurred
func NewClientInternalError(err error, while string) *ClientError {
	return &ClientError{
		Kind:        KindInternal,
		UserMessage: "An error occurred. Please try again later.",
		LogMessage:  fmt.Sprintf("internal error: %v while %v", err, while),
	}
}

// NewClientParseError is used when a successful response does not contain valid JSON
func NewClientParseError(statusCode int, body []byte) *ClientError {
	return &ClientError{
		StatusCode:  statusCode,
		Kind:        KindParse,
		UserMessage: "An error occurred. Please try again later.",
		LogMessage:  fmt.Sprintf("status %d: response body is not valid JSON", statusCode),
		Body:        body,
	}
}

// NewClientApiError creates a ClientError from a non-2xx response sent by the content API
func NewClientApiError(statusCode int, body []byte) *ClientError {
	var serverErr struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	// the body is not always JSON (e.g. proxy error pages)
	_ = json.Unmarshal(body, &serverErr)

	kind := KindClient
	if statusCode >= 500 {
		kind = KindServer
	}

	var userMsg string
	switch statusCode {
	case http.StatusBadRequest:
		if serverErr.Message != "" {
			userMsg = serverErr.Message
		} else {
			userMsg = "Invalid request. Please check your input and try again."
		}
	case http.StatusNotFound:
		userMsg = "The requested content could not be found."
	case http.StatusTooManyRequests:
		userMsg = "Too many requests. Please try again in a few moments."
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		userMsg = "The service is temporarily unavailable. Please try again later."
	default:
		userMsg = "An error occurred. Please try again."
	}

	logMsg := fmt.Sprintf("content api status %d", statusCode)
	if serverErr.Message != "" {
		logMsg += fmt.Sprintf(" - %s", serverErr.Message)
	}

	return &ClientError{
		StatusCode:    statusCode,
		Kind:          kind,
		ServerMessage: serverErr.Message,
		UserMessage:   userMsg,
		LogMessage:    logMsg,
		Body:          body,
	}
}
