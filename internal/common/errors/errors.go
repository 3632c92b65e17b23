// Package errors provides standardized error handling for the card assistant.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeCardAPIFailed       ErrorCode = "CARD_API_FAILED"
	ErrCodeCardNotFound        ErrorCode = "CARD_NOT_FOUND"
	ErrCodeTransactionNotFound ErrorCode = "TRANSACTION_NOT_FOUND"
	ErrCodeTransactionLookup   ErrorCode = "TRANSACTION_LOOKUP_FAILED"
	ErrCodeInvalidParameters   ErrorCode = "INVALID_PARAMETERS"

	ErrCodeVerificationFailed  ErrorCode = "VERIFICATION_FAILED"
	ErrCodeVerificationBackend ErrorCode = "VERIFICATION_BACKEND_FAILED"
	ErrCodeTokenInvalid        ErrorCode = "TOKEN_INVALID"

	ErrCodeKnowledgeLookupFailed ErrorCode = "KNOWLEDGE_LOOKUP_FAILED"
	ErrCodeHandoffDispatchFailed ErrorCode = "HANDOFF_DISPATCH_FAILED"
	ErrCodeAnalyticsExportFailed ErrorCode = "ANALYTICS_EXPORT_FAILED"

	ErrCodeExternalService  ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout          ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAuthentication   ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeBusinessRule     ErrorCode = "BUSINESS_RULE_VIOLATION"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewCardAPIFailedError wraps a transport or storage failure of the card backend.
func NewCardAPIFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCardAPIFailed,
		Message:   "Card management backend error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransactionNotFoundError creates a non-retryable lookup error.
func NewTransactionNotFoundError(transactionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransactionNotFound,
		Message:   "Transaction not found",
		Details:   fmt.Sprintf("transactionId: %s", transactionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransactionLookupError creates a retryable backend error.
func NewTransactionLookupError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransactionLookup,
		Message:   "Transaction backend error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidParametersError reports intent parameters that failed validation.
func NewInvalidParametersError(intent string, problems []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidParameters,
		Message:   fmt.Sprintf("Invalid parameters for intent %s", intent),
		Details:   strings.Join(problems, "; "),
		Retryable: false,
		Metadata:  map[string]interface{}{"intent": intent},
		Timestamp: time.Now().UTC(),
	}
}

// NewVerificationBackendError wraps a failure of the verification store.
func NewVerificationBackendError(method string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeVerificationBackend,
		Message:   "Verification backend error",
		Details:   fmt.Sprintf("method: %s, error: %s", method, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTokenInvalidError reports an inactive or rejected access token.
func NewTokenInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTokenInvalid,
		Message:   "Token is not active",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewKnowledgeLookupError wraps a merchant knowledge base failure.
func NewKnowledgeLookupError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeKnowledgeLookupFailed,
		Message:   "Merchant knowledge lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewHandoffDispatchError reports a ticket that could not be handed to a channel.
func NewHandoffDispatchError(channel, caseID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHandoffDispatchFailed,
		Message:   fmt.Sprintf("Escalation handoff via %s failed", channel),
		Details:   fmt.Sprintf("caseId: %s, error: %s", caseID, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"channel": channel, "caseId": caseID},
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalyticsExportError reports a batch of events that was drained but not delivered.
func NewAnalyticsExportError(exporter string, count int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalyticsExportFailed,
		Message:   fmt.Sprintf("Analytics export via %s failed", exporter),
		Details:   fmt.Sprintf("events: %d, error: %s", count, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBusinessRule,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthentication,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeCardAPIFailed,
		ErrCodeTransactionLookup,
		ErrCodeVerificationBackend,
		ErrCodeKnowledgeLookupFailed,
		ErrCodeHandoffDispatchFailed,
		ErrCodeExternalService,
		ErrCodeTimeout:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CARD"):
		return "CARD"
	case strings.Contains(codeStr, "TRANSACTION"):
		return "TRANSACTION"
	case strings.Contains(codeStr, "VERIFICATION") || strings.Contains(codeStr, "TOKEN") || strings.Contains(codeStr, "AUTHENTICATION"):
		return "IDENTITY"
	case strings.Contains(codeStr, "HANDOFF"):
		return "HANDOFF"
	case strings.Contains(codeStr, "ANALYTICS"):
		return "ANALYTICS"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "TIMEOUT") || strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "KNOWLEDGE"):
		return "DEPENDENCY"
	default:
		return "OTHER"
	}
}

// CodeOf returns the ErrorCode carried by err, or "" when err is not a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}
