package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscalationError_Unwrapping(t *testing.T) {
	base := NewEscalationRequired("No handler registered for intent: close_account")
	wrapped := fmt.Errorf("turn failed: %w", base)

	escErr, ok := AsEscalation(wrapped)
	require.True(t, ok)
	assert.Same(t, base, escErr)
	assert.Equal(t, "No handler registered for intent: close_account", escErr.Error())
	assert.True(t, IsEscalation(wrapped))
	assert.False(t, IsEscalation(stderrors.New("boom")))
	assert.False(t, IsEscalation(nil))
}

func TestNormalize(t *testing.T) {
	t.Run("standard error passes through", func(t *testing.T) {
		stdErr := NewTransactionNotFoundError("TXN-1")
		assert.Same(t, stdErr, Normalize(fmt.Errorf("lookup: %w", stdErr)))
	})

	t.Run("plain error becomes internal error", func(t *testing.T) {
		out := Normalize(stderrors.New("socket closed"))
		assert.Equal(t, ErrorCode("INTERNAL_ERROR"), out.Code)
		assert.Equal(t, "socket closed", out.Details)
		assert.False(t, out.Retryable)
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeCardAPIFailed, CodeOf(NewCardAPIFailedError("freeze", stderrors.New("down"))))
	assert.Equal(t, ErrorCode(""), CodeOf(stderrors.New("plain")))
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{ErrCodeCardAPIFailed, "CARD"},
		{ErrCodeTransactionNotFound, "TRANSACTION"},
		{ErrCodeVerificationBackend, "IDENTITY"},
		{ErrCodeTokenInvalid, "IDENTITY"},
		{ErrCodeHandoffDispatchFailed, "HANDOFF"},
		{ErrCodeAnalyticsExportFailed, "ANALYTICS"},
		{ErrCodeInvalidParameters, "VALIDATION"},
		{ErrCodeTimeout, "DEPENDENCY"},
		{ErrCodeBusinessRule, "OTHER"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCategory(tt.code))
		})
	}
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeCardAPIFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeTimeout))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidParameters))
	assert.False(t, IsRetryableErrorCode(ErrCodeTransactionNotFound))
}

func TestInvalidParametersError_Details(t *testing.T) {
	err := NewInvalidParametersError("explain_charge", []string{"transaction_id is required", "extra is not allowed"})
	assert.Equal(t, "transaction_id is required; extra is not allowed", err.Details)
	assert.Equal(t, "explain_charge", err.Metadata["intent"])
	assert.Contains(t, err.Error(), "INVALID_PARAMETERS")
}
