package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"card-assistant/internal/common/errors"
)

func testClient(create createInstanceFunc) *Client {
	return &Client{
		config: &ClientConfig{
			ConnectionTimeout: time.Second,
			RequestTimeout:    time.Second,
			RetryConfig: &RetryConfig{
				MaxRetries: 2,
				BaseDelay:  time.Millisecond,
				MaxDelay:   5 * time.Millisecond,
			},
		},
		create: create,
	}
}

func TestStartProcess_Success(t *testing.T) {
	var gotID string
	var gotVars interface{}
	c := testClient(func(ctx context.Context, processID string, variables interface{}) (int64, error) {
		gotID = processID
		gotVars = variables
		return 42, nil
	})

	key, err := c.StartProcess(context.Background(), "card-support-handoff", map[string]string{"caseId": "CASE-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), key)
	assert.Equal(t, "card-support-handoff", gotID)
	assert.Equal(t, map[string]string{"caseId": "CASE-1"}, gotVars)
}

func TestStartProcess_RetriesTransientErrors(t *testing.T) {
	calls := 0
	c := testClient(func(ctx context.Context, processID string, variables interface{}) (int64, error) {
		calls++
		if calls < 3 {
			return 0, stderrors.New("rpc error: code = Unavailable")
		}
		return 7, nil
	})

	key, err := c.StartProcess(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), key)
	assert.Equal(t, 3, calls)
}

func TestStartProcess_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	c := testClient(func(ctx context.Context, processID string, variables interface{}) (int64, error) {
		calls++
		return 0, stderrors.New("process definition not found")
	})

	_, err := c.StartProcess(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, errors.ErrCodeResourceNotFound, errors.CodeOf(err))
}

func TestStartProcess_ExhaustedRetries(t *testing.T) {
	calls := 0
	c := testClient(func(ctx context.Context, processID string, variables interface{}) (int64, error) {
		calls++
		return 0, stderrors.New("context deadline exceeded")
	})

	_, err := c.StartProcess(context.Background(), "p", nil)
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, errors.ErrCodeTimeout, errors.CodeOf(err))
}

func TestMapZeebeError(t *testing.T) {
	c := testClient(nil)

	tests := []struct {
		msg  string
		code errors.ErrorCode
	}{
		{"connection refused", errors.ErrCodeExternalService},
		{"deadline exceeded", errors.ErrCodeTimeout},
		{"not found", errors.ErrCodeResourceNotFound},
		{"already exists", errors.ErrCodeBusinessRule},
		{"permission denied", errors.ErrCodeAuthentication},
		{"something odd", errors.ErrCodeExternalService},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := c.mapZeebeError(stderrors.New(tt.msg), "op", 0)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("Connection Reset by peer")))
	assert.True(t, isRetryableZeebeError(stderrors.New("broken pipe")))
	assert.False(t, isRetryableZeebeError(stderrors.New("invalid argument")))
}

func TestHealthCheck_NotConnected(t *testing.T) {
	c := testClient(nil)
	assert.Error(t, c.HealthCheck(context.Background()))
	assert.NoError(t, c.Close())
}
