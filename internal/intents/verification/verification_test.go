package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "card-assistant/internal/common/errors"
	"card-assistant/internal/common/logger"
	"card-assistant/internal/intents"
	"card-assistant/internal/models"
	"card-assistant/internal/monitoring/observability"
)

var _ intents.Handler = (*VerifyClientHandler)(nil)

func newConversation() *models.ConversationContext {
	return models.NewConversationContext("client-1", "voice")
}

func TestDemo_Verify(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		pass   bool
	}{
		{name: "demo otp", params: map[string]string{"otp": "000000"}, pass: true},
		{name: "demo last4", params: map[string]string{"last4": "0000"}, pass: true},
		{name: "wrong otp", params: map[string]string{"otp": "123456"}, pass: false},
		{name: "nothing", params: nil, pass: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Demo{}.Verify(context.Background(), newConversation(), tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.pass, res.Passed)
			assert.Equal(t, MethodDemo, res.Method)
			if !tt.pass {
				assert.Equal(t, "Invalid credentials provided", res.FailureReason)
			}
		})
	}
}

func TestOTP_Verify(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	svc := NewOTP(client, "otp:")
	conv := newConversation()
	ctx := context.Background()

	res, err := svc.Verify(ctx, conv, map[string]string{"otp": "482913"})
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, "No one-time passcode issued", res.FailureReason)

	require.NoError(t, mr.Set("otp:client-1", "482913"))

	res, err = svc.Verify(ctx, conv, map[string]string{"otp": "111111"})
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.True(t, mr.Exists("otp:client-1"), "a wrong code must not consume the passcode")

	res, err = svc.Verify(ctx, conv, map[string]string{"otp": "482913"})
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Equal(t, MethodOTP, res.Method)
	assert.False(t, mr.Exists("otp:client-1"), "a matching code is consumed")

	res, err = svc.Verify(ctx, conv, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "One-time passcode not provided", res.FailureReason)
}

func TestOTP_BackendError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("otp:client-1").SetErr(errors.New("connection refused"))

	_, err := NewOTP(client, "otp:").Verify(context.Background(), newConversation(), map[string]string{"otp": "1"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeVerificationBackend, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoiceprint_Verify(t *testing.T) {
	tests := []struct {
		name   string
		svc    Voiceprint
		params map[string]string
		pass   bool
		reason string
	}{
		{name: "above threshold", svc: Voiceprint{Threshold: 0.85, Enabled: true}, params: map[string]string{"voice_match_score": "0.91"}, pass: true},
		{name: "at threshold", svc: Voiceprint{Threshold: 0.85, Enabled: true}, params: map[string]string{"voice_match_score": "0.85"}, pass: true},
		{name: "below threshold", svc: Voiceprint{Threshold: 0.85, Enabled: true}, params: map[string]string{"voice_match_score": "0.4"}, reason: "Voice did not match"},
		{name: "unreadable", svc: Voiceprint{Threshold: 0.85, Enabled: true}, params: map[string]string{"voice_match_score": "high"}, reason: "Unreadable voice match score"},
		{name: "nan", svc: Voiceprint{Threshold: 0.85, Enabled: true}, params: map[string]string{"voice_match_score": "NaN"}, reason: "Unreadable voice match score"},
		{name: "lowercase nan", svc: Voiceprint{Threshold: 0.85, Enabled: true}, params: map[string]string{"voice_match_score": "nan"}, reason: "Unreadable voice match score"},
		{name: "positive infinity", svc: Voiceprint{Threshold: 0.85, Enabled: true}, params: map[string]string{"voice_match_score": "+Inf"}, reason: "Unreadable voice match score"},
		{name: "negative infinity", svc: Voiceprint{Threshold: 0.85, Enabled: true}, params: map[string]string{"voice_match_score": "-Inf"}, reason: "Unreadable voice match score"},
		{name: "above range", svc: Voiceprint{Threshold: 0.85, Enabled: true}, params: map[string]string{"voice_match_score": "1.5"}, reason: "Unreadable voice match score"},
		{name: "negative", svc: Voiceprint{Threshold: 0.85, Enabled: true}, params: map[string]string{"voice_match_score": "-0.2"}, reason: "Unreadable voice match score"},
		{name: "perfect match", svc: Voiceprint{Threshold: 0.85, Enabled: true}, params: map[string]string{"voice_match_score": "1"}, pass: true},
		{name: "missing", svc: Voiceprint{Threshold: 0.85, Enabled: true}, params: map[string]string{}, reason: "No voice sample provided"},
		{name: "disabled", svc: Voiceprint{Threshold: 0.85}, params: map[string]string{"voice_match_score": "0.99"}, reason: "Voice biometrics disabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.svc.Verify(context.Background(), newConversation(), tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.pass, res.Passed)
			assert.Equal(t, tt.reason, res.FailureReason)
		})
	}
}

type failingService struct{}

func (failingService) Verify(ctx context.Context, conv *models.ConversationContext, params map[string]string) (Result, error) {
	return Result{}, errors.New("backend down")
}

func TestChain_Verify(t *testing.T) {
	ctx := context.Background()
	conv := newConversation()

	chain := Chain{Voiceprint{Threshold: 0.85, Enabled: true}, Demo{}}

	res, err := chain.Verify(ctx, conv, map[string]string{"otp": "000000"})
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Equal(t, MethodDemo, res.Method)

	res, err = chain.Verify(ctx, conv, map[string]string{"voice_match_score": "0.9"})
	require.NoError(t, err)
	assert.Equal(t, MethodVoiceprint, res.Method)

	res, err = chain.Verify(ctx, conv, map[string]string{})
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, MethodDemo, res.Method, "last failure is reported")

	res, err = Chain{}.Verify(ctx, conv, nil)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, MethodNone, res.Method)

	_, err = Chain{failingService{}, Demo{}}.Verify(ctx, conv, map[string]string{"otp": "000000"})
	assert.Error(t, err)
}

func TestVerifyClientHandler(t *testing.T) {
	h := NewVerifyClientHandler(Demo{}, logger.NewTestLogger(t))
	assert.Equal(t, intents.VerifyClient, h.Name())
	assert.False(t, h.RequiresVerification())

	conv := newConversation()
	obs := observability.Context{TraceID: "t1", SpanID: "s1"}

	resp, err := h.Handle(context.Background(), models.NewIntentRequest(intents.VerifyClient, "", map[string]string{"otp": "999999"}), conv, obs)
	require.NoError(t, err)
	assert.False(t, conv.IsVerified)
	assert.Equal(t, 1, conv.VerificationAttempts)
	assert.True(t, resp.RequiresFollowUp)
	assert.Equal(t, messageRetry, resp.Message)
	assert.Equal(t, false, resp.Data["verification_passed"])

	resp, err = h.Handle(context.Background(), models.NewIntentRequest(intents.VerifyClient, "", map[string]string{"otp": "000000"}), conv, obs)
	require.NoError(t, err)
	assert.True(t, conv.IsVerified)
	assert.Equal(t, 2, conv.VerificationAttempts)
	assert.False(t, resp.RequiresFollowUp)
	assert.Equal(t, models.ResponseTypeText, resp.ResponseType)
	assert.Equal(t, "Thank you. I've verified your identity. How can I assist you with your card today?", resp.Message)
	assert.Equal(t, true, resp.Data["verification_passed"])
	assert.Equal(t, MethodDemo, resp.Data["method"])
}

func TestVerifyClientHandler_BackendError(t *testing.T) {
	h := NewVerifyClientHandler(failingService{}, nil)
	conv := newConversation()

	resp, err := h.Handle(context.Background(), models.NewIntentRequest(intents.VerifyClient, "", nil), conv, observability.Context{})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 0, conv.VerificationAttempts)
}
