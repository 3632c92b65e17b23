package verification

import (
	"context"
	"crypto/subtle"

	"github.com/redis/go-redis/v9"

	apperrors "card-assistant/internal/common/errors"
	"card-assistant/internal/models"
)

// OTP compares the caller's passcode with the one issued to the client and
// stored at <prefix><clientID>. A matching code is consumed.
type OTP struct {
	client redis.Cmdable
	prefix string
}

func NewOTP(client redis.Cmdable, keyPrefix string) *OTP {
	return &OTP{client: client, prefix: keyPrefix}
}

func (o *OTP) key(clientID string) string {
	return o.prefix + clientID
}

func (o *OTP) Verify(ctx context.Context, conv *models.ConversationContext, params map[string]string) (Result, error) {
	code := params["otp"]
	if code == "" {
		return failed(MethodOTP, "One-time passcode not provided"), nil
	}

	key := o.key(conv.ClientID)
	issued, err := o.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return failed(MethodOTP, "No one-time passcode issued"), nil
	}
	if err != nil {
		return Result{}, apperrors.NewVerificationBackendError(MethodOTP, err)
	}

	if subtle.ConstantTimeCompare([]byte(issued), []byte(code)) != 1 {
		return failed(MethodOTP, reasonInvalidCredentials), nil
	}

	if err := o.client.Del(ctx, key).Err(); err != nil {
		return Result{}, apperrors.NewVerificationBackendError(MethodOTP, err)
	}
	return passed(MethodOTP), nil
}
