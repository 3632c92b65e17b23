package verification

import (
	"context"
	"math"
	"strconv"

	"card-assistant/internal/models"
)

// Voiceprint passes when the channel-supplied voice_match_score, a value in
// [0, 1], reaches the threshold. It never passes while disabled.
type Voiceprint struct {
	Threshold float64
	Enabled   bool
}

func (v Voiceprint) Verify(ctx context.Context, conv *models.ConversationContext, params map[string]string) (Result, error) {
	if !v.Enabled {
		return failed(MethodVoiceprint, "Voice biometrics disabled"), nil
	}
	raw, ok := params["voice_match_score"]
	if !ok {
		return failed(MethodVoiceprint, "No voice sample provided"), nil
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > 1 {
		return failed(MethodVoiceprint, "Unreadable voice match score"), nil
	}
	if score < v.Threshold {
		return failed(MethodVoiceprint, "Voice did not match"), nil
	}
	return passed(MethodVoiceprint), nil
}
