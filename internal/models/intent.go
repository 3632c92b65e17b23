package models

// ResponseType enumerates the payload kinds an intent response can carry.
type ResponseType string

const (
	ResponseTypeText            ResponseType = "text"
	ResponseTypeCardSummary     ResponseType = "card_summary"
	ResponseTypeTransactionList ResponseType = "transaction_list"
	ResponseTypeCaseEscalation  ResponseType = "case_escalation"
)

// IntentRequest is a pre-classified user request. Handlers and the agent
// treat it as read-only.
type IntentRequest struct {
	IntentName string            `json:"intentName" yaml:"intent"`
	Utterance  string            `json:"utterance" yaml:"utterance"`
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters"`
}

func NewIntentRequest(intent, utterance string, params map[string]string) *IntentRequest {
	if params == nil {
		params = map[string]string{}
	}
	return &IntentRequest{IntentName: intent, Utterance: utterance, Parameters: params}
}

// Param returns the named parameter or "" when absent.
func (r *IntentRequest) Param(key string) string {
	return r.Parameters[key]
}

// IntentResponse is the structured result of one handled turn.
type IntentResponse struct {
	Message          string                 `json:"message"`
	ResponseType     ResponseType           `json:"responseType"`
	Data             map[string]interface{} `json:"data,omitempty"`
	RequiresFollowUp bool                   `json:"requiresFollowUp"`
	TerminateSession bool                   `json:"terminateSession"`
}

// NewTextResponse builds a plain text response.
func NewTextResponse(message string, followUp bool) *IntentResponse {
	return &IntentResponse{
		Message:          message,
		ResponseType:     ResponseTypeText,
		RequiresFollowUp: followUp,
	}
}
