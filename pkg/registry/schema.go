// pkg/registry/schema.go
package registry

// IntentCatalog describes every intent the assistant understands.
type IntentCatalog struct {
	Version     string   `json:"version"`
	LastUpdated string   `json:"lastUpdated"`
	Intents     []Intent `json:"intents"`
}

type Intent struct {
	Name                 string                 `json:"name"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	RequiresVerification bool                   `json:"requiresVerification"`
	ParameterSchema      map[string]interface{} `json:"parameterSchema,omitempty"`
	ResponseTypes        []string               `json:"responseTypes"`
	ErrorCodes           []string               `json:"errorCodes"`
	Tags                 []string               `json:"tags"`
}
