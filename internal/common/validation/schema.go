// Package validation checks intent parameters against JSON schemas.
package validation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	apperrors "card-assistant/internal/common/errors"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// ParameterValidator holds one compiled schema per intent. Intents without a
// schema accept any parameters.
type ParameterValidator struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

// NewParameterValidator compiles schemas keyed by intent name.
func NewParameterValidator(schemas map[string]map[string]interface{}) (*ParameterValidator, error) {
	v := &ParameterValidator{schemas: make(map[string]*gojsonschema.Schema, len(schemas))}
	for intent, raw := range schemas {
		if err := v.Register(intent, raw); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Register compiles and stores the schema for intent. An empty schema
// removes any existing one.
func (v *ParameterValidator) Register(intent string, raw map[string]interface{}) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(raw) == 0 {
		delete(v.schemas, intent)
		return nil
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("compile parameter schema for %s: %w", intent, err)
	}
	v.schemas[intent] = schema
	return nil
}

// Check validates params and reports every violation.
func (v *ParameterValidator) Check(intent string, params map[string]string) (*ValidationResult, error) {
	v.mu.RLock()
	schema, ok := v.schemas[intent]
	v.mu.RUnlock()
	if !ok {
		return &ValidationResult{Valid: true}, nil
	}

	doc := make(map[string]interface{}, len(params))
	for k, val := range params {
		doc[k] = val
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.Slice(out.Errors, func(i, j int) bool { return out.Errors[i].Field < out.Errors[j].Field })
	return out, nil
}

// Validate returns an INVALID_PARAMETERS StandardError when params do not
// satisfy the intent's schema.
func (v *ParameterValidator) Validate(intent string, params map[string]string) error {
	if v == nil {
		return nil
	}
	result, err := v.Check(intent, params)
	if err != nil {
		return apperrors.NewInvalidParametersError(intent, []string{err.Error()})
	}
	if !result.Valid {
		return apperrors.NewInvalidParametersError(intent, result.GetErrorMessages())
	}
	return nil
}

// Intents lists the intents that have a schema.
func (v *ParameterValidator) Intents() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.schemas))
	for name := range v.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
