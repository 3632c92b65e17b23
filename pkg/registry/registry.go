// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"card-assistant/internal/intents"
)

func LoadCatalog(path string) (*IntentCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*IntentCatalog, error) {
	var cat IntentCatalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse intent catalog: %w", err)
	}
	return &cat, nil
}

// SaveCatalog stamps LastUpdated and writes the catalog as indented JSON.
func SaveCatalog(cat *IntentCatalog, path string) error {
	cat.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// Find returns the entry for name.
func (c *IntentCatalog) Find(name string) (*Intent, bool) {
	for i := range c.Intents {
		if c.Intents[i].Name == name {
			return &c.Intents[i], true
		}
	}
	return nil, false
}

// Set updates one scalar field of the named intent.
func (c *IntentCatalog) Set(name, field, value string) error {
	in, ok := c.Find(name)
	if !ok {
		return fmt.Errorf("intent %s not found", name)
	}

	switch field {
	case "displayName":
		in.DisplayName = value
	case "description":
		in.Description = value
	case "category":
		in.Category = value
	case "version":
		in.Version = value
	case "requiresVerification":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid requiresVerification value: %w", err)
		}
		in.RequiresVerification = v
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}

// Schemas returns the parameter schemas keyed by intent name.
func (c *IntentCatalog) Schemas() map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{})
	for _, in := range c.Intents {
		if len(in.ParameterSchema) > 0 {
			out[in.Name] = in.ParameterSchema
		}
	}
	return out
}

// Validate checks required fields and name uniqueness.
func (c *IntentCatalog) Validate() error {
	if len(c.Intents) == 0 {
		return fmt.Errorf("catalog contains no intents")
	}

	names := make(map[string]bool)
	for _, in := range c.Intents {
		if in.Name == "" {
			return fmt.Errorf("intent missing required field: Name")
		}
		if names[in.Name] {
			return fmt.Errorf("duplicate intent name: %s", in.Name)
		}
		names[in.Name] = true

		if in.DisplayName == "" {
			return fmt.Errorf("intent %s missing required field: DisplayName", in.Name)
		}
		if in.Category == "" {
			return fmt.Errorf("intent %s missing required field: Category", in.Name)
		}
		if in.Name == intents.VerifyClient && in.RequiresVerification {
			return fmt.Errorf("intent %s cannot require verification", in.Name)
		}
	}
	return nil
}

// Check compares the catalog with the registered handlers and lists every
// disagreement. An empty result means they match.
func Check(cat *IntentCatalog, handlers []intents.Handler) []string {
	var problems []string
	seen := make(map[string]bool, len(handlers))

	for _, h := range handlers {
		seen[h.Name()] = true
		entry, ok := cat.Find(h.Name())
		if !ok {
			problems = append(problems, fmt.Sprintf("handler %s has no catalog entry", h.Name()))
			continue
		}
		if entry.RequiresVerification != h.RequiresVerification() {
			problems = append(problems, fmt.Sprintf("intent %s: catalog requiresVerification=%t, handler=%t",
				h.Name(), entry.RequiresVerification, h.RequiresVerification()))
		}
	}

	for _, in := range cat.Intents {
		if !seen[in.Name] {
			problems = append(problems, fmt.Sprintf("intent %s has no registered handler", in.Name))
		}
	}

	sort.Strings(problems)
	return problems
}
