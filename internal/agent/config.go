package agent

import "card-assistant/internal/common/config"

const DefaultMaxTurns = 25

// Config holds the orchestrator options. The feature flags are carried for
// the handlers; the agent itself never branches on them.
type Config struct {
	MaxTurns              int
	EnableVoiceBiometrics bool
	EnableRAG             bool
	EnableFraudChecks     bool
}

func DefaultConfig() Config {
	return Config{
		MaxTurns:              DefaultMaxTurns,
		EnableVoiceBiometrics: true,
		EnableRAG:             true,
		EnableFraudChecks:     true,
	}
}

// ConfigFrom maps the application config section onto agent options.
func ConfigFrom(cfg config.AgentConfig) Config {
	c := Config{
		MaxTurns:              cfg.MaxTurns,
		EnableVoiceBiometrics: cfg.EnableVoiceBiometrics,
		EnableRAG:             cfg.EnableRAG,
		EnableFraudChecks:     cfg.EnableFraudChecks,
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	return c
}
