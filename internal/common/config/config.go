// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Agent        AgentConfig        `mapstructure:"agent"`
	Backends     BackendsConfig     `mapstructure:"backends"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Verification VerificationConfig `mapstructure:"verification"`
	Analytics    AnalyticsConfig    `mapstructure:"analytics"`
	Escalation   EscalationConfig   `mapstructure:"escalation"`
	Knowledge    KnowledgeConfig    `mapstructure:"knowledge"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name          string `mapstructure:"name"`
	Version       string `mapstructure:"version"`
	Environment   string `mapstructure:"environment"`
	IntentCatalog string `mapstructure:"intent_catalog"`
}

// AgentConfig carries the orchestrator options. The feature flags are
// consumed by intent handlers only.
type AgentConfig struct {
	MaxTurns              int  `mapstructure:"max_turns"`
	EnableVoiceBiometrics bool `mapstructure:"enable_voice_biometrics"`
	EnableRAG             bool `mapstructure:"enable_rag"`
	EnableFraudChecks     bool `mapstructure:"enable_fraud_checks"`
}

// Backend modes.
const (
	BackendModeDemo     = "demo"
	BackendModePostgres = "postgres"
)

type BackendsConfig struct {
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig selects the caller authentication provider.
type AuthConfig struct {
	Provider string `mapstructure:"provider"` // "static" or "keycloak"
	// StaticAllow is the static provider's answer for callers that have not
	// run verify_client.
	StaticAllow bool `mapstructure:"static_allow"`
	Keycloak    struct {
		URL          string `mapstructure:"url"`
		Realm        string `mapstructure:"realm"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
	} `mapstructure:"keycloak"`
}

// VerificationConfig configures the verify_client strategies.
type VerificationConfig struct {
	Strategies          []string `mapstructure:"strategies"` // demo, otp, voiceprint
	OTPKeyPrefix        string   `mapstructure:"otp_key_prefix"`
	VoiceMatchThreshold float64  `mapstructure:"voice_match_threshold"`
}

// AnalyticsConfig configures the periodic drain of the event collector.
type AnalyticsConfig struct {
	FlushInterval int `mapstructure:"flush_interval"` // milliseconds
	Kafka         struct {
		Enabled bool     `mapstructure:"enabled"`
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	Redis struct {
		Enabled bool   `mapstructure:"enabled"`
		ListKey string `mapstructure:"list_key"`
	} `mapstructure:"redis"`
}

// EscalationConfig configures the channels a human-handoff ticket is pushed to.
type EscalationConfig struct {
	AWSRegion string `mapstructure:"aws_region"`
	SNS       struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	SES struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		DeskEmail string `mapstructure:"desk_email"`
	} `mapstructure:"ses"`
	Zeebe struct {
		Enabled       bool   `mapstructure:"enabled"`
		BrokerAddress string `mapstructure:"broker_address"`
		ProcessID     string `mapstructure:"process_id"`
	} `mapstructure:"zeebe"`
	Store struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"store"`
}

// KnowledgeConfig configures the merchant knowledge base used by explain_charge.
type KnowledgeConfig struct {
	Index   string `mapstructure:"index"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds the health/metrics listener.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
