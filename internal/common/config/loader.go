// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and applies environment overrides (CARD_ASSISTANT_AGENT_MAX_TURNS etc).
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // environment overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CARD_ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up to the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// setDefaults registers defaults that zero values cannot express (true booleans).
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "card-assistant")
	v.SetDefault("agent.max_turns", 25)
	v.SetDefault("agent.enable_voice_biometrics", true)
	v.SetDefault("agent.enable_rag", true)
	v.SetDefault("agent.enable_fraud_checks", true)
	v.SetDefault("backends.mode", BackendModeDemo)
	v.SetDefault("auth.provider", "static")
	v.SetDefault("verification.strategies", []string{"demo"})
}

// overrideEmptyConfig fills secrets from well-known variables when the file left them empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Auth.Keycloak.ClientSecret == "" {
		if val := os.Getenv("KEYCLOAK_CLIENT_SECRET"); val != "" {
			cfg.Auth.Keycloak.ClientSecret = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Agent.MaxTurns == 0 {
		cfg.Agent.MaxTurns = 25
	}
	if cfg.Backends.Mode == "" {
		cfg.Backends.Mode = BackendModeDemo
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Verification.OTPKeyPrefix == "" {
		cfg.Verification.OTPKeyPrefix = "otp:"
	}
	if cfg.Verification.VoiceMatchThreshold == 0 {
		cfg.Verification.VoiceMatchThreshold = 0.85
	}

	if cfg.Analytics.FlushInterval == 0 {
		cfg.Analytics.FlushInterval = 5000
	}
	if cfg.Analytics.Kafka.Topic == "" {
		cfg.Analytics.Kafka.Topic = "card-assistant-analytics"
	}
	if cfg.Analytics.Redis.ListKey == "" {
		cfg.Analytics.Redis.ListKey = "analytics:events"
	}

	if cfg.Escalation.Zeebe.ProcessID == "" {
		cfg.Escalation.Zeebe.ProcessID = "card-support-handoff"
	}

	if cfg.Knowledge.Index == "" {
		cfg.Knowledge.Index = "merchants"
	}
	if cfg.Knowledge.Timeout == 0 {
		cfg.Knowledge.Timeout = 2000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Agent.MaxTurns < 0 {
		return fmt.Errorf("agent.max_turns must not be negative")
	}
	if cfg.Analytics.FlushInterval < 0 {
		return fmt.Errorf("analytics.flush_interval must not be negative")
	}

	switch cfg.Backends.Mode {
	case BackendModeDemo:
	case BackendModePostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	default:
		return fmt.Errorf("backends.mode %q is not supported", cfg.Backends.Mode)
	}

	if cfg.Auth.Provider == "keycloak" && (cfg.Auth.Keycloak.URL == "" || cfg.Auth.Keycloak.Realm == "") {
		return fmt.Errorf("auth.keycloak.url and auth.keycloak.realm are required")
	}

	for _, strategy := range cfg.Verification.Strategies {
		switch strategy {
		case "demo", "voiceprint":
		case "otp":
			if cfg.Database.Redis.Address == "" {
				return fmt.Errorf("database.redis.address is required for otp verification")
			}
		default:
			return fmt.Errorf("verification strategy %q is not supported", strategy)
		}
	}

	if cfg.Analytics.Kafka.Enabled && len(cfg.Analytics.Kafka.Brokers) == 0 {
		return fmt.Errorf("analytics.kafka.brokers is required")
	}
	if cfg.Analytics.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required for redis analytics export")
	}

	if cfg.Escalation.SNS.Enabled && cfg.Escalation.SNS.TopicARN == "" {
		return fmt.Errorf("escalation.sns.topic_arn is required")
	}
	if cfg.Escalation.SES.Enabled && (cfg.Escalation.SES.FromEmail == "" || cfg.Escalation.SES.DeskEmail == "") {
		return fmt.Errorf("escalation.ses.from_email and escalation.ses.desk_email are required")
	}
	if cfg.Escalation.Zeebe.Enabled && cfg.Escalation.Zeebe.BrokerAddress == "" {
		return fmt.Errorf("escalation.zeebe.broker_address is required")
	}
	if cfg.Escalation.Store.Enabled && cfg.Backends.Mode != BackendModePostgres {
		return fmt.Errorf("escalation.store requires backends.mode=postgres")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
