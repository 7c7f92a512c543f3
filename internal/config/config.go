package config

import (
	"fmt"
	"strings"
)

// Supported database drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

// Supported embedding providers.
const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"
)

// Config holds the smartdesk service configuration.
type Config struct {
	HTTP      HTTPConfig               `yaml:"http"`
	Database  DatabaseConfig           `yaml:"database"`
	Embedding EmbeddingConfig          `yaml:"embedding"`
	Knowledge KnowledgeConfig          `yaml:"knowledge"`
	Triage    TriageConfig             `yaml:"triage"`
	Accounts  map[string]AccountConfig `yaml:"accounts"`
	Auth      AuthConfig               `yaml:"auth"`
	Storage   StorageConfig            `yaml:"storage"`
	Logging   LoggingConfig            `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // memory (default), redis, valkey
	Addrs            []string `yaml:"addrs"`  // several addresses select cluster mode
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string       `yaml:"provider"` // local (default), openai
	APIKey     string       `yaml:"api_key"`
	BaseURL    string       `yaml:"base_url"`
	Model      string       `yaml:"model"`
	Dimensions int          `yaml:"dimensions"`
	TimeoutSec int          `yaml:"timeout_sec"` // per API call, 30 when zero
	Cache      CacheConfig  `yaml:"cache"`
	Budget     BudgetConfig `yaml:"budget"`
}

// CacheConfig holds embedding cache settings. Only used by remote providers.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"` // 0 = no expiry
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// KnowledgeConfig points at the knowledge-base file.
type KnowledgeConfig struct {
	File string `yaml:"file"` // empty = built-in entries
}

// TriageConfig tunes the decision rules.
type TriageConfig struct {
	MaxDistance   float64 `yaml:"max_distance"`
	UpgradePlan   string  `yaml:"upgrade_plan"`
	DefaultUserID string  `yaml:"default_user_id"`
}

// AccountConfig is one seed account.
type AccountConfig struct {
	Plan  string `yaml:"plan"`
	Email string `yaml:"email"`
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderLocal
	}
	if c.Triage.MaxDistance == 0 {
		c.Triage.MaxDistance = 1.0
	}
	if c.Triage.UpgradePlan == "" {
		c.Triage.UpgradePlan = "Pro Monthly"
	}
	if c.Triage.DefaultUserID == "" {
		c.Triage.DefaultUserID = "user123"
	}
	if c.Accounts == nil {
		c.Accounts = map[string]AccountConfig{
			"user123": {Plan: "Free", Email: "user123@example.com"},
		}
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "smartdesk:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
		if c.Database.DB < 0 || (c.Database.DB > 0 && len(c.Database.Addrs) > 1) {
			return fmt.Errorf("database.db must be 0 in cluster mode and never negative, got %d", c.Database.DB)
		}
	default:
		return fmt.Errorf("database.driver must be memory, redis or valkey, got %q", c.Database.Driver)
	}
	switch c.Embedding.Provider {
	case ProviderLocal:
	case ProviderOpenAI:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for provider %q", c.Embedding.Provider)
		}
	default:
		return fmt.Errorf("embedding.provider must be local or openai, got %q", c.Embedding.Provider)
	}
	if c.Embedding.TimeoutSec < 0 {
		return fmt.Errorf("embedding.timeout_sec must not be negative, got %d", c.Embedding.TimeoutSec)
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"embedding.budget.action must be \"warn\" or \"reject\", got %q",
			c.Embedding.Budget.Action,
		)
	}
	if c.Triage.MaxDistance <= 0 {
		return fmt.Errorf("triage.max_distance must be positive, got %g", c.Triage.MaxDistance)
	}
	for id, a := range c.Accounts {
		if strings.TrimSpace(a.Plan) == "" {
			return fmt.Errorf("accounts.%s.plan is required", id)
		}
	}
	return nil
}
