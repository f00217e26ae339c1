package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Meta        MetaConfig      `yaml:"meta"`
	GoogleAds   GoogleAdsConfig `yaml:"google_ads"`
	LLM         LLMConfig       `yaml:"llm"`
	Optimizer   OptimizerConfig `yaml:"optimizer"`
	Redis       RedisConfig     `yaml:"redis"`
	Database    DatabaseConfig  `yaml:"database"`
	Environment string          `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// MetaConfig holds social platform (Meta Marketing API) configuration
type MetaConfig struct {
	AccessToken    string `yaml:"access_token"`
	BaseURL        string `yaml:"base_url"`
	APIVersion     string `yaml:"api_version"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c MetaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GoogleAdsConfig holds search platform (Google Ads API) configuration
type GoogleAdsConfig struct {
	DeveloperToken    string `yaml:"developer_token"`
	OAuthClientID     string `yaml:"oauth_client_id"`
	OAuthClientSecret string `yaml:"oauth_client_secret"`
	RefreshToken      string `yaml:"refresh_token"`
	LoginCustomerID   string `yaml:"login_customer_id"`
	BaseURL           string `yaml:"base_url"`
	APIVersion        string `yaml:"api_version"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	Enabled           bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c GoogleAdsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LLMConfig holds intelligent-allocation backend configuration
type LLMConfig struct {
	Provider       string `yaml:"provider"` // "openai" or "bedrock"
	OpenAIAPIKey   string `yaml:"openai_api_key"`
	OpenAIModel    string `yaml:"openai_model"`
	BedrockModelID string `yaml:"bedrock_model_id"`
	BedrockRegion  string `yaml:"bedrock_region"`
	Enabled        bool   `yaml:"enabled"`
}

// OptimizerConfig holds optimization loop defaults
type OptimizerConfig struct {
	MinConversions  int     `yaml:"min_conversions"`
	MaxChangeRatio  float64 `yaml:"max_change_ratio"`
	DefaultStrategy string  `yaml:"default_strategy"`
	LockTTLSeconds  int     `yaml:"lock_ttl_seconds"`
}

// LockTTL returns the per-account lock TTL as a duration
func (c OptimizerConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// RedisConfig holds Redis configuration for per-account cycle locks
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// DatabaseConfig holds Postgres configuration for cycle report history
type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// IsDevelopment reports whether the process runs in a development
// environment, which gates permissive CORS and verbose logging.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Meta.BaseURL == "" {
		cfg.Meta.BaseURL = "https://graph.facebook.com"
	}
	if cfg.Meta.APIVersion == "" {
		cfg.Meta.APIVersion = "v19.0"
	}
	if cfg.Meta.TimeoutSeconds == 0 {
		cfg.Meta.TimeoutSeconds = 30
	}
	if cfg.GoogleAds.BaseURL == "" {
		cfg.GoogleAds.BaseURL = "https://googleads.googleapis.com"
	}
	if cfg.GoogleAds.APIVersion == "" {
		cfg.GoogleAds.APIVersion = "v20"
	}
	if cfg.GoogleAds.TimeoutSeconds == 0 {
		cfg.GoogleAds.TimeoutSeconds = 30
	}
	if cfg.LLM.OpenAIModel == "" {
		cfg.LLM.OpenAIModel = "gpt-4o"
	}
	if cfg.LLM.BedrockModelID == "" {
		cfg.LLM.BedrockModelID = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	}
	if cfg.LLM.BedrockRegion == "" {
		cfg.LLM.BedrockRegion = "us-east-1"
	}
	if cfg.Optimizer.MinConversions == 0 {
		cfg.Optimizer.MinConversions = 10
	}
	if cfg.Optimizer.MaxChangeRatio == 0 {
		cfg.Optimizer.MaxChangeRatio = 0.3
	}
	if cfg.Optimizer.DefaultStrategy == "" {
		cfg.Optimizer.DefaultStrategy = "proportional"
	}
	if cfg.Optimizer.LockTTLSeconds == 0 {
		cfg.Optimizer.LockTTLSeconds = 300
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SOCIAL_ACCESS_TOKEN"); v != "" {
		cfg.Meta.AccessToken = v
		cfg.Meta.Enabled = true
	}
	if v := os.Getenv("SOCIAL_BASE_URL"); v != "" {
		cfg.Meta.BaseURL = v
	}
	if v := os.Getenv("SEARCH_DEVELOPER_TOKEN"); v != "" {
		cfg.GoogleAds.DeveloperToken = v
		cfg.GoogleAds.Enabled = true
	}
	if v := os.Getenv("SEARCH_OAUTH_CLIENT_ID"); v != "" {
		cfg.GoogleAds.OAuthClientID = v
	}
	if v := os.Getenv("SEARCH_OAUTH_CLIENT_SECRET"); v != "" {
		cfg.GoogleAds.OAuthClientSecret = v
	}
	if v := os.Getenv("SEARCH_REFRESH_TOKEN"); v != "" {
		cfg.GoogleAds.RefreshToken = v
	}
	if v := os.Getenv("SEARCH_BASE_URL"); v != "" {
		cfg.GoogleAds.BaseURL = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
		cfg.LLM.Enabled = true
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.OpenAIAPIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		cfg.Database.Enabled = true
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}

	return cfg, nil
}
