package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string

	OracleBaseURL        string
	OracleTestnetBaseURL string
	OracleTimeout        time.Duration

	EmailBaseURL string
	EmailAPIKey  string
	EmailFrom    string
	AdminEmail   string
	EmailTimeout time.Duration

	CommissionRate  float64
	AssignThreshold int
	PatternCacheTTL time.Duration

	AdminJWTSecret string

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
	} `yaml:"dependencies"`
	Payment struct {
		OracleBaseURL        string `yaml:"oracle_base_url"`
		OracleTestnetBaseURL string `yaml:"oracle_testnet_base_url"`
		TimeoutSeconds       int    `yaml:"timeout_seconds"`
	} `yaml:"payment"`
	Notifications struct {
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		From           string `yaml:"from"`
		AdminEmail     string `yaml:"admin_email"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"notifications"`
	Affiliate struct {
		CommissionRate float64 `yaml:"commission_rate"`
	} `yaml:"affiliate"`
	Categorizer struct {
		AssignThreshold        int `yaml:"assign_threshold"`
		PatternCacheTTLMinutes int `yaml:"pattern_cache_ttl_minutes"`
	} `yaml:"categorizer"`
	Security struct {
		AdminJWTSecret string `yaml:"admin_jwt_secret"`
	} `yaml:"security"`
	Runtime struct {
		MaxDBConns         int `yaml:"max_db_conns"`
		OutboxPollSeconds  int `yaml:"outbox_poll_seconds"`
		OutboxBatchSize    int `yaml:"outbox_batch_size"`
		OutboxClaimSeconds int `yaml:"outbox_claim_seconds"`
		OutboxMaxRetries   int `yaml:"outbox_max_retries"`
	} `yaml:"runtime"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "checkout-core",
		HTTPPort:             8080,
		GRPCPort:             9090,
		KafkaTopic:           "checkout-core.events",
		OracleBaseURL:        "https://api.base.org/v1",
		OracleTestnetBaseURL: "https://api.base-sepolia.org/v1",
		OracleTimeout:        10 * time.Second,
		EmailBaseURL:         "https://api.resend.com",
		EmailFrom:            "orders@farstore.dev",
		EmailTimeout:         10 * time.Second,
		CommissionRate:       0.02,
		AssignThreshold:      5,
		PatternCacheTTL:      time.Hour,
		MaxDBConns:           20,
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
		OutboxClaimTTL:       30 * time.Second,
		OutboxMaxRetries:     5,
	}
	if raw, err := os.ReadFile(path); err == nil {
		var f configFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Dependencies.KafkaTopic != "" {
			cfg.KafkaTopic = f.Dependencies.KafkaTopic
		}
		if f.Payment.OracleBaseURL != "" {
			cfg.OracleBaseURL = f.Payment.OracleBaseURL
		}
		if f.Payment.OracleTestnetBaseURL != "" {
			cfg.OracleTestnetBaseURL = f.Payment.OracleTestnetBaseURL
		}
		if f.Payment.TimeoutSeconds > 0 {
			cfg.OracleTimeout = time.Duration(f.Payment.TimeoutSeconds) * time.Second
		}
		if f.Notifications.BaseURL != "" {
			cfg.EmailBaseURL = f.Notifications.BaseURL
		}
		if f.Notifications.APIKey != "" {
			cfg.EmailAPIKey = f.Notifications.APIKey
		}
		if f.Notifications.From != "" {
			cfg.EmailFrom = f.Notifications.From
		}
		if f.Notifications.AdminEmail != "" {
			cfg.AdminEmail = f.Notifications.AdminEmail
		}
		if f.Notifications.TimeoutSeconds > 0 {
			cfg.EmailTimeout = time.Duration(f.Notifications.TimeoutSeconds) * time.Second
		}
		if f.Affiliate.CommissionRate > 0 {
			cfg.CommissionRate = f.Affiliate.CommissionRate
		}
		if f.Categorizer.AssignThreshold > 0 {
			cfg.AssignThreshold = f.Categorizer.AssignThreshold
		}
		if f.Categorizer.PatternCacheTTLMinutes > 0 {
			cfg.PatternCacheTTL = time.Duration(f.Categorizer.PatternCacheTTLMinutes) * time.Minute
		}
		if f.Security.AdminJWTSecret != "" {
			cfg.AdminJWTSecret = f.Security.AdminJWTSecret
		}
		if f.Runtime.MaxDBConns > 0 {
			cfg.MaxDBConns = int32(f.Runtime.MaxDBConns)
		}
		if f.Runtime.OutboxPollSeconds > 0 {
			cfg.OutboxPollInterval = time.Duration(f.Runtime.OutboxPollSeconds) * time.Second
		}
		if f.Runtime.OutboxBatchSize > 0 {
			cfg.OutboxBatchSize = f.Runtime.OutboxBatchSize
		}
		if f.Runtime.OutboxClaimSeconds > 0 {
			cfg.OutboxClaimTTL = time.Duration(f.Runtime.OutboxClaimSeconds) * time.Second
		}
		if f.Runtime.OutboxMaxRetries > 0 {
			cfg.OutboxMaxRetries = f.Runtime.OutboxMaxRetries
		}
	}
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.DatabaseURL = envString("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = envString("REDIS_URL", cfg.RedisURL)
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		parts := strings.Split(raw, ",")
		brokers := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				brokers = append(brokers, p)
			}
		}
		cfg.KafkaBrokers = brokers
	}
	cfg.KafkaTopic = envString("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.OracleBaseURL = envString("PAYMENT_ORACLE_URL", cfg.OracleBaseURL)
	cfg.OracleTestnetBaseURL = envString("PAYMENT_ORACLE_TESTNET_URL", cfg.OracleTestnetBaseURL)
	cfg.EmailBaseURL = envString("EMAIL_BASE_URL", cfg.EmailBaseURL)
	cfg.EmailAPIKey = envString("EMAIL_API_KEY", cfg.EmailAPIKey)
	cfg.EmailFrom = envString("EMAIL_FROM", cfg.EmailFrom)
	cfg.AdminEmail = envString("ADMIN_EMAIL", cfg.AdminEmail)
	cfg.CommissionRate = envFloat("COMMISSION_RATE", cfg.CommissionRate)
	cfg.AssignThreshold = envInt("ASSIGN_THRESHOLD", cfg.AssignThreshold)
	cfg.AdminJWTSecret = envString("ADMIN_JWT_SECRET", cfg.AdminJWTSecret)
	return cfg, nil
}

func envInt(name string, fallback int) int {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envFloat(name string, fallback float64) float64 {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return fallback
}

func envString(name, fallback string) string {
	if raw := os.Getenv(name); raw != "" {
		return raw
	}
	return fallback
}
