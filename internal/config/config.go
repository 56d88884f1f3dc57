package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/admissions-triage/core/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// NewLogger builds the shared structured logger every package receives,
// following the teacher's lite server's format/level bootstrap
// (internal/mcp/server_lite.go: text or JSON formatter, parsed level).
func NewLogger(cfg domain.LoggingConfig) *logrus.Logger {
	log := logrus.New()
	if strings.ToLower(cfg.Format) == "text" {
		log.SetFormatter(&logrus.TextFormatter{})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// Manager implements domain.ConfigManager using Viper.
type Manager struct {
	config *domain.Config
}

// NewManager loads configuration from defaults, an optional config file,
// and environment variables, in that precedence order.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/admissions-triage/")

	viper.SetEnvPrefix("TRIAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	// MODEL_ENDPOINT / MODEL_KEY are read directly rather than defaulted,
	// since no sane default exists for a credential or a per-deployment
	// endpoint (§6).
	if v := os.Getenv("MODEL_ENDPOINT"); v != "" {
		config.LLM.Endpoint = v
	}
	if v := os.Getenv("MODEL_KEY"); v != "" {
		config.LLM.APIKey = v
	}

	m.config = config
	return nil
}

func (m *Manager) setDefaults() {
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.database", "admissions_triage")
	viper.SetDefault("database.username", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")

	viper.SetDefault("cache.redis_url", "redis://localhost:6379")
	viper.SetDefault("cache.default_ttl", "24h")
	viper.SetDefault("cache.max_retries", 3)
	viper.SetDefault("cache.pool_size", 10)
	viper.SetDefault("cache.pool_timeout", "4s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("llm.model_version", "claude-sonnet")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.seed", 1)
	viper.SetDefault("llm.max_tokens", 200)
	viper.SetDefault("llm.requests_per_minute", 50)
	viper.SetDefault("llm.concurrency_ceiling", 8)
	viper.SetDefault("llm.max_retries", 5)
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("llm.development", false)

	viper.SetDefault("ingest.raw_data_dir", "./data/raw")
	viper.SetDefault("ingest.output_dir", "./data/prepared")
	viper.SetDefault("ingest.min_coverage_ratio", 0.95)

	viper.SetDefault("model.low_score_threshold", 15)
	viper.SetDefault("model.recall_target", 0.95)
	viper.SetDefault("model.gate_estimators", 200)
	viper.SetDefault("model.gate_depth", 2)
	viper.SetDefault("model.gate_learning_rate", 0.05)
	viper.SetDefault("model.ranker_estimators", 200)
	viper.SetDefault("model.ranker_depth", 3)
	viper.SetDefault("model.ranker_learning_rate", 0.05)
	viper.SetDefault("model.quantile_alpha", 0.1)
	viper.SetDefault("model.artifact_dir", "./artifacts")

	viper.SetDefault("mcp.server_name", "admissions-triage-admin")
	viper.SetDefault("mcp.server_version", "0.1.0")
	viper.SetDefault("mcp.transport_type", "stdio")
	viper.SetDefault("mcp.http_port", 8090)
	viper.SetDefault("mcp.request_timeout", "30s")

	viper.SetDefault("audit.output_dir", "./outputs")
	viper.SetDefault("audit.recall_confidence", 0.95)
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// Reload re-reads configuration from all sources.
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate fails fast on a configuration that cannot run. Outside
// development mode, a missing LLM endpoint or key is fatal since every
// rubric-scoring run depends on them (§6).
func (m *Manager) Validate() error {
	config := m.config

	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if config.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if config.Database.Username == "" {
		return fmt.Errorf("database username is required")
	}

	if config.Cache.RedisURL == "" {
		return fmt.Errorf("redis url is required")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	if !config.LLM.Development {
		if config.LLM.Endpoint == "" {
			return fmt.Errorf("MODEL_ENDPOINT is required outside development mode")
		}
		if config.LLM.APIKey == "" {
			return fmt.Errorf("MODEL_KEY is required outside development mode")
		}
	}

	return nil
}
