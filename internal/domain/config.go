package domain

import "time"

// Config is the root application configuration, unmarshaled by Viper in
// internal/config from defaults, an optional config file, and environment
// variables, in that precedence order — following the teacher's
// mapstructure-tagged tree exactly.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Model    ModelConfig    `mapstructure:"model"`
	MCP      MCPConfig      `mapstructure:"mcp"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

// DatabaseConfig configures the Postgres connection pool backing
// internal/repository (run manifests, triage results).
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// CacheConfig configures the Redis client used for the LLM scorer's
// distributed dedupe lock (§5). Rubric results are not cached in Redis;
// they live in the on-disk rubric cache.
type CacheConfig struct {
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// LoggingConfig configures the structured logrus logger shared by every
// package.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

// LLMConfig configures the rubric scorer's external chat-model adapter
// (§6). Endpoint and key have no defaults — they are read from
// MODEL_ENDPOINT / MODEL_KEY and startup fails fast outside development
// mode when either is absent.
type LLMConfig struct {
	Endpoint           string        `mapstructure:"endpoint"`
	APIKey             string        `mapstructure:"api_key"`
	ModelVersion       string        `mapstructure:"model_version"`
	Temperature        float64       `mapstructure:"temperature"`
	Seed               int64         `mapstructure:"seed"`
	MaxTokens          int           `mapstructure:"max_tokens"`
	RequestsPerMinute  int           `mapstructure:"requests_per_minute"`
	ConcurrencyCeiling int           `mapstructure:"concurrency_ceiling"`
	MaxRetries         int           `mapstructure:"max_retries"`
	Timeout            time.Duration `mapstructure:"timeout"`
	Development        bool          `mapstructure:"development"`
}

// IngestConfig configures data preparation (C2): where raw cycle files
// live and which years are in scope for the current run.
type IngestConfig struct {
	RawDataDir      string  `mapstructure:"raw_data_dir"`
	OutputDir       string  `mapstructure:"output_dir"`
	Years           []int   `mapstructure:"years"`
	MinCoverageRatio float64 `mapstructure:"min_coverage_ratio"`
}

// ModelConfig configures the two-stage model's hyperparameters (§4.5),
// overridable for experimentation without recompiling.
type ModelConfig struct {
	LowScoreThreshold int     `mapstructure:"low_score_threshold"`
	RecallTarget      float64 `mapstructure:"recall_target"`
	GateEstimators    int     `mapstructure:"gate_estimators"`
	GateDepth         int     `mapstructure:"gate_depth"`
	GateLearningRate  float64 `mapstructure:"gate_learning_rate"`
	RankerEstimators  int     `mapstructure:"ranker_estimators"`
	RankerDepth       int     `mapstructure:"ranker_depth"`
	RankerLearningRate float64 `mapstructure:"ranker_learning_rate"`
	QuantileAlpha     float64 `mapstructure:"quantile_alpha"`
	ArtifactDir       string  `mapstructure:"artifact_dir"`
}

// AuditConfig configures where C6's evaluation and audit reports land
// (§4.6: "persisted as structured text files in an outputs directory").
type AuditConfig struct {
	OutputDir        string  `mapstructure:"output_dir"`
	RecallConfidence float64 `mapstructure:"recall_confidence"`
}

// MCPConfig configures the admin-only on-demand tool surface (§6
// supplement): explanation, drift-report, and triage-result lookup tools
// exposed over the Model Context Protocol.
type MCPConfig struct {
	ServerName     string        `mapstructure:"server_name"`
	ServerVersion  string        `mapstructure:"server_version"`
	TransportType  string        `mapstructure:"transport_type"` // not read: the server runs over stdio only
	HTTPPort       int           `mapstructure:"http_port"`      // not read: no HTTP transport is served
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}
