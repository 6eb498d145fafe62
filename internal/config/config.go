package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port        string `toml:"port"`
	CORSOrigins string `toml:"cors_origins"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"` // json | text
}

type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	TTLHours int    `toml:"ttl_hours"` // 0 keeps records forever
}

// StoreConfig picks the persistence behind the exact-match store and the
// content source.
type StoreConfig struct {
	Backend string `toml:"backend"` // memory | redis | mongo
	Content string `toml:"content"` // memory | mongo

	CacheContent bool `toml:"cache_content"` // read-through Redis cache in front of Mongo content
}

type SimilarityConfig struct {
	Threshold      float64 `toml:"threshold"`
	CandidateLimit int     `toml:"candidate_limit"`
	CacheSize      int     `toml:"cache_size"`
}

type ScoringConfig struct {
	PenaltyScale    float64 `toml:"penalty_scale"`
	Floor           int     `toml:"floor"`
	AcceptThreshold int     `toml:"accept_threshold"`
	MaxInputRunes   int     `toml:"max_input_runes"`
}

type TelemetryConfig struct {
	BufferSize int  `toml:"buffer_size"`
	Persist    bool `toml:"persist"` // write events to Mongo
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenTTLMin  int    `toml:"token_ttl_min"`
}

// Config is the full service configuration
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Mongo      MongoConfig      `toml:"mongo"`
	Redis      RedisConfig      `toml:"redis"`
	Store      StoreConfig      `toml:"store"`
	Similarity SimilarityConfig `toml:"similarity"`
	Scoring    ScoringConfig    `toml:"scoring"`
	Gateway    GatewayConfig    `toml:"gateway"`
	Budget     BudgetConfig     `toml:"budget"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
	Auth       AuthConfig       `toml:"auth"`
}

// Default returns a config that runs fully in memory with the mock evaluator
func Default() *Config {
	return &Config{
		Server:     ServerConfig{Port: "8080", CORSOrigins: "*", LogLevel: "info", LogFormat: "json"},
		Mongo:      MongoConfig{URI: "mongodb://localhost:27017", Database: "lingocache"},
		Redis:      RedisConfig{Addr: "localhost:6379"},
		Store:      StoreConfig{Backend: "memory", Content: "memory"},
		Similarity: SimilarityConfig{Threshold: 0.8, CandidateLimit: 200, CacheSize: 10000},
		Scoring:    ScoringConfig{PenaltyScale: 25, Floor: 10, AcceptThreshold: 70, MaxInputRunes: 500},
		Gateway:    defaultGateway(),
		Telemetry:  TelemetryConfig{BufferSize: 1024},
		Auth:       AuthConfig{TokenTTLMin: 60},
	}
}

// Load builds the config from defaults, an optional TOML file named by
// CONFIG_PATH, then environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.CORSOrigins = getEnv("CORS_ORIGINS", c.Server.CORSOrigins)
	c.Server.LogLevel = getEnv("LOG_LEVEL", c.Server.LogLevel)
	c.Server.LogFormat = getEnv("LOG_FORMAT", c.Server.LogFormat)

	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DB", c.Mongo.Database)

	// Remove redis:// prefix if present
	c.Redis.Addr = strings.TrimPrefix(getEnv("REDIS_URI", c.Redis.Addr), "redis://")
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)
	c.Redis.TTLHours = getEnvInt("REDIS_TTL_HOURS", c.Redis.TTLHours)

	c.Store.Backend = getEnv("STORE_BACKEND", c.Store.Backend)
	c.Store.Content = getEnv("CONTENT_SOURCE", c.Store.Content)
	c.Store.CacheContent = getEnvBool("CONTENT_CACHE", c.Store.CacheContent)

	c.Similarity.Threshold = getEnvFloat("SIMILARITY_THRESHOLD", c.Similarity.Threshold)
	c.Similarity.CandidateLimit = getEnvInt("CANDIDATE_LIMIT", c.Similarity.CandidateLimit)
	c.Similarity.CacheSize = getEnvInt("SIMILARITY_CACHE_SIZE", c.Similarity.CacheSize)

	c.Gateway.Provider = getEnv("EVALUATOR_PROVIDER", c.Gateway.Provider)
	c.Gateway.Model = getEnv("EVALUATOR_MODEL", c.Gateway.Model)
	c.Gateway.BaseURL = getEnv("EVALUATOR_BASE_URL", c.Gateway.BaseURL)
	c.Gateway.SoftTimeoutMS = getEnvInt("EVALUATOR_SOFT_TIMEOUT_MS", c.Gateway.SoftTimeoutMS)
	c.Gateway.HardTimeoutMS = getEnvInt("EVALUATOR_HARD_TIMEOUT_MS", c.Gateway.HardTimeoutMS)
	c.Gateway.APIKey = getEnv("EVALUATOR_API_KEY", c.Gateway.APIKey)
	if c.Gateway.APIKey == "" {
		switch c.Gateway.Provider {
		case "gemini":
			c.Gateway.APIKey = os.Getenv("GEMINI_API_KEY")
		case "openai":
			c.Gateway.APIKey = os.Getenv("OPENAI_API_KEY")
		case "claude":
			c.Gateway.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	c.Budget.UnitsPerSecond = getEnvFloat("BUDGET_UNITS_PER_SECOND", c.Budget.UnitsPerSecond)
	c.Budget.Burst = getEnvInt("BUDGET_BURST", c.Budget.Burst)

	c.Telemetry.BufferSize = getEnvInt("TELEMETRY_BUFFER", c.Telemetry.BufferSize)
	c.Telemetry.Persist = getEnvBool("TELEMETRY_PERSIST", c.Telemetry.Persist)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.ClientID = getEnv("CLIENT_ID", c.Auth.ClientID)
	c.Auth.ClientSecret = getEnv("CLIENT_SECRET", c.Auth.ClientSecret)
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "redis", "mongo":
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store.Backend)
	}
	switch c.Store.Content {
	case "memory", "mongo":
	default:
		return fmt.Errorf("unsupported content source: %s", c.Store.Content)
	}
	if c.Similarity.Threshold <= 0 || c.Similarity.Threshold > 1 {
		return fmt.Errorf("similarity threshold must be in (0,1], got %v", c.Similarity.Threshold)
	}
	if c.Gateway.SoftTimeoutMS <= 0 || c.Gateway.HardTimeoutMS < c.Gateway.SoftTimeoutMS {
		return fmt.Errorf("gateway timeouts must satisfy 0 < soft <= hard")
	}
	return nil
}

// NeedsMongo reports whether any component is backed by MongoDB
func (c *Config) NeedsMongo() bool {
	return c.Store.Backend == "mongo" || c.Store.Content == "mongo" || c.Telemetry.Persist
}

// NeedsRedis reports whether any component is backed by Redis
func (c *Config) NeedsRedis() bool {
	return c.Store.Backend == "redis" || (c.Store.Content == "mongo" && c.Store.CacheContent)
}

// AuthEnabled reports whether /v1 routes require a token
func (c *Config) AuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}
