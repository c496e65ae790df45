package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"

	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds the configuration for the application.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	Clipper   ClipperConfig   `mapstructure:"clipper"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type AppConfig struct {
	Env       string `mapstructure:"env"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	GeminiAPIKey      string        `mapstructure:"gemini_api_key"`
	GroqAPIKey        string        `mapstructure:"groq_api_key"`
	GroqBaseURL       string        `mapstructure:"groq_base_url"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// CacheConfig controls response caching of model calls in Redis.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
	// Tasks is a comma separated list of cacheable task names.
	Tasks string `mapstructure:"tasks"`
}

// CachedTasks returns the configured task names.
func (c CacheConfig) CachedTasks() []string {
	return splitList(c.Tasks)
}

type StorageConfig struct {
	Backend      string `mapstructure:"backend"`
	Dir          string `mapstructure:"dir"`
	DatabasePath string `mapstructure:"database_path"`
	RedisURL     string `mapstructure:"redis_url"`
	KeyPrefix    string `mapstructure:"key_prefix"`
}

// TelegramConfig is optional for the CLI and required for the bot.
type TelegramConfig struct {
	BotToken     string `mapstructure:"bot_token"`
	WebhookURL   string `mapstructure:"webhook_url"`
	AllowUserIDs string `mapstructure:"allow_user_ids"`
	AdminUserID  int64  `mapstructure:"admin_user_id"`
}

// AllowedIDs parses the comma separated allow-list, skipping invalid entries.
func (t TelegramConfig) AllowedIDs() []int64 {
	var ids []int64
	for _, s := range splitList(t.AllowUserIDs) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// PlannerConfig holds defaults used by the bot and the CLI.
type PlannerConfig struct {
	Servings   int `mapstructure:"servings"`
	Favorites  int `mapstructure:"favorites"`
	MaxMinutes int `mapstructure:"max_minutes"`
}

// ClipperConfig bounds recipe imports from the web.
type ClipperConfig struct {
	AllowPrivateNetworks bool  `mapstructure:"allow_private_networks"`
	MaxPageBytes         int64 `mapstructure:"max_page_bytes"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// NewFromEnv creates a new Config from environment variables and an optional .env file.
func NewFromEnv() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"app.env":                        "APP_ENV",
		"app.log_level":                  "LOG_LEVEL",
		"app.log_format":                 "LOG_FORMAT",
		"server.port":                    "PORT",
		"llm.provider":                   "LLM_PROVIDER",
		"llm.model":                      "LLM_MODEL",
		"llm.gemini_api_key":             "GEMINI_API_KEY",
		"llm.groq_api_key":               "GROQ_API_KEY",
		"llm.groq_base_url":              "GROQ_BASE_URL",
		"llm.requests_per_minute":        "LLM_REQUESTS_PER_MINUTE",
		"llm.timeout":                    "LLM_TIMEOUT",
		"cache.enabled":                  "CACHE_ENABLED",
		"cache.redis_url":                "REDIS_URL",
		"cache.ttl":                      "CACHE_TTL",
		"cache.tasks":                    "CACHE_TASKS",
		"storage.backend":                "STORAGE_BACKEND",
		"storage.dir":                    "STORAGE_DIR",
		"storage.database_path":          "DATABASE_PATH",
		"storage.redis_url":              "REDIS_URL",
		"storage.key_prefix":             "STORAGE_KEY_PREFIX",
		"telegram.bot_token":             "TELEGRAM_BOT_TOKEN",
		"telegram.webhook_url":           "TELEGRAM_WEBHOOK_URL",
		"telegram.allow_user_ids":        "TELEGRAM_ALLOW_USER_ID",
		"telegram.admin_user_id":         "TELEGRAM_ADMIN_USER_ID",
		"planner.servings":               "PLANNER_SERVINGS",
		"planner.favorites":              "PLANNER_FAVORITES",
		"planner.max_minutes":            "PLANNER_MAX_MINUTES",
		"clipper.allow_private_networks": "CLIPPER_ALLOW_PRIVATE_NETWORKS",
		"clipper.max_page_bytes":         "CLIPPER_MAX_PAGE_BYTES",
		"rate_limit.enabled":             "RATE_LIMIT_ENABLED",
		"rate_limit.requests_per_second": "RATE_LIMIT_RPS",
		"rate_limit.burst":               "RATE_LIMIT_BURST",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.groq_base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.requests_per_minute", 0)
	v.SetDefault("llm.timeout", "90s")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.tasks", "categorization,shopping_list")

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.dir", "data/store")
	v.SetDefault("storage.database_path", "data/whisk.db")
	v.SetDefault("storage.key_prefix", "whisk:")

	v.SetDefault("planner.servings", 2)
	v.SetDefault("planner.favorites", 0)
	v.SetDefault("planner.max_minutes", 0)

	v.SetDefault("clipper.allow_private_networks", false)
	v.SetDefault("clipper.max_page_bytes", 4<<20)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 5.0)
	v.SetDefault("rate_limit.burst", 10)
}

func validate(cfg *Config) error {
	switch cfg.LLM.Provider {
	case ProviderGemini:
		if cfg.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		if cfg.LLM.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLM.Provider)
	}

	switch cfg.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	case BackendRedis:
		if cfg.Storage.RedisURL == "" {
			return fmt.Errorf("REDIS_URL environment variable not set")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
	}

	if cfg.Cache.Enabled && cfg.Cache.RedisURL == "" {
		return fmt.Errorf("REDIS_URL environment variable not set")
	}
	if cfg.Server.Port <= 0 {
		return fmt.Errorf("invalid PORT %d", cfg.Server.Port)
	}
	if cfg.Planner.Servings < 1 {
		cfg.Planner.Servings = 2
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
