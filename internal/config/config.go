package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Adaptation AdaptationConfig `mapstructure:"adaptation"`
	LLM        LLMConfig        `mapstructure:"llm"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// AnalysisConfig bounds a single analyze call.
type AnalysisConfig struct {
	MaxTextLength  int           `mapstructure:"max_text_length"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ExplainTimeout time.Duration `mapstructure:"explain_timeout"`
	TopSignals     int           `mapstructure:"top_signals"`
	ResultCacheTTL time.Duration `mapstructure:"result_cache_ttl"`
}

// AdaptationConfig tunes the feedback-driven weight updates.
type AdaptationConfig struct {
	StepFraction float64 `mapstructure:"step_fraction"`
	MinWeight    float64 `mapstructure:"min_weight"`
	MaxWeight    float64 `mapstructure:"max_weight"`
}

type LLMConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Provider     string        `mapstructure:"provider"` // "claude" or "openai"
	ClaudeAPIKey string        `mapstructure:"claude_api_key"`
	OpenAIAPIKey string        `mapstructure:"openai_api_key"`
	Model        string        `mapstructure:"model"`
	Temperature  float64       `mapstructure:"temperature"`
	MaxTokens    int           `mapstructure:"max_tokens"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/scamp")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("SCAMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("database.host", "SCAMP_DATABASE_HOST")
	v.BindEnv("database.port", "SCAMP_DATABASE_PORT")
	v.BindEnv("database.user", "SCAMP_DATABASE_USER")
	v.BindEnv("database.password", "SCAMP_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "SCAMP_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "SCAMP_DATABASE_SSLMODE")
	v.BindEnv("redis.host", "SCAMP_REDIS_HOST")
	v.BindEnv("redis.port", "SCAMP_REDIS_PORT")
	v.BindEnv("redis.password", "SCAMP_REDIS_PASSWORD")
	v.BindEnv("llm.provider", "SCAMP_LLM_PROVIDER")
	v.BindEnv("llm.claude_api_key", "SCAMP_LLM_CLAUDE_API_KEY")
	v.BindEnv("llm.openai_api_key", "SCAMP_LLM_OPENAI_API_KEY")
	v.BindEnv("app.environment", "SCAMP_APP_ENVIRONMENT")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults + env carry a dev setup.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "scamp")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "0.3.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "scamp")
	v.SetDefault("database.dbname", "scamp")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "scamp:")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_minute", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("analysis.max_text_length", 20000)
	v.SetDefault("analysis.request_timeout", 10*time.Second)
	v.SetDefault("analysis.explain_timeout", 5*time.Second)
	v.SetDefault("analysis.top_signals", 5)
	v.SetDefault("analysis.result_cache_ttl", 10*time.Minute)

	v.SetDefault("adaptation.step_fraction", 0.02)
	v.SetDefault("adaptation.min_weight", 0.05)
	v.SetDefault("adaptation.max_weight", 0.95)

	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.provider", "claude")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 512)
	v.SetDefault("llm.timeout", 5*time.Second)
}
