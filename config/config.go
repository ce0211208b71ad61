package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const VERSION = "1.4"

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Convex       ConvexConfig
	OpenRouter   OpenRouterConfig
	OpenAI       OpenAIConfig
	LanceDB      LanceDBConfig
	Tavily       TavilyConfig
	Auth         AuthConfig
	Conversation ConversationConfig
	Retry        RetryConfig
	RateLimit    RateLimitConfig
	Tracing      TracingConfig
	Environment  string
	LogLevel     string
	Version      string
}

type ServerConfig struct {
	Port int
	Host string
	SSL  SSLConfig

	// CORSAllowOrigin is "*" or a comma-separated list of origins.
	CORSAllowOrigin string
	ShutdownTimeout time.Duration
}

type SSLConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig points at the analytics Postgres instance. Analytics is
// optional: an empty Host disables it.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

type ConvexConfig struct {
	URL            string
	DeployKey      string
	RequestTimeout time.Duration
	RequestsPerSec float64
}

type OpenRouterConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	RoutingModel   string
	AppTitle       string
	Referer        string
	Temperature    float64
	MaxTokens      int
	RequestTimeout time.Duration
	StreamTimeout  time.Duration
	RequestsPerSec float64
}

type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	EmbeddingModel     string
	TranscriptionModel string
	RequestTimeout     time.Duration
}

type LanceDBConfig struct {
	URL            string
	APIKey         string
	Table          string
	ProductTable   string
	TopK           int
	RequestTimeout time.Duration
}

type TavilyConfig struct {
	APIKey         string
	BaseURL        string
	SearchDepth    string
	MaxResults     int
	RequestTimeout time.Duration
}

// AuthConfig verifies Clerk session tokens. PublicKeyPEM selects RS256,
// otherwise HMACSecret selects HS256.
type AuthConfig struct {
	Issuer       string
	PublicKeyPEM string
	HMACSecret   string
	Disabled     bool
}

type ConversationConfig struct {
	Store       string // "memory" or "redis"
	TTL         time.Duration
	MaxMessages int
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	RedisPrefix string
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxJitter   time.Duration

	CircuitBreakerThreshold int
	CircuitBreakerCooldown  time.Duration
}

type RateLimitConfig struct {
	AgentRequestsPerMinute int
	AgentBurst             int
}

type TracingConfig struct {
	Enabled             bool
	ServiceName         string
	SamplingProbability float64

	// "jaeger", "zipkin", "stackdriver", "datadog", "xray", "none"
	TraceExporter string

	JaegerEndpoint       string
	ZipkinEndpoint       string
	StackdriverProjectID string
	DatadogAgentAddress  string
	DatadogAPIKey        string
	XRayRegion           string
	AgentEndpoint        string

	// "prometheus", "stackdriver", "datadog", "none" or comma-separated list
	MetricsExporter string
	PrometheusPort  int
}

// LoadOptions contains options for loading configuration
type LoadOptions struct {
	EnvFile string // Optional environment file to load (e.g., ".env", ".env.test")
}

// Load loads the configuration with default options
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{EnvFile: ".env"})
}

// LoadWithOptions loads the configuration with the specified options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("CORS_ALLOW_ORIGIN", "*")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERSION", VERSION)

	// Analytics database
	v.SetDefault("DB_HOST", "")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "ironclad_analytics")
	v.SetDefault("DB_SSLMODE", "require")

	// Convex
	v.SetDefault("CONVEX_REQUEST_TIMEOUT", "30s")
	v.SetDefault("CONVEX_REQUESTS_PER_SEC", 20.0)

	// OpenRouter
	v.SetDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet")
	v.SetDefault("OPENROUTER_ROUTING_MODEL", "openai/gpt-4o-mini")
	v.SetDefault("OPENROUTER_APP_TITLE", "Ironclad Admin")
	v.SetDefault("OPENROUTER_TEMPERATURE", 0.7)
	v.SetDefault("OPENROUTER_MAX_TOKENS", 2000)
	v.SetDefault("OPENROUTER_REQUEST_TIMEOUT", "120s")
	v.SetDefault("OPENROUTER_STREAM_TIMEOUT", "300s")
	v.SetDefault("OPENROUTER_REQUESTS_PER_SEC", 5.0)

	// OpenAI
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small")
	v.SetDefault("OPENAI_TRANSCRIPTION_MODEL", "whisper-1")
	v.SetDefault("OPENAI_REQUEST_TIMEOUT", "60s")

	// LanceDB
	v.SetDefault("LANCEDB_TABLE", "knowledge")
	v.SetDefault("LANCEDB_PRODUCT_TABLE", "products")
	v.SetDefault("LANCEDB_TOP_K", 5)
	v.SetDefault("LANCEDB_REQUEST_TIMEOUT", "60s")

	// Tavily
	v.SetDefault("TAVILY_BASE_URL", "https://api.tavily.com")
	v.SetDefault("TAVILY_SEARCH_DEPTH", "basic")
	v.SetDefault("TAVILY_MAX_RESULTS", 5)
	v.SetDefault("TAVILY_REQUEST_TIMEOUT", "60s")

	// Auth
	v.SetDefault("AUTH_DISABLED", false)

	// Conversation storage
	v.SetDefault("CONVERSATION_STORE", "memory")
	v.SetDefault("CONVERSATION_TTL", "24h")
	v.SetDefault("CONVERSATION_MAX_MESSAGES", 100)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "ironclad:conversation:")

	// Backend retry policy
	v.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	v.SetDefault("RETRY_BASE_DELAY", "1s")
	v.SetDefault("RETRY_MAX_DELAY", "10s")
	v.SetDefault("RETRY_MAX_JITTER", "500ms")
	v.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5)
	v.SetDefault("CIRCUIT_BREAKER_COOLDOWN", "1m")

	// Inbound rate limit
	v.SetDefault("RATE_LIMIT_AGENT_PER_MINUTE", 30)
	v.SetDefault("RATE_LIMIT_AGENT_BURST", 5)

	// Tracing
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "ironclad-api")
	v.SetDefault("TRACING_SAMPLING_PROBABILITY", 0.1)
	v.SetDefault("TRACING_TRACE_EXPORTER", "none")
	v.SetDefault("TRACING_JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	v.SetDefault("TRACING_ZIPKIN_ENDPOINT", "http://localhost:9411/api/v2/spans")
	v.SetDefault("TRACING_STACKDRIVER_PROJECT_ID", "")
	v.SetDefault("TRACING_DATADOG_AGENT_ADDRESS", "localhost:8126")
	v.SetDefault("TRACING_DATADOG_API_KEY", "")
	v.SetDefault("TRACING_XRAY_REGION", "us-west-2")
	v.SetDefault("TRACING_AGENT_ENDPOINT", "localhost:8126")
	v.SetDefault("TRACING_METRICS_EXPORTER", "none")
	v.SetDefault("TRACING_PROMETHEUS_PORT", 9464)

	if opts.EnvFile != "" {
		v.SetConfigName(opts.EnvFile)
		v.SetConfigType("env")

		currentPath, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}

		v.AddConfigPath(currentPath)

		if err := v.ReadInConfig(); err != nil {
			// It's okay if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	config := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
			Host: v.GetString("SERVER_HOST"),
			SSL: SSLConfig{
				Enabled:  v.GetBool("SSL_ENABLED"),
				CertFile: v.GetString("SSL_CERT_FILE"),
				KeyFile:  v.GetString("SSL_KEY_FILE"),
			},
			CORSAllowOrigin: v.GetString("CORS_ALLOW_ORIGIN"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Convex: ConvexConfig{
			URL:            strings.TrimRight(v.GetString("CONVEX_URL"), "/"),
			DeployKey:      v.GetString("CONVEX_DEPLOY_KEY"),
			RequestTimeout: v.GetDuration("CONVEX_REQUEST_TIMEOUT"),
			RequestsPerSec: v.GetFloat64("CONVEX_REQUESTS_PER_SEC"),
		},
		OpenRouter: OpenRouterConfig{
			APIKey:         v.GetString("OPENROUTER_API_KEY"),
			BaseURL:        strings.TrimRight(v.GetString("OPENROUTER_BASE_URL"), "/"),
			Model:          v.GetString("OPENROUTER_MODEL"),
			RoutingModel:   v.GetString("OPENROUTER_ROUTING_MODEL"),
			AppTitle:       v.GetString("OPENROUTER_APP_TITLE"),
			Referer:        v.GetString("OPENROUTER_REFERER"),
			Temperature:    v.GetFloat64("OPENROUTER_TEMPERATURE"),
			MaxTokens:      v.GetInt("OPENROUTER_MAX_TOKENS"),
			RequestTimeout: v.GetDuration("OPENROUTER_REQUEST_TIMEOUT"),
			StreamTimeout:  v.GetDuration("OPENROUTER_STREAM_TIMEOUT"),
			RequestsPerSec: v.GetFloat64("OPENROUTER_REQUESTS_PER_SEC"),
		},
		OpenAI: OpenAIConfig{
			APIKey:             v.GetString("OPENAI_API_KEY"),
			BaseURL:            strings.TrimRight(v.GetString("OPENAI_BASE_URL"), "/"),
			EmbeddingModel:     v.GetString("OPENAI_EMBEDDING_MODEL"),
			TranscriptionModel: v.GetString("OPENAI_TRANSCRIPTION_MODEL"),
			RequestTimeout:     v.GetDuration("OPENAI_REQUEST_TIMEOUT"),
		},
		LanceDB: LanceDBConfig{
			URL:            strings.TrimRight(v.GetString("LANCEDB_URL"), "/"),
			APIKey:         v.GetString("LANCEDB_API_KEY"),
			Table:          v.GetString("LANCEDB_TABLE"),
			ProductTable:   v.GetString("LANCEDB_PRODUCT_TABLE"),
			TopK:           v.GetInt("LANCEDB_TOP_K"),
			RequestTimeout: v.GetDuration("LANCEDB_REQUEST_TIMEOUT"),
		},
		Tavily: TavilyConfig{
			APIKey:         v.GetString("TAVILY_API_KEY"),
			BaseURL:        strings.TrimRight(v.GetString("TAVILY_BASE_URL"), "/"),
			SearchDepth:    v.GetString("TAVILY_SEARCH_DEPTH"),
			MaxResults:     v.GetInt("TAVILY_MAX_RESULTS"),
			RequestTimeout: v.GetDuration("TAVILY_REQUEST_TIMEOUT"),
		},
		Auth: AuthConfig{
			Issuer:       v.GetString("CLERK_ISSUER"),
			PublicKeyPEM: v.GetString("CLERK_JWT_PUBLIC_KEY"),
			HMACSecret:   v.GetString("CLERK_JWT_SECRET"),
			Disabled:     v.GetBool("AUTH_DISABLED"),
		},
		Conversation: ConversationConfig{
			Store:       strings.ToLower(v.GetString("CONVERSATION_STORE")),
			TTL:         v.GetDuration("CONVERSATION_TTL"),
			MaxMessages: v.GetInt("CONVERSATION_MAX_MESSAGES"),
			RedisAddr:   v.GetString("REDIS_ADDR"),
			RedisDB:     v.GetInt("REDIS_DB"),
			RedisPass:   v.GetString("REDIS_PASSWORD"),
			RedisPrefix: v.GetString("REDIS_PREFIX"),
		},
		Retry: RetryConfig{
			MaxAttempts: v.GetInt("RETRY_MAX_ATTEMPTS"),
			BaseDelay:   v.GetDuration("RETRY_BASE_DELAY"),
			MaxDelay:    v.GetDuration("RETRY_MAX_DELAY"),
			MaxJitter:   v.GetDuration("RETRY_MAX_JITTER"),

			CircuitBreakerThreshold: v.GetInt("CIRCUIT_BREAKER_THRESHOLD"),
			CircuitBreakerCooldown:  v.GetDuration("CIRCUIT_BREAKER_COOLDOWN"),
		},
		RateLimit: RateLimitConfig{
			AgentRequestsPerMinute: v.GetInt("RATE_LIMIT_AGENT_PER_MINUTE"),
			AgentBurst:             v.GetInt("RATE_LIMIT_AGENT_BURST"),
		},
		Tracing: TracingConfig{
			Enabled:              v.GetBool("TRACING_ENABLED"),
			ServiceName:          v.GetString("TRACING_SERVICE_NAME"),
			SamplingProbability:  v.GetFloat64("TRACING_SAMPLING_PROBABILITY"),
			TraceExporter:        v.GetString("TRACING_TRACE_EXPORTER"),
			JaegerEndpoint:       v.GetString("TRACING_JAEGER_ENDPOINT"),
			ZipkinEndpoint:       v.GetString("TRACING_ZIPKIN_ENDPOINT"),
			StackdriverProjectID: v.GetString("TRACING_STACKDRIVER_PROJECT_ID"),
			DatadogAgentAddress:  v.GetString("TRACING_DATADOG_AGENT_ADDRESS"),
			DatadogAPIKey:        v.GetString("TRACING_DATADOG_API_KEY"),
			XRayRegion:           v.GetString("TRACING_XRAY_REGION"),
			AgentEndpoint:        v.GetString("TRACING_AGENT_ENDPOINT"),
			MetricsExporter:      v.GetString("TRACING_METRICS_EXPORTER"),
			PrometheusPort:       v.GetInt("TRACING_PROMETHEUS_PORT"),
		},
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Version:     v.GetString("VERSION"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Convex.URL == "" {
		return fmt.Errorf("CONVEX_URL is required")
	}
	if c.OpenRouter.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if c.Auth.Disabled && c.IsProduction() {
		return fmt.Errorf("AUTH_DISABLED cannot be used in production")
	}
	if !c.Auth.Disabled && c.Auth.PublicKeyPEM == "" && c.Auth.HMACSecret == "" {
		return fmt.Errorf("CLERK_JWT_PUBLIC_KEY or CLERK_JWT_SECRET is required unless AUTH_DISABLED=true")
	}
	switch c.Conversation.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported CONVERSATION_STORE: %s", c.Conversation.Store)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// IsDevelopment returns true if the environment is set to development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
