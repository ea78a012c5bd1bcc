package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Firebase  FirebaseConfig
	App       AppConfig
	LLM       LLMConfig
	Assistant AssistantConfig
	Email     EmailConfig
	Firecrawl FirecrawlConfig
	HMRC      HMRCConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	AuthModeFirebase = "firebase"
	AuthModeJWT      = "jwt"
	AuthModeDev      = "dev"
)

type AuthConfig struct {
	Mode      string
	JWTSecret string
}

type FirebaseConfig struct {
	CredentialsPath string
}

type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string
	Version     string
}

const (
	LLMProviderOpenAI = "openai"
	LLMProviderGemini = "gemini"
)

type LLMConfig struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type AssistantConfig struct {
	PromptsFile string
}

type EmailConfig struct {
	BaseURL string
	APIKey  string
	From    string
	AppURL  string
}

type FirecrawlConfig struct {
	BaseURL      string
	APIKey       string
	RateLimit    float64
	Burst        int
	CacheTTL     time.Duration
	RequestLimit int
}

type HMRCConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// Enabled reports whether live HMRC calls are configured.
func (c HMRCConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type SchedulerConfig struct {
	Enabled          bool
	PublishPostsSpec string
	OverdueSpec      string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "b2bnest"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Mode:      strings.ToLower(getEnv("AUTH_MODE", AuthModeDev)),
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		App: AppConfig{
			Name:        getEnv("APP_NAME", "b2bnest-api"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderOpenAI)),
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1000),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Assistant: AssistantConfig{
			PromptsFile: getEnv("ASSISTANT_PROMPTS_FILE", ""),
		},
		Email: EmailConfig{
			BaseURL: getEnv("EMAIL_API_URL", "https://api.resend.com"),
			APIKey:  getEnv("RESEND_API_KEY", ""),
			From:    getEnv("EMAIL_FROM", "B2BNest <notifications@b2bnest.com>"),
			AppURL:  getEnv("APP_URL", "https://app.b2bnest.com"),
		},
		Firecrawl: FirecrawlConfig{
			BaseURL:      getEnv("FIRECRAWL_API_URL", "https://api.firecrawl.dev"),
			APIKey:       getEnv("FIRECRAWL_API_KEY", ""),
			RateLimit:    getEnvAsFloat("FIRECRAWL_RATE_LIMIT", 2),
			Burst:        getEnvAsInt("FIRECRAWL_BURST", 4),
			CacheTTL:     getEnvAsDuration("FIRECRAWL_CACHE_TTL", time.Hour),
			RequestLimit: getEnvAsInt("FIRECRAWL_CRAWL_LIMIT", 25),
		},
		HMRC: HMRCConfig{
			BaseURL:      getEnv("HMRC_API_URL", "https://test-api.service.hmrc.gov.uk"),
			TokenURL:     getEnv("HMRC_TOKEN_URL", "https://test-api.service.hmrc.gov.uk/oauth/token"),
			ClientID:     getEnv("HMRC_CLIENT_ID", ""),
			ClientSecret: getEnv("HMRC_CLIENT_SECRET", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled:          getEnvAsBool("SCHEDULER_ENABLED", true),
			PublishPostsSpec: getEnv("SCHEDULER_PUBLISH_SPEC", "0 * * * * *"),
			OverdueSpec:      getEnv("SCHEDULER_OVERDUE_SPEC", "0 0 1 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("DB_DSN or DB_HOST is required")
	}

	switch c.Auth.Mode {
	case AuthModeFirebase:
		if c.Firebase.CredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required when AUTH_MODE=firebase")
		}
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_MODE=jwt")
		}
	case AuthModeDev:
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=dev is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode)
	}

	switch c.LLM.Provider {
	case LLMProviderOpenAI, LLMProviderGemini:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
