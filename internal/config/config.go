package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/user/curation-service/internal/extractor"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	StoreDriver   string `mapstructure:"STORE_DRIVER"` // postgres, mongo or memory
	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int    `mapstructure:"REDIS_DB"`
	PreviewCacheTTL  int    `mapstructure:"PREVIEW_CACHE_TTL"`  // in seconds, 0 disables
	PreviewCacheSize int    `mapstructure:"PREVIEW_CACHE_SIZE"` // in-process entries when REDIS_ADDR is empty

	FetchTimeout        int    `mapstructure:"FETCH_TIMEOUT"` // in seconds
	FetchMaxRetries     int    `mapstructure:"FETCH_MAX_RETRIES"`
	FetchInsecureTLS    bool   `mapstructure:"FETCH_INSECURE_TLS"`
	FetchTLSFingerprint bool   `mapstructure:"FETCH_TLS_FINGERPRINT"`
	FetchProxies        string `mapstructure:"FETCH_PROXIES"` // comma separated
	RenderSocial        bool   `mapstructure:"RENDER_SOCIAL"`
	RenderTimeout       int    `mapstructure:"RENDER_TIMEOUT"` // in seconds

	LLMAPIKey      string  `mapstructure:"GROQ_API_KEY"`
	LLMBaseURL     string  `mapstructure:"LLM_BASE_URL"`
	LLMModel       string  `mapstructure:"LLM_MODEL"`
	LLMTimeout     int     `mapstructure:"LLM_TIMEOUT"` // in seconds
	LLMTemperature float64 `mapstructure:"LLM_TEMPERATURE"`

	SummaryQuickPass      bool `mapstructure:"SUMMARY_QUICK_PASS"`
	SummaryShortThreshold int  `mapstructure:"SUMMARY_SHORT_THRESHOLD"`

	ProfileImageMaxDim      int    `mapstructure:"PROFILE_IMAGE_MAX_DIM"`
	SocialAPlaceholderImage string `mapstructure:"SOCIAL_A_PLACEHOLDER_IMAGE"`
	SocialBPlaceholderImage string `mapstructure:"SOCIAL_B_PLACEHOLDER_IMAGE"`

	PinProvider     string `mapstructure:"PIN_PROVIDER"` // none, pinata or s3
	PinataAPIKey    string `mapstructure:"PINATA_API_KEY"`
	PinataSecretKey string `mapstructure:"PINATA_SECRET_KEY"`
	PinS3Bucket     string `mapstructure:"PIN_S3_BUCKET"`
	AWSRegion       string `mapstructure:"AWS_REGION"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":                "5000",
	"LOG_LEVEL":                  "info",
	"STORE_DRIVER":               "memory",
	"POSTGRES_URL":               "",
	"MONGO_URI":                  "",
	"MONGO_DATABASE":             "curation",
	"REDIS_ADDR":                 "",
	"REDIS_PASSWORD":             "",
	"REDIS_DB":                   0,
	"PREVIEW_CACHE_TTL":          600,
	"PREVIEW_CACHE_SIZE":         256,
	"FETCH_TIMEOUT":              10,
	"FETCH_MAX_RETRIES":          2,
	"FETCH_INSECURE_TLS":         true,
	"FETCH_TLS_FINGERPRINT":      true,
	"FETCH_PROXIES":              "",
	"RENDER_SOCIAL":              false,
	"RENDER_TIMEOUT":             30,
	"GROQ_API_KEY":               "",
	"LLM_BASE_URL":               "https://api.groq.com/openai/v1",
	"LLM_MODEL":                  "llama-3.1-8b-instant",
	"LLM_TIMEOUT":                30,
	"LLM_TEMPERATURE":            0.3,
	"SUMMARY_QUICK_PASS":         true,
	"SUMMARY_SHORT_THRESHOLD":    500,
	"PROFILE_IMAGE_MAX_DIM":      200,
	"SOCIAL_A_PLACEHOLDER_IMAGE": extractor.DefaultSocialAPlaceholder,
	"SOCIAL_B_PLACEHOLDER_IMAGE": extractor.DefaultSocialBPlaceholder,
	"PIN_PROVIDER":               "none",
	"PINATA_API_KEY":             "",
	"PINATA_SECRET_KEY":          "",
	"PIN_S3_BUCKET":              "",
	"AWS_REGION":                 "",
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom reads configuration from the given env file, overridden by the environment.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = v.ReadInConfig()

	// Every key needs a default, otherwise Unmarshal ignores it even when the env var is set.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Config) RenderTimeoutDuration() time.Duration {
	return time.Duration(c.RenderTimeout) * time.Second
}

func (c *Config) LLMTimeoutDuration() time.Duration {
	return time.Duration(c.LLMTimeout) * time.Second
}

func (c *Config) PreviewCacheTTLDuration() time.Duration {
	return time.Duration(c.PreviewCacheTTL) * time.Second
}

// ProxyList splits FETCH_PROXIES into individual proxy URLs.
func (c *Config) ProxyList() []string {
	var proxies []string
	for _, p := range strings.Split(c.FetchProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}
