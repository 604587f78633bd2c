package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	pkgRetry "github.com/azmilabs/tutor-agent/internal/pkg/retry"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// External service configurations
	GeminiCfg GeminiConnectorConfig `envPrefix:"GEMINI_"`
	SpeechCfg SpeechConnectorConfig `envPrefix:"SPEECH_"`

	// Tutor persona configuration
	TutorCfg TutorConfig `envPrefix:"TUTOR_"`

	// Attachment limits
	AttachmentCfg AttachmentConfig `envPrefix:"ATTACHMENT_"`

	// Session registry configuration
	SessionCfg SessionConfig `envPrefix:"SESSION_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

// GeminiConnectorConfig configures the Gemini API client.
// An empty API key is allowed at startup: the session reports the
// missing credentials on the first send instead of failing the boot.
type GeminiConnectorConfig struct {
	APIKey string               `env:"API_KEY"`
	Model  string               `env:"MODEL" envDefault:"gemini-2.5-flash"`
	Retry  pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type SpeechConnectorConfig struct {
	HTTPClientConfig
	TranscribeEndpoint string               `env:"TRANSCRIBE_ENDPOINT" envDefault:"/v1/transcribe"`
	SynthesizeEndpoint string               `env:"SYNTHESIZE_ENDPOINT" envDefault:"/v1/synthesize"`
	Voice              string               `env:"VOICE" envDefault:"default"`
	Retry              pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// TutorConfig shapes the system framing sent to the model once per
// conversation.
type TutorConfig struct {
	InstituteName     string `env:"INSTITUTE_NAME" envDefault:"Azmi Institute"`
	CourseTitle       string `env:"COURSE_TITLE" envDefault:"General Studies"`
	CourseDescription string `env:"COURSE_DESCRIPTION"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"5s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"30s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"10s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// AttachmentConfig holds attachment limits
type AttachmentConfig struct {
	MaxFileSize  int64 `env:"MAX_FILE_SIZE" envDefault:"10485760"` // 10 MiB
	MaxFileCount int   `env:"MAX_FILE_COUNT" envDefault:"8"`
	MaxAudioSize int64 `env:"MAX_AUDIO_SIZE" envDefault:"26214400"` // 25 MiB
}

// SessionConfig holds session registry limits
type SessionConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"2h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.AttachmentCfg.MaxFileSize < 1 {
		errors = append(errors, fmt.Sprintf("ATTACHMENT_MAX_FILE_SIZE must be positive, got %d", cfg.AttachmentCfg.MaxFileSize))
	}

	if cfg.AttachmentCfg.MaxFileCount < 1 || cfg.AttachmentCfg.MaxFileCount > 64 {
		errors = append(errors, fmt.Sprintf("ATTACHMENT_MAX_FILE_COUNT must be between 1 and 64, got %d", cfg.AttachmentCfg.MaxFileCount))
	}

	if cfg.SessionCfg.TTL < time.Minute {
		errors = append(errors, fmt.Sprintf("SESSION_TTL must be at least 1m, got %s", cfg.SessionCfg.TTL))
	}

	if cfg.GeminiCfg.Model == "" {
		errors = append(errors, "GEMINI_MODEL must not be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
