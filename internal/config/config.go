package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the VideoPilot server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Assets   AssetsConfig
	Renderer RendererConfig
	AI       AIConfig
	YouTube  YouTubeConfig
	Pipeline PipelineConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// AssetsConfig configures the MinIO-compatible object store that holds
// rendered video, narration audio, and thumbnails.
type AssetsConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// RendererConfig points at the long-running video render service.
type RendererConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	OpenAI           OpenAIConfig
}

type OpenAIConfig struct {
	APIKey      string
	ChatModel   string
	SpeechModel string
	ImageModel  string
}

// YouTubeConfig holds OAuth2 credentials for the upload target. Publishing is
// disabled when ClientID is empty.
type YouTubeConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// PipelineConfig tunes the orchestration loops. The auto-pilot goals are
// rolling quotas: shorts per calendar day and long-form videos per
// Sunday-aligned week.
type PipelineConfig struct {
	DailyShortGoal  int
	WeeklyLongGoal  int
	PollInterval    time.Duration
	OperationTTL    time.Duration
	TaskMaxAttempts int
}

var validProviders = map[string]bool{
	"openai": true,
	"mock":   true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("VIDEOPILOT_PORT", 8080),
			Env:  envString("VIDEOPILOT_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Assets: AssetsConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    envString("MINIO_BUCKET", "videopilot-assets"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
			PublicURL: os.Getenv("MINIO_PUBLIC_URL"),
		},
		Renderer: RendererConfig{
			BaseURL: os.Getenv("RENDERER_BASE_URL"),
			APIKey:  os.Getenv("RENDERER_API_KEY"),
			Timeout: envDuration("RENDERER_TIMEOUT", 30*time.Second),
		},
		AI: AIConfig{
			Provider:         envString("AI_PROVIDER", "openai"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 120*time.Second),
			OpenAI: OpenAIConfig{
				APIKey:      os.Getenv("OPENAI_API_KEY"),
				ChatModel:   envString("OPENAI_CHAT_MODEL", "gpt-4o"),
				SpeechModel: envString("OPENAI_SPEECH_MODEL", "tts-1"),
				ImageModel:  envString("OPENAI_IMAGE_MODEL", "dall-e-3"),
			},
		},
		YouTube: YouTubeConfig{
			ClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
			ClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
			RefreshToken: os.Getenv("YOUTUBE_REFRESH_TOKEN"),
		},
		Pipeline: PipelineConfig{
			DailyShortGoal:  envInt("PIPELINE_DAILY_SHORT_GOAL", 3),
			WeeklyLongGoal:  envInt("PIPELINE_WEEKLY_LONG_GOAL", 2),
			PollInterval:    envDuration("PIPELINE_POLL_INTERVAL", 5*time.Second),
			OperationTTL:    envDuration("PIPELINE_OPERATION_TTL", 24*time.Hour),
			TaskMaxAttempts: envInt("PIPELINE_TASK_MAX_ATTEMPTS", 3),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Assets.Endpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required")
	}

	if c.Renderer.BaseURL == "" {
		return fmt.Errorf("RENDERER_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Renderer.BaseURL, "http://") && !strings.HasPrefix(c.Renderer.BaseURL, "https://") {
		return fmt.Errorf("RENDERER_BASE_URL must start with http:// or https://, got %q", c.Renderer.BaseURL)
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of openai, mock; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}

	if c.Pipeline.DailyShortGoal < 0 || c.Pipeline.WeeklyLongGoal < 0 {
		return fmt.Errorf("auto-pilot goals must not be negative")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
