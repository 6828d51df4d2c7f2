package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the grading API service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	ExtractionModel    string
	GradingModel       string
	TranscriptionModel string
	GradingTopP        float64
	FFmpegPath         string
	FFprobePath        string
	TranscribeTimeout  time.Duration
	TranscriptCacheTTL time.Duration
	MaxVideoSizeMB     int
	MaxNotebookSizeMB  int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("NBGRADE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "NBGrade API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("ai.extraction_model", "gpt-4.1")
	v.SetDefault("ai.grading_model", "gpt-4.1")
	v.SetDefault("ai.transcription_model", "whisper-1")
	v.SetDefault("ai.top_p", 0.6)
	v.SetDefault("ffmpeg.path", "ffmpeg")
	v.SetDefault("ffprobe.path", "ffprobe")
	v.SetDefault("transcribe.timeout", "60s")
	v.SetDefault("transcript.cache_ttl", "24h")
	v.SetDefault("max_video_mb", 100)
	v.SetDefault("max_notebook_mb", 5)

	transcribeTimeout, err := time.ParseDuration(v.GetString("transcribe.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid transcribe timeout: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("transcript.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid transcript cache ttl: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		JWTSecret:          v.GetString("jwt.secret"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIBaseURL:      v.GetString("openai_base_url"),
		ExtractionModel:    v.GetString("ai.extraction_model"),
		GradingModel:       v.GetString("ai.grading_model"),
		TranscriptionModel: v.GetString("ai.transcription_model"),
		GradingTopP:        v.GetFloat64("ai.top_p"),
		FFmpegPath:         v.GetString("ffmpeg.path"),
		FFprobePath:        v.GetString("ffprobe.path"),
		TranscribeTimeout:  transcribeTimeout,
		TranscriptCacheTTL: cacheTTL,
		MaxVideoSizeMB:     v.GetInt("max_video_mb"),
		MaxNotebookSizeMB:  v.GetInt("max_notebook_mb"),
	}

	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("openai api key must be provided")
	}

	if cfg.MaxVideoSizeMB <= 0 {
		cfg.MaxVideoSizeMB = 100
	}

	if cfg.MaxNotebookSizeMB <= 0 {
		cfg.MaxNotebookSizeMB = 5
	}

	return cfg, nil
}
