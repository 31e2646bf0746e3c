package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Reader   ReaderConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string
}

// ReaderConfig tunes the annotation overlay.
type ReaderConfig struct {
	MinZoom         int
	MaxZoom         int
	ZoomStep        int
	DefaultZoom     int
	MaxPdfBytes     int64
	MaxPdfPages     int
	FontSize        float64
	PenWidth        float64
	HighlightWidth  float64
	HighlightAlpha  float64
	EraserWidth     float64
	EraserMode      string // "preview" or "hittest"
	SessionTTL      time.Duration
	AnnotationCache time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Reader: ReaderConfig{
			MinZoom:         getEnvAsInt("READER_MIN_ZOOM", 50),
			MaxZoom:         getEnvAsInt("READER_MAX_ZOOM", 200),
			ZoomStep:        getEnvAsInt("READER_ZOOM_STEP", 10),
			DefaultZoom:     getEnvAsInt("READER_DEFAULT_ZOOM", 100),
			MaxPdfBytes:     int64(getEnvAsInt("READER_MAX_PDF_BYTES", 5*1024*1024)),
			MaxPdfPages:     getEnvAsInt("READER_MAX_PDF_PAGES", 2000),
			FontSize:        getEnvAsFloat("READER_FONT_SIZE", 16),
			PenWidth:        getEnvAsFloat("READER_PEN_WIDTH", 2),
			HighlightWidth:  getEnvAsFloat("READER_HIGHLIGHT_WIDTH", 20),
			HighlightAlpha:  getEnvAsFloat("READER_HIGHLIGHT_ALPHA", 0.3),
			EraserWidth:     getEnvAsFloat("READER_ERASER_WIDTH", 20),
			EraserMode:      getEnv("READER_ERASER_MODE", "preview"),
			SessionTTL:      getEnvAsDuration("READER_SESSION_TTL", 2*time.Hour),
			AnnotationCache: getEnvAsDuration("READER_ANNOTATION_CACHE_TTL", 30*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
