package app

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	LogFile            string
	RequestTimeout     time.Duration
	RateLimitRPS       float64
	RateLimitBurst     int
	TMDBAPIKey         string
	TMDBBaseURL        string
	TMDBImageBaseURL   string
	TMDBCacheTTL       time.Duration
	TMDBRequestsPerSec float64
	TMDBRetryAttempts  int
	RedisURL           string
	MongoURI           string
	MongoDatabase      string
	MongoCollection    string
	HomeCacheTTL       time.Duration
	HomeCacheDisabled  bool
	EmbedPrimaryURL    string
	EmbedFallbackURL   string
	EmbedProbeTimeout  time.Duration
	SessionTTL         time.Duration
	CORSAllowedOrigins []string
}

// LoadDotEnv reads key=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8095"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogFile:            getEnv("LOG_FILE", ""),
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 100),
		TMDBAPIKey:         strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		TMDBBaseURL:        getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBImageBaseURL:   getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p"),
		TMDBCacheTTL:       time.Duration(getEnvInt("TMDB_CACHE_TTL_MINUTES", 60)) * time.Minute,
		TMDBRequestsPerSec: getEnvFloat("TMDB_REQUESTS_PER_SECOND", 40),
		TMDBRetryAttempts:  getEnvInt("TMDB_RETRY_ATTEMPTS", 1),
		RedisURL:           getEnv("REDIS_URL", ""),
		MongoURI:           getEnv("MONGO_URI", ""),
		MongoDatabase:      getEnv("MONGO_DB", "discovery"),
		MongoCollection:    getEnv("MONGO_COLLECTION", "favorites"),
		HomeCacheTTL:       time.Duration(getEnvInt("HOME_CACHE_TTL_MINUTES", 10)) * time.Minute,
		HomeCacheDisabled:  getEnvBool("HOME_CACHE_DISABLED", false),
		EmbedPrimaryURL:    getEnv("EMBED_PRIMARY_URL", "https://vidsrc.to"),
		EmbedFallbackURL:   getEnv("EMBED_FALLBACK_URL", "https://vidsrc.me"),
		EmbedProbeTimeout:  time.Duration(getEnvInt("EMBED_PROBE_TIMEOUT_SECONDS", 10)) * time.Second,
		SessionTTL:         time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
