package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	CORSOrigins []string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiAPIBase string

	CacheBackend        string // memory, redis, sqlite
	CachePolicy         string // lru, freeze
	SummaryCacheSize    int
	TranscriptCacheSize int
	RedisURL            string
	DBPath              string

	TempDir         string
	MaxVideoSeconds int
	FetchTimeout    time.Duration
	YtDlpPath       string
	Coalesce        bool

	WhisperEngine string // cli, whisper.cpp, openai
	WhisperPath   string
	WhisperModel  string
	WhisperURL    string
	OpenAIAPIKey  string

	RateLimitPerMinute int
	MaxBodyBytes       int64

	JWTSecret     string
	ClientKeyHash string
}

func Load() *Config {
	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: failed to load .env: %v", err)
	}

	// CORS origins: comma-separated list or "*" (default)
	corsOrigins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	jwtSecret := os.Getenv("AUTH_JWT_SECRET")
	if jwtSecret == "" {
		log.Println("WARNING: AUTH_JWT_SECRET not set, API authentication is disabled.")
	}

	return &Config{
		Port:        getEnvInt("PORT", 5000),
		CORSOrigins: corsOrigins,

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-flash-latest"),
		GeminiAPIBase: getEnv("GEMINI_API_BASE", "https://generativelanguage.googleapis.com/v1beta/models"),

		CacheBackend:        strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		CachePolicy:         strings.ToLower(getEnv("CACHE_POLICY", "lru")),
		SummaryCacheSize:    getEnvInt("SUMMARY_CACHE_SIZE", 100),
		TranscriptCacheSize: getEnvInt("TRANSCRIPT_CACHE_SIZE", 50),
		RedisURL:            os.Getenv("REDIS_URL"),
		DBPath:              getEnv("DB_PATH", "./data/digest.db"),

		TempDir:         getEnv("TEMP_DIR", os.TempDir()),
		MaxVideoSeconds: getEnvInt("MAX_VIDEO_SECONDS", 1800),
		FetchTimeout:    getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		YtDlpPath:       getEnv("YTDLP_PATH", "yt-dlp"),
		Coalesce:        getEnvBool("TRANSCRIPT_COALESCE", true),

		WhisperEngine: strings.ToLower(getEnv("WHISPER_ENGINE", "cli")),
		WhisperPath:   getEnv("WHISPER_PATH", "whisper"),
		WhisperModel:  getEnv("WHISPER_MODEL", "base"),
		WhisperURL:    os.Getenv("WHISPER_URL"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 2<<20)),

		JWTSecret:     jwtSecret,
		ClientKeyHash: os.Getenv("AUTH_CLIENT_KEY_HASH"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
