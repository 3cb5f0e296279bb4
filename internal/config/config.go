package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Logging
	LogLevel string

	// Gemini AI
	GeminiAPIKey string

	// Static front-end
	StaticDir string

	// HTTP
	AllowedOrigins string
	MaxUploadMB    int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "3000"),
		Env:            getEnvOrDefault("ENV", "development"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		GeminiAPIKey:   mustGetEnv("GOOGLE_AI_STUDIO_API_KEY", "GEMINI_API_KEY"),
		StaticDir:      getEnvOrDefault("STATIC_DIR", "public"),
		AllowedOrigins: getEnvOrDefault("ALLOWED_ORIGINS", "*"),
		MaxUploadMB:    getEnvAsIntOrDefault("MAX_UPLOAD_MB", 10),
	}

	return cfg
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// MaxUploadBytes is the multipart body cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// mustGetEnv returns the first non-empty value among keys and panics if none is set.
func mustGetEnv(keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	panic(fmt.Sprintf("required environment variable %s is not set", keys[0]))
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
