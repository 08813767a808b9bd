package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Threads         int
	Headless        bool
	SavingThreshold int

	Locale        string
	SelectorsFile string

	OutputDir   string
	TargetsFile string
	ReplayDir   string

	PageLoadTimeout   time.Duration
	CookieTimeout     time.Duration
	NavigationTimeout time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
	LaunchIntervalMs  int

	ChromeBin   string
	LogLevel    string
	PostgresDSN string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Threads:         getEnvInt("THREADS", 1),
		Headless:        getEnvBool("HEADLESS", false),
		SavingThreshold: getEnvInt("SAVING_THRESHOLD", 100),

		Locale:        getEnv("LOCALE", "pt"),
		SelectorsFile: getEnv("SELECTORS_FILE", ""),

		OutputDir:   getEnv("OUTPUT_DIR", "./output"),
		TargetsFile: getEnv("TARGETS_FILE", "urls.txt"),

		PageLoadTimeout:   getEnvDuration("PAGE_LOAD_TIMEOUT", 10*time.Second),
		CookieTimeout:     getEnvDuration("COOKIE_TIMEOUT", 10*time.Second),
		NavigationTimeout: getEnvDuration("NAVIGATION_TIMEOUT", 60*time.Second),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		RetryBaseDelay:    getEnvDuration("RETRY_BASE_DELAY", 500*time.Millisecond),
		LaunchIntervalMs:  getEnvInt("LAUNCH_INTERVAL_MS", 0),

		ChromeBin:   getEnv("CHROME_BIN", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		PostgresDSN: getEnv("POSTGRES_DSN", ""),
	}
}

// Debug reports whether debug logging is requested.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
