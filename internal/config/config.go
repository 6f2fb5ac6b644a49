package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string

	// MySQLDSN empty selects the in-memory store.
	MySQLDSN string
	// RedisAddr empty disables the request idempotency guard.
	RedisAddr string

	SeedOnStart bool

	HubQueueSize int
	ConnBuffer   int
	SendTimeout  time.Duration
}

// Load reads configuration from the environment, honoring a local .env.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServiceName:  getenv("SERVICE_NAME", "workbox"),
		Env:          getenv("ENV", "dev"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		MySQLDSN:     getenv("MYSQL_DSN", ""),
		RedisAddr:    getenv("REDIS_ADDR", ""),
		SeedOnStart:  getenv("SEED_ON_START", "true") == "true",
		HubQueueSize: getenvInt("HUB_QUEUE_SIZE", 1024),
		ConnBuffer:   getenvInt("CONN_BUFFER", 32),
		SendTimeout:  getenvDuration("SEND_TIMEOUT", 50*time.Millisecond),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
