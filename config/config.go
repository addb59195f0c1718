package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env into the process environment. A missing file is fine.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}
}

// Config is read from environment variables.
type Config struct {
	Port   string
	AppEnv string

	DBDriver   string
	SQLitePath string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	RedisAddr string
	RedisPwd  string

	CacheBackend     string
	ToolsCacheTTL    time.Duration
	StatsCacheTTL    time.Duration
	OverdueThreshold time.Duration

	QRDir    string
	ImageDir string

	SessionTTL time.Duration
	WebOrigin  string
	// user:role:bcrypt-hash entries, comma separated
	Users string
}

func (c Config) Development() bool { return c.AppEnv == "development" }

func Load() Config {
	get := func(k, def string) string {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			return def
		}
		return v
	}
	seconds := func(k string, def int) time.Duration {
		n, err := strconv.Atoi(get(k, strconv.Itoa(def)))
		if err != nil || n < 0 {
			log.Printf("config: bad %s, using %d", k, def)
			n = def
		}
		return time.Duration(n) * time.Second
	}
	hours := func(k string, def float64) time.Duration {
		f, err := strconv.ParseFloat(get(k, strconv.FormatFloat(def, 'f', -1, 64)), 64)
		if err != nil || f <= 0 {
			log.Printf("config: bad %s, using %g", k, def)
			f = def
		}
		return time.Duration(f * float64(time.Hour))
	}

	return Config{
		Port:   get("PORT", "3001"),
		AppEnv: get("APP_ENV", "production"),

		DBDriver:   strings.ToLower(get("DB_DRIVER", "sqlite")),
		SQLitePath: get("SQLITE_PATH", "inventory.db"),
		DBHost:     get("DB_HOST", "127.0.0.1"),
		DBUser:     get("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     get("DB_NAME", "inventory"),
		DBPort:     get("DB_PORT", "5432"),
		DBSSLMode:  get("DB_SSLMODE", "disable"),

		RedisAddr: get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:  os.Getenv("REDIS_PASSWORD"),

		CacheBackend:     strings.ToLower(get("CACHE_BACKEND", "memory")),
		ToolsCacheTTL:    seconds("TOOLS_CACHE_TTL_SECONDS", 60),
		StatsCacheTTL:    seconds("STATS_CACHE_TTL_SECONDS", 60),
		OverdueThreshold: hours("OVERDUE_HOURS", 24),

		QRDir:    get("QR_DIR", "qr_codes"),
		ImageDir: get("IMAGE_DIR", "tool_imgs"),

		SessionTTL: seconds("SESSION_TTL_SECONDS", 86400),
		WebOrigin:  get("WEB_ORIGIN", "http://localhost:5173"),
		Users:      os.Getenv("APP_USERS"),
	}
}
