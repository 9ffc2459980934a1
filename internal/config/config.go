package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	LogLevel    string
	CORSOrigins []string
	AdminUsers  []string

	// Database
	DatabaseDriver  string
	DatabaseURL     string
	SeedCatalogPath string
	CatalogExport   string

	// Redis sessions
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	// Event log
	KafkaEnabled   bool
	KafkaBroker    string
	KafkaTopic     string
	KafkaGroupID   string
	LedgerDir      string
	EventQueueSize int

	// Ranking
	RankLimit      int
	RecommendLimit int
}

// Load reads the process environment, after an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        GetEnv("PORT", "8080"),
		GinMode:     GetEnv("GIN_MODE", "debug"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		CORSOrigins: GetEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		AdminUsers:  GetEnvList("ADMIN_USERS", []string{"admin"}),

		DatabaseDriver:  strings.ToLower(GetEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:     GetEnv("DATABASE_URL", "file:ads.db?_busy_timeout=5000"),
		SeedCatalogPath: GetEnv("SEED_CATALOG_PATH", "data/ad_inventory.csv"),
		CatalogExport:   GetEnv("CATALOG_EXPORT_PATH", "ad_inventory.csv"),

		RedisAddr:     GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("REDIS_DB", 0),
		SessionTTL:    GetEnvDuration("SESSION_TTL", 24*time.Hour),

		KafkaEnabled:   GetEnvBool("KAFKA_ENABLED", false),
		KafkaBroker:    GetEnv("KAFKA_BROKER", "localhost:9092"),
		KafkaTopic:     GetEnv("KAFKA_TOPIC", "ad-engagement"),
		KafkaGroupID:   GetEnv("KAFKA_GROUP_ID", "ad-ledger"),
		LedgerDir:      GetEnv("LEDGER_DIR", "users"),
		EventQueueSize: GetEnvInt("EVENT_QUEUE_SIZE", 10000),

		RankLimit:      GetEnvInt("RANK_LIMIT", 10),
		RecommendLimit: GetEnvInt("RECOMMEND_LIMIT", 5),
	}
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return defaultValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvDuration accepts Go durations ("90m") or a bare number of seconds.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// GetEnvList splits a comma separated variable, dropping empty items.
func GetEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
