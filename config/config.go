package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Index backends
const (
	IndexSQLite = "sqlite"
	IndexMySQL  = "mysql"
	IndexRedis  = "redis"
	IndexNone   = "none"
)

// Config stores the application configuration.
type Config struct {
	// Root is the directory that holds P3DrumMachine/. Empty means the
	// user config dir.
	Root string

	LogLevel   string
	LogFile    string // empty disables the rotating file
	LogMaxSize int    // MB

	// IndexBackend selects the session summary index: sqlite, mysql, redis or none.
	IndexBackend string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// DiskReserveBytes is kept free on top of what a write needs.
	DiskReserveBytes int64
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return fallback
}

// Load reads .env from the working directory (existing variables win) and
// then the environment, falling back to defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("error loading .env, relying on existing environment variables: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		Root:       getEnv("P3DM_ROOT", ""),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFile:    getEnv("LOG_FILE", ""),
		LogMaxSize: getEnvInt("LOG_MAX_SIZE", 10),

		IndexBackend: normalizeBackend(getEnv("INDEX_BACKEND", IndexSQLite)),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "p3dm"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""), // 默认无密码
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DiskReserveBytes: getEnvInt64("DISK_RESERVE_BYTES", 0),
	}
}

func normalizeBackend(s string) string {
	switch b := strings.ToLower(strings.TrimSpace(s)); b {
	case IndexSQLite, IndexMySQL, IndexRedis, IndexNone:
		return b
	case "", "off", "disabled":
		return IndexNone
	default:
		log.Printf("unknown INDEX_BACKEND %q, using %s", s, IndexSQLite)
		return IndexSQLite
	}
}

// RedisAddr is host:port for the redis client.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
