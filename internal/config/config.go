package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ArchiveMemory   = "memory"
	ArchiveFile     = "file"
	ArchiveRedis    = "redis"
	ArchivePostgres = "postgres"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	ArchiveBackend        string
	ArchiveDir            string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	AuthSecret            string
	AccessTokenTTLMinutes int
	ShopProfilePath       string
	LogLevel              string
}

// Load reads configuration from the environment. A .env file in the working
// directory, when present, fills in variables that are not already set.
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "720"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 720
	}

	databaseURL := os.Getenv("DATABASE_URL")
	defaultBackend := ArchiveFile
	if databaseURL != "" {
		defaultBackend = ArchivePostgres
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:5173"),
		ArchiveBackend:        strings.ToLower(getEnv("ARCHIVE_BACKEND", defaultBackend)),
		ArchiveDir:            getEnv("ARCHIVE_DIR", "data"),
		DatabaseURL:           databaseURL,
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		ShopProfilePath:       getEnv("SHOP_PROFILE", "config/shop.toml"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
