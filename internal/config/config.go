package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var AppEnv Config

type Config struct {
	MongoURI        string
	DBName          string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RequestTimeout  time.Duration
	Port            string
	LogLevel        string
	LogFormat       string
	SequenceBackend string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	OrderLocation   *time.Location
	PublicDir       string
}

const (
	SequenceBackendMongo = "mongo"
	SequenceBackendRedis = "redis"
)

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Info().Err(err).Msg(".env not loaded")
	}
	AppEnv = FromEnv()
}

// FromEnv reads the configuration from the current process environment.
func FromEnv() Config {
	return Config{
		MongoURI:        getEnvOrDefault("MONGO_URI", ""),
		DBName:          getEnvOrDefault("DB_NAME", "habitta"),
		JWTSecret:       getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 60, time.Minute),
		RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL", 720, time.Hour),
		RequestTimeout:  getDurationEnv("REQUEST_TIMEOUT", 5, time.Second),
		Port:            getEnvOrDefault("PORT", "8080"),
		LogLevel:        strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console")),
		SequenceBackend: strings.ToLower(getEnvOrDefault("SEQUENCE_BACKEND", SequenceBackendMongo)),
		RedisAddr:       getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:         getIntEnv("REDIS_DB", 0),
		OrderLocation:   getLocationEnv("ORDER_NUMBER_LOCATION", "Europe/Lisbon"),
		PublicDir:       getEnvOrDefault("PUBLIC_DIR", "./public"),
	}
}

// Missing returns the names of required keys that are not set.
func (c Config) Missing() []string {
	var missing []string
	if c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	return missing
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func getLocationEnv(key, defaultValue string) *time.Location {
	name := getEnvOrDefault(key, defaultValue)
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("location", name).Msg("unknown location, falling back to UTC")
		return time.UTC
	}
	return loc
}
