package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	RedisAddr   string
	KafkaBroker string

	JWTSecret string
	HTTPAddr  string
}

// Load reads configuration from the environment, picking up a .env file when
// one is present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	return &Config{
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPass:      getEnv("DB_PASS", "postgres"),
		DBName:      getEnv("DB_NAME", "posdb"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBroker: getEnv("KAFKA_BROKER", ""),
		JWTSecret:   getEnv("JWT_SECRET", "dev-secret"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":3000"),
	}
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
