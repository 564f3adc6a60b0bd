package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	JWTSecret    string
	MongoURI     string
	DBName       string
	SkipAuth     bool
	Environment  string
	AppId        string
	ArchivePgDSN string // Optional Postgres warehouse for terminal outcomes
	MaxRetries   int    // Bounded retries for concurrent advance conflicts
	ReminderSpec string // Cron spec for the pending-approval reminder job
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		JWTSecret:    getEnv("JWT_SECRET", "secret"),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:       getEnv("DB_NAME", "mis-workflow"),
		SkipAuth:     getEnv("SKIP_AUTH", "false") == "true",
		Environment:  getEnv("ENVIRONMENT", "development"),
		AppId:        getEnv("APP_ID", "mis-api-sub003"),
		ArchivePgDSN: getEnv("ARCHIVE_PG_DSN", ""),
		MaxRetries:   getEnvInt("ADVANCE_MAX_RETRIES", 3),
		ReminderSpec: getEnv("REMINDER_CRON", "0 8 * * *"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
