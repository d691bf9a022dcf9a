package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	// Local persistence: "file" or "redis".
	StorageBackend string
	StoragePath    string
	RedisURL       string
	SlotKey        string

	// Remote store. Empty DatabaseURL disables cloud sync entirely.
	DatabaseURL string

	Events  EventConfig
	Casdoor CasdoorConfig
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Certificate  string
	Organization string
	Application  string
}

// Configured reports whether enough Casdoor settings are present to verify
// tokens.
func (c CasdoorConfig) Configured() bool {
	return c.Endpoint != "" && c.ClientID != "" && c.ClientSecret != ""
}

func LoadConfig() (*Config, error) {
	// A missing .env file is fine; the environment may carry everything.
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		StorageBackend: getEnv("STORAGE_BACKEND", "file"),
		StoragePath:    getEnv("STORAGE_PATH", "data/quiz_attempts.json"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		SlotKey:        getEnv("STORAGE_SLOT_KEY", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		Events: EventConfig{
			Publisher:     getEnv("EVENTS_PUBLISHER", "channel"),
			KafkaBrokers:  getEnv("KAFKA_BROKERS", "localhost:9092"),
			AttemptsTopic: getEnv("ATTEMPTS_TOPIC", "quiz-attempts"),
			ConsumerGroup: getEnv("EVENTS_CONSUMER_GROUP", "sync-service"),
		},
		Casdoor: CasdoorConfig{
			Endpoint:     getEnv("CASDOOR_ENDPOINT", ""),
			ClientID:     getEnv("CASDOOR_CLIENT_ID", ""),
			ClientSecret: getEnv("CASDOOR_CLIENT_SECRET", ""),
			Certificate:  getEnv("CASDOOR_CERTIFICATE", ""),
			Organization: getEnv("CASDOOR_ORGANIZATION", ""),
			Application:  getEnv("CASDOOR_APPLICATION", ""),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
