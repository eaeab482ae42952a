package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	MongoURI       string
	MongoDB        string
	AllowedOrigins []string
	APIBaseURL     string
	FeedURL        string
	MLBackendURL   string
	KafkaAddress   string
	KafkaTopic     string
	ESURL          string
	ESUser         string
	ESPassword     string
	ESIndex        string
	StateDSN       string
	StatePath      string
	LogLevel       string
	OrderTick      time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		Port:           getEnv("PORT", "5001"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDB:        getEnv("MONGO_DB", "EcommerceDB"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		APIBaseURL:     os.Getenv("API_BASE_URL"),
		FeedURL:        getEnv("FEED_URL", "https://dummyjson.com"),
		MLBackendURL:   os.Getenv("ML_BACKEND_URL"),
		KafkaAddress:   os.Getenv("KAFKA_ADDRESS"),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "shop_events"),
		ESURL:          os.Getenv("ES_URL"),
		ESUser:         os.Getenv("ES_USER"),
		ESPassword:     os.Getenv("ES_PASSWORD"),
		ESIndex:        getEnv("ES_INDEX", "products"),
		StateDSN:       os.Getenv("STATE_DSN"),
		StatePath:      getEnv("STATE_PATH", "storefront.db"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		OrderTick:      getDuration("ORDER_TICK", 4*time.Second),
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Notice: invalid %s value %q, using %s", key, value, fallback)
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
