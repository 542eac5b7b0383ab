package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from the environment
// with optional .env support.
type Config struct {
	Port          string
	MongoURI      string
	MongoDB       string
	JWTSecret     string
	JWTExpiry     time.Duration
	AdminMarker   string
	AdminIdentity string
	AdminPassword string
	DriverDomain  string
	MQTTBroker    string
	MQTTClientID  string
	ProfitPolicy  string
	RateLimit     int
	RateWindow    time.Duration
}

// Load reads configuration from the environment. A missing .env file is
// not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "fleet_ledger"),
		JWTSecret:     getEnv("JWT_SECRET", "default-secret-key-change-in-production"),
		JWTExpiry:     getDuration("JWT_EXPIRY", 24*time.Hour),
		AdminMarker:   getEnv("ADMIN_MARKER", "admin"),
		AdminIdentity: getEnv("ADMIN_IDENTITY", "admin@mainmast.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		DriverDomain:  getEnv("DRIVER_DOMAIN", "logifi.com"),
		MQTTBroker:    getEnv("MQTT_BROKER", ""),
		MQTTClientID:  getEnv("MQTT_CLIENT_ID", "fleet-ledger"),
		ProfitPolicy:  getEnv("PROFIT_POLICY", "freight_minus_costs"),
		RateLimit:     getInt("RATE_LIMIT", 100),
		RateWindow:    getDuration("RATE_WINDOW", time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
