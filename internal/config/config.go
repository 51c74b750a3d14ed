package config

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// MinSecretLength is the shortest accepted token signing secret, in bytes.
const MinSecretLength = 32

// Config holds application configuration
type Config struct {
	// Server
	Port               string
	Env                string
	CORSAllowedOrigins []string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Tokens
	JWTSecret       string
	JWTKeyID        string
	JWTPreviousKeys map[string]string

	// Password hashing
	BcryptCost    int
	HashWorkers   int
	LegacyArgon2  bool
	LoginRate     int
	LoginBurst    int
	MetricsAPIKey string

	// Alert fan-out
	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTTopicPrefix string

	SeedDefaultData bool
}

// Load loads configuration from environment variables. A missing or short
// JWT_SECRET is an error: there is no built-in fallback key.
func Load() (*Config, error) {
	config, err := LoadDatabase()
	if err != nil {
		return nil, err
	}

	config.Port = getEnv("PORT", "8080")
	config.Env = getEnv("ENV", "development")
	config.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))
	config.JWTSecret = os.Getenv("JWT_SECRET")
	config.JWTKeyID = getEnv("JWT_KEY_ID", "primary")
	config.MetricsAPIKey = os.Getenv("METRICS_API_KEY")
	config.MQTTBrokerURL = os.Getenv("MQTT_BROKER_URL")
	config.MQTTClientID = getEnv("MQTT_CLIENT_ID", "gatehouse-api")
	config.MQTTTopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "gatehouse/alerts")

	if len(config.JWTSecret) < MinSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be set to at least %d bytes", MinSecretLength)
	}

	previous, err := parseKeyList(os.Getenv("JWT_PREVIOUS_KEYS"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_PREVIOUS_KEYS: %w", err)
	}
	config.JWTPreviousKeys = previous

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"BCRYPT_COST", 10, &config.BcryptCost},
		{"HASH_WORKERS", runtime.GOMAXPROCS(0), &config.HashWorkers},
		{"LOGIN_RATE_PER_MINUTE", 10, &config.LoginRate},
		{"LOGIN_RATE_BURST", 5, &config.LoginBurst},
	}
	for _, i := range ints {
		v, err := getEnvInt(i.key, i.def)
		if err != nil {
			return nil, err
		}
		*i.dest = v
	}

	if config.LegacyArgon2, err = getEnvBool("LEGACY_ARGON2", false); err != nil {
		return nil, err
	}
	if config.SeedDefaultData, err = getEnvBool("SEED_DEFAULT_DATA", false); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadDatabase loads only the database settings. It is enough for tools
// such as the migration CLI that never issue tokens.
func LoadDatabase() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "gatehouse"),
		DBPassword: getEnv("DB_PASSWORD", "gatehouse"),
		DBName:     getEnv("DB_NAME", "gatehouse"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "gatehouse.db"),
	}

	switch config.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", config.DBDriver)
	}
	return config, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseKeyList parses "kid=secret,kid2=secret2" into a map.
func parseKeyList(raw string) (map[string]string, error) {
	keys := make(map[string]string)
	for _, pair := range splitList(raw) {
		kid, secret, ok := strings.Cut(pair, "=")
		kid = strings.TrimSpace(kid)
		if !ok || kid == "" || secret == "" {
			return nil, fmt.Errorf("entry %q is not kid=secret", pair)
		}
		if len(secret) < MinSecretLength {
			return nil, fmt.Errorf("secret for key %q is shorter than %d bytes", kid, MinSecretLength)
		}
		keys[kid] = secret
	}
	return keys, nil
}
