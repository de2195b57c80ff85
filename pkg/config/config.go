package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported values for STATE_BACKEND
const (
	StateBackendMySQL  = "mysql"
	StateBackendRedis  = "redis"
	StateBackendMemory = "memory"
)

// Config holds application configuration from environment variables
type Config struct {
	// Application
	AppPort        string
	FrontendOrigin string
	SessionSecret  string
	ImageMaxWidth  int

	// Remote CampusBazaar backend
	BackendURL string

	// Client state persistence
	StateBackend   string
	StateNamespace string
	RedisURL       string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// OpenTelemetry
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPHeaders   string // key1=value1,key2=value2
	OTELExporterOTLPInsecure  bool
	OTELServiceName           string
	OTELServiceVersion        string
	OTELDeploymentEnvironment string
}

// LoadConfig loads configuration from .env file and environment variables with defaults
func LoadConfig() *Config {
	// .env is optional; only complain when it exists but can't be parsed
	if err := godotenv.Load(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			slog.Warn("error loading .env file", "error", err)
		}
	}

	return &Config{
		AppPort:        getEnv("APP_PORT", "8080"),
		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "*"),
		SessionSecret:  getEnv("SESSION_SECRET", "campusbazaar-dev-secret-change-me"),
		ImageMaxWidth:  getEnvInt("IMAGE_MAX_WIDTH", 1200),

		BackendURL: strings.TrimSuffix(getEnv("BACKEND_URL", "http://127.0.0.1:8000"), "/"),

		StateBackend:   strings.ToLower(getEnv("STATE_BACKEND", StateBackendMySQL)),
		StateNamespace: getEnv("STATE_NAMESPACE", "campusbazaar"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "campusbazaar_client"),

		OTELExporterOTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELExporterOTLPHeaders:   getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OTELExporterOTLPInsecure:  getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELServiceName:           getEnv("OTEL_SERVICE_NAME", "campusbazaar-storefront"),
		OTELServiceVersion:        getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		OTELDeploymentEnvironment: getEnv("OTEL_DEPLOYMENT_ENVIRONMENT", "development"),
	}
}

// GetDSN returns the MySQL DSN string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&charset=utf8mb4"
}

// GetAppPortInt returns the application port as an integer
func (c *Config) GetAppPortInt() int {
	port, err := strconv.Atoi(c.AppPort)
	if err != nil {
		return 8080
	}
	return port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
