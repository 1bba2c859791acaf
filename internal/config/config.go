package config

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ArchiveLocal = "local"
	ArchiveAzure = "azure"
)

type Config struct {
	Host           string
	Port           string
	RequestTimeout time.Duration
	MaxUploadSize  int64
	CORSOrigins    []string
	LogLevel       string

	ArchiveBackend string
	ArchiveDir     string
	AzureAccount   string
	AzureKey       string
	AzureContainer string
	// AzureEndpoint overrides the public blob endpoint, e.g. for Azurite.
	AzureEndpoint string

	BackendURL     string
	BackendTimeout time.Duration

	OCREnabled  bool
	OCRLanguage string

	PDFDefaultDPI float64
	Workers       int
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// BackendEnabled reports whether a records backend is configured.
func (c *Config) BackendEnabled() bool {
	return c.BackendURL != ""
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// existing environment variables win over the file
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return LoadFromEnv()
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:           getEnvOrDefault("HOST", "0.0.0.0"),
		Port:           getEnvOrDefault("PORT", "8080"),
		RequestTimeout: parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxUploadSize:  parseIntOrDefault("MAX_UPLOAD_SIZE", 10*1024*1024), // 10MB
		CORSOrigins:    parseListOrDefault("CORS_ORIGINS", []string{"*"}),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),

		ArchiveBackend: strings.ToLower(getEnvOrDefault("ARCHIVE_BACKEND", ArchiveLocal)),
		ArchiveDir:     getEnvOrDefault("ARCHIVE_DIR", "./data/pdfs"),
		AzureAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureKey:       os.Getenv("AZURE_STORAGE_KEY"),
		AzureContainer: getEnvOrDefault("AZURE_CONTAINER", "exam-scans"),
		AzureEndpoint:  os.Getenv("AZURE_ENDPOINT"),

		BackendURL:     strings.TrimRight(strings.TrimSpace(os.Getenv("BACKEND_URL")), "/"),
		BackendTimeout: parseDurationOrDefault("BACKEND_TIMEOUT", 15*time.Second),

		OCREnabled:  parseBoolOrDefault("OCR_ENABLED", false),
		OCRLanguage: getEnvOrDefault("OCR_LANGUAGE", "eng"),

		PDFDefaultDPI: parseFloatOrDefault("PDF_DEFAULT_DPI", 150),
		Workers:       int(parseIntOrDefault("WORKERS", 0)),
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be > 0 (got %d)", c.MaxUploadSize)
	}
	if c.RequestTimeout <= 0 || c.BackendTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, backend=%s)",
			c.RequestTimeout, c.BackendTimeout)
	}
	switch c.ArchiveBackend {
	case ArchiveLocal:
		if strings.TrimSpace(c.ArchiveDir) == "" {
			return fmt.Errorf("ARCHIVE_DIR must be set for the local archive")
		}
	case ArchiveAzure:
		if c.AzureAccount == "" || c.AzureKey == "" {
			return fmt.Errorf("azure archive requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return fmt.Errorf("invalid ARCHIVE_BACKEND: %q", c.ArchiveBackend)
	}
	if c.PDFDefaultDPI < 36 || c.PDFDefaultDPI > 1200 {
		return fmt.Errorf("PDF_DEFAULT_DPI must be within 36..1200 (got %g)", c.PDFDefaultDPI)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
