package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIBaseURL is the local development origin used when no base URL is configured.
const DefaultAPIBaseURL = "http://localhost:8000"

// Config captures the runtime configuration for the TYforge client and its backend stand-in.
type Config struct {
	APIBaseURL           string
	CredentialsPath      string
	CredentialsDSN       string
	// CredentialsNamespace partitions the PostgreSQL store between terminals.
	CredentialsNamespace string
	MigrationDir         string
	LogLevel             string
	DownloadDir          string

	Export ExportConfig
	Stub   StubConfig
}

// ExportConfig controls where downloaded project archives are exported.
type ExportConfig struct {
	ObjectStore ObjectStoreConfig
	Dir         string
	Workers     int
	QueueSize   int
}

// ObjectStoreConfig describes an S3-compatible bucket.
type ObjectStoreConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

// Enabled reports whether an object store bucket has been configured.
func (c ObjectStoreConfig) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != ""
}

// StubConfig configures the in-memory backend stand-in.
type StubConfig struct {
	Port          int
	JWTSecret     string
	TokenTTL      time.Duration
	LoginRate     int
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from environment variables, applying defaults for local
// development. A .env file in the working directory is honoured when present; values
// already set in the environment win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		APIBaseURL:           strings.TrimRight(getString("TYFORGE_API_BASE_URL", DefaultAPIBaseURL), "/"),
		CredentialsPath:      getString("TYFORGE_CREDENTIALS_PATH", defaultCredentialsPath()),
		CredentialsDSN:       getString("TYFORGE_CREDENTIALS_DSN", ""),
		CredentialsNamespace: getString("TYFORGE_CREDENTIALS_NAMESPACE", "default"),
		MigrationDir:         getString("TYFORGE_MIGRATIONS", "migrations"),
		LogLevel:             getString("TYFORGE_LOG_LEVEL", "info"),
		DownloadDir:          getString("TYFORGE_DOWNLOAD_DIR", "."),
		Export: ExportConfig{
			ObjectStore: ObjectStoreConfig{
				Bucket:        getString("TYFORGE_EXPORT_BUCKET", ""),
				Region:        getString("TYFORGE_EXPORT_REGION", "us-east-1"),
				Endpoint:      getString("TYFORGE_EXPORT_ENDPOINT", ""),
				PublicBaseURL: getString("TYFORGE_EXPORT_PUBLIC_URL", ""),
			},
			Dir:       getString("TYFORGE_EXPORT_DIR", "exports"),
			Workers:   getInt("TYFORGE_EXPORT_WORKERS", 2),
			QueueSize: getInt("TYFORGE_EXPORT_QUEUE", 16),
		},
		Stub: StubConfig{
			Port:          getInt("TYFORGE_STUB_PORT", 8000),
			JWTSecret:     getString("TYFORGE_STUB_JWT_SECRET", "tyforge-dev-secret"),
			TokenTTL:      getDuration("TYFORGE_STUB_TOKEN_TTL", 24*time.Hour),
			LoginRate:     getInt("TYFORGE_STUB_LOGIN_RATE", 30),
			AdminEmail:    getString("TYFORGE_STUB_ADMIN_EMAIL", "admin@tyforge.local"),
			AdminPassword: getString("TYFORGE_STUB_ADMIN_PASSWORD", "admin12345"),
		},
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}

	return cfg, nil
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".tyforge", "credentials.json")
	}
	return filepath.Join(dir, "tyforge", "credentials.json")
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
