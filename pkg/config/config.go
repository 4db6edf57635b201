// Package config assembles runtime settings from a settings file and the
// environment. The file is YAML (plain JSON parses as a YAML subset, so the
// upstream config.json keeps working); environment variables win over file
// values, which win over built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults mirror the upstream tooling's paths and reason string.
const (
	DefaultSettingsPath  = "config.json"
	DefaultAPIKeyPath    = "utils/api_key.txt"
	DefaultProductsCache = ".cache/products.json"
	DefaultAuditLog      = "gen/update_stock.log"
	DefaultArchiveDir    = ".cache/documents"
	DefaultUpdateReason  = "sync from pdf"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Endpoints EndpointsConfig
	Remote    RemoteConfig
	Paths     PathsConfig
	Reconcile ReconcileConfig
	Refresh   RefreshConfig
	Notify    NotifyConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type LogConfig struct {
	Level  string
	Format string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EndpointsConfig carries the product API URLs. LookupURL is a template with
// a {reference} placeholder, UpdateStockURL one with {product_id}. Any of
// them may be empty; the pipeline degrades per endpoint.
type EndpointsConfig struct {
	LookupURL      string
	ProductsURL    string
	UpdateStockURL string
}

type RemoteConfig struct {
	APIKey            string
	APIKeyPath        string
	RequestsPerSecond float64
	Burst             int
}

type PathsConfig struct {
	ProductsCache string
	AuditLog      string
	ArchiveDir    string
}

type ReconcileConfig struct {
	UpdateReason string
}

type RefreshConfig struct {
	// Cron is a cron expression for scheduled catalog refreshes in server
	// mode. Empty disables the schedule.
	Cron string
}

type NotifyConfig struct {
	// WebhookURL receives a JSON run summary after each reconciliation
	// run. Empty disables notifications.
	WebhookURL string
}

// settingsFile is the flat on-disk schema. lookup_products_url is the legacy
// key the upstream config.json used before lookup_url existed.
type settingsFile struct {
	LookupURL         string  `yaml:"lookup_url"`
	LookupProductsURL string  `yaml:"lookup_products_url"`
	ProductsURL       string  `yaml:"products_url"`
	UpdateStockURL    string  `yaml:"update_product_stock_url"`
	APIKey            string  `yaml:"api_key"`
	APIKeyPath        string  `yaml:"api_key_path"`
	ProductsCache     string  `yaml:"products_cache"`
	AuditLog          string  `yaml:"audit_log"`
	ArchiveDir        string  `yaml:"archive_dir"`
	UpdateReason      string  `yaml:"update_reason"`
	RefreshCron       string  `yaml:"refresh_cron"`
	NotifyWebhookURL  string  `yaml:"notify_webhook_url"`
	ServerHost        string  `yaml:"server_host"`
	ServerPort        int     `yaml:"server_port"`
	LogLevel          string  `yaml:"log_level"`
	LogFormat         string  `yaml:"log_format"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Load reads configuration from the default settings path (overridable via
// STOCKSYNC_CONFIG) and the environment.
func Load() (*Config, error) {
	return LoadFrom(getEnv("STOCKSYNC_CONFIG", DefaultSettingsPath))
}

// LoadFrom reads configuration from the given settings file and the
// environment. A missing file is fine; an unreadable one is not.
func LoadFrom(settingsPath string) (*Config, error) {
	_ = godotenv.Load()

	file, err := readSettings(settingsPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", file.ServerHost, "localhost"),
			Port: getEnvAsInt("SERVER_PORT", file.ServerPort, 8080),
		},
		Endpoints: EndpointsConfig{
			LookupURL:      getEnv("LOOKUP_URL", file.LookupURL, file.LookupProductsURL),
			UpdateStockURL: getEnv("UPDATE_STOCK_URL", file.UpdateStockURL),
		},
		Remote: RemoteConfig{
			APIKey:            getEnv("API_KEY", file.APIKey),
			APIKeyPath:        getEnv("API_KEY_PATH", file.APIKeyPath, DefaultAPIKeyPath),
			RequestsPerSecond: getEnvAsFloat("REMOTE_RPS", file.RequestsPerSecond, 0),
			Burst:             getEnvAsInt("REMOTE_BURST", file.Burst, 1),
		},
		Paths: PathsConfig{
			ProductsCache: getEnv("PRODUCTS_CACHE", file.ProductsCache, DefaultProductsCache),
			AuditLog:      getEnv("AUDIT_LOG", file.AuditLog, DefaultAuditLog),
			ArchiveDir:    getEnv("ARCHIVE_DIR", file.ArchiveDir, DefaultArchiveDir),
		},
		Reconcile: ReconcileConfig{
			UpdateReason: getEnv("UPDATE_REASON", file.UpdateReason, DefaultUpdateReason),
		},
		Refresh: RefreshConfig{
			Cron: getEnv("REFRESH_CRON", file.RefreshCron),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", file.NotifyWebhookURL),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", file.LogLevel, "info"),
			Format: getEnv("LOG_FORMAT", file.LogFormat, "text"),
		},
	}

	cfg.Endpoints.ProductsURL = getEnv("PRODUCTS_URL",
		deriveProductsURL(file.ProductsURL, file.LookupProductsURL, cfg.Endpoints.LookupURL))

	if cfg.Remote.APIKey == "" {
		cfg.Remote.APIKey = readAPIKeyFile(cfg.Remote.APIKeyPath)
	}

	return cfg, nil
}

func readSettings(path string) (*settingsFile, error) {
	file := &settingsFile{}
	if path == "" {
		return file, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return file, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return file, nil
}

// deriveProductsURL resolves the catalog listing endpoint: a dedicated
// products_url wins, else the legacy key or the lookup endpoint with its
// query string stripped.
func deriveProductsURL(productsURL, legacyURL, lookupURL string) string {
	if productsURL != "" {
		return productsURL
	}
	if legacyURL != "" {
		return stripQuery(legacyURL)
	}
	if lookupURL != "" {
		return stripQuery(lookupURL)
	}
	return ""
}

func stripQuery(u string) string {
	base, _, _ := strings.Cut(u, "?")
	return base
}

// readAPIKeyFile returns the trimmed key file content, or "" when the file
// is missing or blank.
func readAPIKeyFile(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// getEnv returns the first non-empty value among the environment variable
// and the fallbacks.
func getEnv(key string, fallbacks ...string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	for _, v := range fallbacks {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnvAsInt(key string, fileValue, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}

func getEnvAsFloat(key string, fileValue, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}
