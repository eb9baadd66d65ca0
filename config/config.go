package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Notifier variants. The variant is fixed by deployment configuration; the
// pipeline never chooses per invocation.
const (
	NotifierSendGrid = "sendgrid"
	NotifierGmail    = "gmail"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	GCP           GCPConfig
	Salesforce    SalesforceConfig
	Warehouse     WarehouseConfig
	Notifier      NotifierConfig
	Auth          AuthConfig
	Secrets       SecretsConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

type GCPConfig struct {
	ProjectID string
}

type SalesforceConfig struct {
	ObjectType string
	APIVersion string
}

type WarehouseConfig struct {
	DatasetID string
	TableID   string
}

type NotifierConfig struct {
	Variant   string
	FromEmail string
	ToEmails  []string
}

type AuthConfig struct {
	WebhookSecret string // Optional: enforced on the sync endpoint only when set
}

type SecretsConfig struct {
	CacheTTLSeconds int // 0 disables the credential bundle cache
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8081")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("SALESFORCE_OBJECT", "Account")
	v.SetDefault("SALESFORCE_API_VERSION", "59.0")
	v.SetDefault("NOTIFIER_VARIANT", NotifierSendGrid)
	v.SetDefault("SECRET_CACHE_TTL_SECONDS", 0)
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_SERVICE_NAME", "sfsync-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "sfsync")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "sfsync-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines,mutex,block")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		GCP: GCPConfig{
			ProjectID: v.GetString("GCP_PROJECT"),
		},
		Salesforce: SalesforceConfig{
			ObjectType: v.GetString("SALESFORCE_OBJECT"),
			APIVersion: v.GetString("SALESFORCE_API_VERSION"),
		},
		Warehouse: WarehouseConfig{
			DatasetID: v.GetString("BIGQUERY_DATASET"),
			TableID:   v.GetString("BIGQUERY_TABLE"),
		},
		Notifier: NotifierConfig{
			Variant:   v.GetString("NOTIFIER_VARIANT"),
			FromEmail: v.GetString("FROM_EMAIL"),
			ToEmails:  splitList(v.GetString("TO_EMAILS")),
		},
		Auth: AuthConfig{
			WebhookSecret: v.GetString("WEBHOOK_SECRET"),
		},
		Secrets: SecretsConfig{
			CacheTTLSeconds: v.GetInt("SECRET_CACHE_TTL_SECONDS"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList parses a comma-separated list, trimming whitespace and dropping empties
func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.GCP.ProjectID == "" {
		return fmt.Errorf("GCP_PROJECT is required")
	}

	if c.Warehouse.DatasetID == "" {
		return fmt.Errorf("BIGQUERY_DATASET is required")
	}
	if c.Warehouse.TableID == "" {
		return fmt.Errorf("BIGQUERY_TABLE is required")
	}

	if c.Notifier.Variant != NotifierSendGrid && c.Notifier.Variant != NotifierGmail {
		return fmt.Errorf("NOTIFIER_VARIANT must be %q or %q", NotifierSendGrid, NotifierGmail)
	}
	if c.Notifier.FromEmail == "" {
		return fmt.Errorf("FROM_EMAIL is required")
	}
	if len(c.Notifier.ToEmails) == 0 {
		return fmt.Errorf("TO_EMAILS is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}
