package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Attachment store drivers
const (
	DriverDrive = "drive"
	DriverLocal = "local"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port          string `yaml:"port" env:"SERVER_PORT"`
		Mode          string `yaml:"mode" env:"SERVER_MODE"`
		StagePath     string `yaml:"stage_path" env:"SERVER_STAGE_PATH"`
		MaxUploadMB   int64  `yaml:"max_upload_mb" env:"SERVER_MAX_UPLOAD_MB"`
		PublicBaseURL string `yaml:"public_base_url" env:"SERVER_PUBLIC_BASE_URL"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Admin struct {
		Email    string `yaml:"email" env:"ADMIN_EMAIL"`
		Password string `yaml:"password" env:"ADMIN_PASSWORD"`
		Name     string `yaml:"name" env:"ADMIN_NAME"`
	} `yaml:"admin"`

	Attachments struct {
		Driver          string        `yaml:"driver" env:"ATTACHMENTS_DRIVER"`
		CredentialsFile string        `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
		FolderID        string        `yaml:"folder_id" env:"ATTACHMENTS_FOLDER_ID"`
		LocalPath       string        `yaml:"local_path" env:"ATTACHMENTS_LOCAL_PATH"`
		RequestTimeout  time.Duration `yaml:"request_timeout" env:"ATTACHMENTS_REQUEST_TIMEOUT"`
	} `yaml:"attachments"`

	Reconciler struct {
		Enabled     bool          `yaml:"enabled" env:"RECONCILER_ENABLED"`
		Schedule    string        `yaml:"schedule" env:"RECONCILER_SCHEDULE"`
		BatchSize   int           `yaml:"batch_size" env:"RECONCILER_BATCH_SIZE"`
		MaxAttempts int           `yaml:"max_attempts" env:"RECONCILER_MAX_ATTEMPTS"`
		RunTimeout  time.Duration `yaml:"run_timeout" env:"RECONCILER_RUN_TIMEOUT"`
	} `yaml:"reconciler"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// A missing file is fine: defaults plus environment are enough to run
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.StagePath = "./tmp/stage"
	config.Server.MaxUploadMB = 25
	config.Server.PublicBaseURL = "http://localhost:8080"

	// Database defaults
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "deptcms"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	// JWT defaults
	config.JWT.AccessTokenExpiration = "12h"
	config.JWT.Issuer = "deptcms"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Admin defaults
	config.Admin.Name = "Administrator"

	// Attachment defaults
	config.Attachments.Driver = DriverLocal
	config.Attachments.LocalPath = "./data/objects"
	config.Attachments.RequestTimeout = 60 * time.Second

	// Reconciler defaults
	config.Reconciler.Enabled = true
	config.Reconciler.Schedule = "*/15 * * * *"
	config.Reconciler.BatchSize = 50
	config.Reconciler.MaxAttempts = 10
	config.Reconciler.RunTimeout = 5 * time.Minute
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid database connection lifetime format: %w", err)
	}

	if config.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server max upload size must be positive")
	}

	switch strings.ToLower(config.Attachments.Driver) {
	case DriverDrive:
		if config.Attachments.CredentialsFile == "" {
			return fmt.Errorf("attachments credentials file is required for the drive driver")
		}
		if config.Attachments.FolderID == "" {
			return fmt.Errorf("attachments folder id is required for the drive driver")
		}
	case DriverLocal:
		if config.Attachments.LocalPath == "" {
			return fmt.Errorf("attachments local path is required for the local driver")
		}
	default:
		return fmt.Errorf("unknown attachments driver %q", config.Attachments.Driver)
	}

	if config.Reconciler.Enabled && config.Reconciler.Schedule == "" {
		return fmt.Errorf("reconciler schedule is required when the reconciler is enabled")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}

// ConnMaxLifetime returns the parsed database connection lifetime
func (c *Config) ConnMaxLifetime() time.Duration {
	d, err := time.ParseDuration(c.Database.ConnMaxLifetime)
	if err != nil {
		return time.Hour
	}
	return d
}

// AccessTokenTTL returns the parsed JWT lifetime
func (c *Config) AccessTokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWT.AccessTokenExpiration)
	if err != nil {
		return 12 * time.Hour
	}
	return d
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
