package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Scoring       ScoringConfig       `yaml:"scoring"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn" validate:"required"`
}

// NATSConfig holds NATS configuration. An empty URL keeps events in process.
type NATSConfig struct {
	URL          string        `yaml:"url" validate:"omitempty,url"`
	CloseTimeout time.Duration `yaml:"close_timeout"`
}

// HTTPConfig holds the API server configuration.
type HTTPConfig struct {
	Addr              string        `yaml:"addr" validate:"required"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	UploadLimitBytes  int64         `yaml:"upload_limit_bytes" validate:"gt=0"`
	SubmitsPerMinute  float64       `yaml:"submits_per_minute" validate:"gt=0"`
	SubmitBurst       int           `yaml:"submit_burst" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret" validate:"required,min=16"`
	Issuer     string        `yaml:"issuer"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// ScoringConfig selects the metric submissions are scored with.
type ScoringConfig struct {
	Metric string `yaml:"metric" validate:"oneof=rmse mae accuracy"`
}

// ObservabilityConfig holds logging configuration.
type ObservabilityConfig struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string `yaml:"log_format" validate:"oneof=json text"`
}

// LoadConfig loads the configuration from a YAML file. When the file does not
// exist the configuration comes from the environment alone. Environment
// variables always override file values.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) || filename == "":
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and enumerations.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.UploadLimitBytes == 0 {
		c.HTTP.UploadLimitBytes = 16 << 20
	}
	if c.HTTP.SubmitsPerMinute == 0 {
		c.HTTP.SubmitsPerMinute = 10
	}
	if c.HTTP.SubmitBurst == 0 {
		c.HTTP.SubmitBurst = 5
	}
	if c.HTTP.ReadHeaderTimeout == 0 {
		c.HTTP.ReadHeaderTimeout = 10 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 15 * time.Second
	}
	if c.NATS.CloseTimeout == 0 {
		c.NATS.CloseTimeout = 30 * time.Second
	}
	if c.JWT.DefaultTTL == 0 {
		c.JWT.DefaultTTL = 24 * time.Hour
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "predict-it"
	}
	if c.Scoring.Metric == "" {
		c.Scoring.Metric = "rmse"
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.LogFormat == "" {
		c.Observability.LogFormat = "json"
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "development"
	}
}

// --- OVERRIDE WITH ENV VARS IF PRESENT ---
func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("DATABASE_URL", &cfg.Postgres.DSN)
	setString("NATS_URL", &cfg.NATS.URL)
	setString("HTTP_ADDR", &cfg.HTTP.Addr)
	setString("JWT_SECRET", &cfg.JWT.Secret)
	setString("JWT_ISSUER", &cfg.JWT.Issuer)
	setString("SCORING_METRIC", &cfg.Scoring.Metric)
	setString("LOG_LEVEL", &cfg.Observability.LogLevel)
	setString("LOG_FORMAT", &cfg.Observability.LogFormat)
	setString("ENV", &cfg.Observability.Environment)

	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.HTTP.AllowedOrigins = append(cfg.HTTP.AllowedOrigins, origin)
			}
		}
	}
	if v := os.Getenv("UPLOAD_LIMIT_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid UPLOAD_LIMIT_BYTES value: %v", err)
		}
		cfg.HTTP.UploadLimitBytes = n
	}
	if v := os.Getenv("SUBMITS_PER_MINUTE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid SUBMITS_PER_MINUTE value: %v", err)
		}
		cfg.HTTP.SubmitsPerMinute = f
	}
	if v := os.Getenv("JWT_DEFAULT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_DEFAULT_TTL value: %v", err)
		}
		cfg.JWT.DefaultTTL = d
	}
	return nil
}
