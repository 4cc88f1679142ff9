// Package config loads service configuration from a YAML file with
// environment-variable overrides.
//
// Precedence: defaults, then YAML file, then environment variables with the
// CAREERFLOW_ prefix (e.g. CAREERFLOW_LLM_API_KEY).
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" env:"SERVER"`
	LLM        LLMConfig        `yaml:"llm" env:"LLM"`
	Checkpoint CheckpointConfig `yaml:"checkpoint" env:"CHECKPOINT"`
	Pipeline   PipelineConfig   `yaml:"pipeline" env:"PIPELINE"`
	Log        LogConfig        `yaml:"log" env:"LOG"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" env:"TELEMETRY"`
	Metrics    MetricsConfig    `yaml:"metrics" env:"METRICS"`
}

type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port" env:"HTTP_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// RateLimitRPS caps requests per second per client IP; 0 disables the
	// limiter.
	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// CORSAllowedOrigins lists origins allowed to call the API. Empty means
	// cross-origin requests are refused.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
}

type LLMConfig struct {
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Model   string        `yaml:"model" env:"MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// Requests per minute allowed against the provider; 0 disables the
	// local limiter.
	RPMLimit int `yaml:"rpm_limit" env:"RPM_LIMIT"`
}

// CheckpointConfig selects and configures the run persistence backend.
type CheckpointConfig struct {
	// Backend: memory, redis, or sqlite.
	Backend string `yaml:"backend" env:"BACKEND"`

	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// SQLiteDSN is the database path for the sqlite backend.
	SQLiteDSN string `yaml:"sqlite_dsn" env:"SQLITE_DSN"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr" env:"ADDR"`
	Password  string        `yaml:"password" env:"PASSWORD"`
	DB        int           `yaml:"db" env:"DB"`
	KeyPrefix string        `yaml:"key_prefix" env:"KEY_PREFIX"`
	TTL       time.Duration `yaml:"ttl" env:"TTL"`
}

type PipelineConfig struct {
	QuestionQuota int `yaml:"question_quota" env:"QUESTION_QUOTA"`
	CVTokenBudget int `yaml:"cv_token_budget" env:"CV_TOKEN_BUDGET"`
	// MaxFeedbackRounds caps regeneration rounds per checkpoint at the API
	// layer; 0 means unlimited.
	MaxFeedbackRounds int `yaml:"max_feedback_rounds" env:"MAX_FEEDBACK_ROUNDS"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"FORMAT"` // json, console
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// Loader loads configuration with the builder pattern.
type Loader struct {
	configPath string
	envPrefix  string
}

func NewLoader() *Loader {
	return &Loader{envPrefix: "CAREERFLOW"}
}

func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load resolves the configuration: defaults, optional YAML file, env
// overrides, then validation.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("set %s: %w", envKey, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			field.Set(reflect.ValueOf(out))
		}
	}
	return nil
}

// MustLoad loads configuration from path, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate checks the configuration for obviously invalid values.
func (c *Config) Validate() error {
	var errs []string
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	switch c.Checkpoint.Backend {
	case "memory", "redis", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("unknown checkpoint backend %q", c.Checkpoint.Backend))
	}
	if c.Pipeline.QuestionQuota < 0 {
		errs = append(errs, "question_quota must not be negative")
	}
	if c.Pipeline.MaxFeedbackRounds < 0 {
		errs = append(errs, "max_feedback_rounds must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
