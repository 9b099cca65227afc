package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. GDV_SERVER_PORT
const EnvPrefix = "GDV"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Resolver  ResolverConfig  `yaml:"resolver" envconfig:"RESOLVER"`
	Animation AnimationConfig `yaml:"animation" envconfig:"ANIMATION"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// ReloadKey guards POST /api/data/reload when set
	ReloadKey string `yaml:"reload_key" envconfig:"RELOAD_KEY"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/gdv.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// SourcesConfig locates the five indicator tables and the country metadata.
// A locator is either an http(s) URL or a path relative to DataDir.
type SourcesConfig struct {
	DataDir        string        `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	GDP            string        `yaml:"gdp" envconfig:"GDP" default:"gdp.csv"`
	IneqComb       string        `yaml:"ineq_comb" envconfig:"INEQ_COMB" default:"inequality.csv"`
	IneqEdu        string        `yaml:"ineq_edu" envconfig:"INEQ_EDU" default:"inequality_education.csv"`
	IneqInc        string        `yaml:"ineq_inc" envconfig:"INEQ_INC" default:"inequality_income.csv"`
	IneqLife       string        `yaml:"ineq_life" envconfig:"INEQ_LIFE" default:"inequality_life_expectancy.csv"`
	Countries      string        `yaml:"countries" envconfig:"COUNTRIES" default:"countries-unescaped.json"`
	HTTPTimeout    time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT" default:"30s"`
	ReloadInterval time.Duration `yaml:"reload_interval" envconfig:"RELOAD_INTERVAL" default:"0s"`
}

// TableLocators returns the locator of every indicator table keyed by resource id
func (s SourcesConfig) TableLocators() map[string]string {
	return map[string]string{
		"gdp":       s.GDP,
		"ineq_comb": s.IneqComb,
		"ineq_edu":  s.IneqEdu,
		"ineq_inc":  s.IneqInc,
		"ineq_life": s.IneqLife,
	}
}

// ResolverConfig carries extra alternate names per country code. The map is
// only read from YAML; nil means the built-in override table.
type ResolverConfig struct {
	Overrides map[string][]string `yaml:"overrides" ignored:"true"`
}

// AnimationConfig controls the year-cycling snapshot feed
type AnimationConfig struct {
	Enabled   bool          `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	Interval  time.Duration `yaml:"interval" envconfig:"INTERVAL" default:"1s"`
	Indicator string        `yaml:"indicator" envconfig:"INDICATOR" default:"ineqComb"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// StorageConfig configures the optional Postgres mirror of the dataset
type StorageConfig struct {
	DatabaseURL string `yaml:"database_url" envconfig:"DATABASE_URL"`
	MaxConns    int32  `yaml:"max_conns" envconfig:"MAX_CONNS" default:"4"`
	MinConns    int32  `yaml:"min_conns" envconfig:"MIN_CONNS" default:"0"`
}

// Enabled reports whether a database is configured
func (s StorageConfig) Enabled() bool {
	return s.DatabaseURL != ""
}

// TelemetryConfig selects trace and metric exporters
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"gdv"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED" default:"true"`
	SampleRate     float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE" default:"1.0"`
}

// Load loads configuration from .env, environment variables and an optional
// YAML file. Environment values win over the file.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg, envKeysSet())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv reads .env from the working directory when present.
// Variables already set in the process environment are not overwritten.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKeysSet collects the GDV_* variable names present in the environment
func envKeysSet() map[string]bool {
	set := make(map[string]bool)
	for _, kv := range os.Environ() {
		key, _, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(key, EnvPrefix+"_") {
			set[key] = true
		}
	}
	return set
}

// mergeConfigs overlays file values on top of env-with-defaults, except where
// the variable was explicitly set in the environment
func mergeConfigs(fileConfig, envConfig Config, envSet map[string]bool) Config {
	pick := func(key string, fileNonZero bool) bool {
		return fileNonZero && !envSet[EnvPrefix+"_"+key]
	}

	// Server
	if pick("SERVER_PORT", fileConfig.Server.Port != 0) {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if pick("SERVER_READ_TIMEOUT", fileConfig.Server.ReadTimeout != 0) {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if pick("SERVER_WRITE_TIMEOUT", fileConfig.Server.WriteTimeout != 0) {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if pick("SERVER_REQUEST_TIMEOUT", fileConfig.Server.RequestTimeout != 0) {
		envConfig.Server.RequestTimeout = fileConfig.Server.RequestTimeout
	}

	// Security
	if pick("SECURITY_ALLOWED_ORIGINS", len(fileConfig.Security.AllowedOrigins) > 0) {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if pick("SECURITY_RELOAD_KEY", fileConfig.Security.ReloadKey != "") {
		envConfig.Security.ReloadKey = fileConfig.Security.ReloadKey
	}

	// Logging
	if pick("LOGGING_LEVEL", fileConfig.Logging.Level != "") {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if pick("LOGGING_FORMAT", fileConfig.Logging.Format != "") {
		envConfig.Logging.Format = fileConfig.Logging.Format
	}
	if pick("LOGGING_OUTPUT", fileConfig.Logging.Output != "") {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if pick("LOGGING_FILE_PATH", fileConfig.Logging.FilePath != "") {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}

	// Sources
	src, fsrc := &envConfig.Sources, fileConfig.Sources
	for key, pair := range map[string]struct {
		dst *string
		val string
	}{
		"SOURCES_DATA_DIR":  {&src.DataDir, fsrc.DataDir},
		"SOURCES_GDP":       {&src.GDP, fsrc.GDP},
		"SOURCES_INEQ_COMB": {&src.IneqComb, fsrc.IneqComb},
		"SOURCES_INEQ_EDU":  {&src.IneqEdu, fsrc.IneqEdu},
		"SOURCES_INEQ_INC":  {&src.IneqInc, fsrc.IneqInc},
		"SOURCES_INEQ_LIFE": {&src.IneqLife, fsrc.IneqLife},
		"SOURCES_COUNTRIES": {&src.Countries, fsrc.Countries},
	} {
		if pick(key, pair.val != "") {
			*pair.dst = pair.val
		}
	}
	if pick("SOURCES_HTTP_TIMEOUT", fsrc.HTTPTimeout != 0) {
		src.HTTPTimeout = fsrc.HTTPTimeout
	}
	if pick("SOURCES_RELOAD_INTERVAL", fsrc.ReloadInterval != 0) {
		src.ReloadInterval = fsrc.ReloadInterval
	}

	// Resolver overrides only come from the file
	envConfig.Resolver.Overrides = fileConfig.Resolver.Overrides

	// Animation
	if pick("ANIMATION_INTERVAL", fileConfig.Animation.Interval != 0) {
		envConfig.Animation.Interval = fileConfig.Animation.Interval
	}
	if pick("ANIMATION_INDICATOR", fileConfig.Animation.Indicator != "") {
		envConfig.Animation.Indicator = fileConfig.Animation.Indicator
	}

	// Storage
	if pick("STORAGE_DATABASE_URL", fileConfig.Storage.DatabaseURL != "") {
		envConfig.Storage.DatabaseURL = fileConfig.Storage.DatabaseURL
	}

	// Telemetry
	if pick("TELEMETRY_TRACE_EXPORTER", fileConfig.Telemetry.TraceExporter != "") {
		envConfig.Telemetry.TraceExporter = fileConfig.Telemetry.TraceExporter
	}

	return envConfig
}

// Validate validates the configuration and normalizes enumerated values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format %q: want json or text", c.Logging.Format)
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid log output %q: want console, file or both", c.Logging.Output)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	for id, locator := range c.Sources.TableLocators() {
		if strings.TrimSpace(locator) == "" {
			return fmt.Errorf("source locator for %s must not be empty", id)
		}
	}
	if strings.TrimSpace(c.Sources.Countries) == "" {
		return fmt.Errorf("country metadata locator must not be empty")
	}

	if c.Sources.HTTPTimeout <= 0 {
		return fmt.Errorf("sources http timeout must be positive")
	}

	if c.Sources.ReloadInterval < 0 {
		return fmt.Errorf("reload interval must not be negative")
	}

	if c.Animation.Enabled && c.Animation.Interval <= 0 {
		return fmt.Errorf("animation interval must be positive")
	}

	for code, names := range c.Resolver.Overrides {
		if len(code) != 3 {
			return fmt.Errorf("resolver override code %q must have 3 letters", code)
		}
		for _, name := range names {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("resolver override for %s contains an empty name", code)
			}
		}
	}

	switch c.Telemetry.TraceExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("invalid trace exporter %q: want none or stdout", c.Telemetry.TraceExporter)
	}

	if c.Storage.MinConns > c.Storage.MaxConns {
		return fmt.Errorf("storage min_conns %d exceeds max_conns %d", c.Storage.MinConns, c.Storage.MaxConns)
	}

	return nil
}

// ResolveLocator joins a relative file locator with the data directory.
// URLs and absolute paths are returned unchanged.
func (s SourcesConfig) ResolveLocator(locator string) string {
	if IsRemoteLocator(locator) || filepath.IsAbs(locator) || s.DataDir == "" {
		return locator
	}
	return filepath.Join(s.DataDir, locator)
}

// IsRemoteLocator reports whether the locator uses an http(s) scheme
func IsRemoteLocator(locator string) bool {
	l := strings.ToLower(locator)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Sources: SourcesConfig{
			DataDir:     DefaultDataDir,
			GDP:         "gdp.csv",
			IneqComb:    "inequality.csv",
			IneqEdu:     "inequality_education.csv",
			IneqInc:     "inequality_income.csv",
			IneqLife:    "inequality_life_expectancy.csv",
			Countries:   "countries-unescaped.json",
			HTTPTimeout: DefaultHTTPTimeout,
		},
		Animation: AnimationConfig{
			Enabled:   true,
			Interval:  DefaultFrameInterval,
			Indicator: DefaultFrameIndicator,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  WebSocketReadBufferSize,
			WriteBufferSize: WebSocketWriteBufferSize,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
		Storage: StorageConfig{
			MaxConns: 4,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TraceExporter:  "none",
			MetricsEnabled: true,
			SampleRate:     1.0,
		},
	}
}
