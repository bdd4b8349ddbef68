package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dshills/retoucher/internal/retry"
)

// Config represents the retoucher configuration.
type Config struct {
	APIBase              string  `mapstructure:"api_base" yaml:"api_base" json:"api_base"`
	APIKey               string  `mapstructure:"api_key" yaml:"api_key" json:"api_key"`
	Model                string  `mapstructure:"model" yaml:"model" json:"model"`
	TimeoutMS            int     `mapstructure:"timeout_ms" yaml:"timeout_ms" json:"timeout_ms"`
	TotalTimeoutMS       int     `mapstructure:"total_timeout_ms" yaml:"total_timeout_ms" json:"total_timeout_ms"`
	MaxRetries           int     `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries"`
	ContentMaxRetries    int     `mapstructure:"content_max_retries" yaml:"content_max_retries" json:"content_max_retries"`
	BackoffMS            int     `mapstructure:"backoff_ms" yaml:"backoff_ms" json:"backoff_ms"`
	BackoffJitter        float64 `mapstructure:"backoff_jitter" yaml:"backoff_jitter" json:"backoff_jitter"`
	ContentBackoffMS     int     `mapstructure:"content_backoff_ms" yaml:"content_backoff_ms" json:"content_backoff_ms"`
	ContentBackoffJitter float64 `mapstructure:"content_backoff_jitter" yaml:"content_backoff_jitter" json:"content_backoff_jitter"`
	MaxTokens            int     `mapstructure:"max_tokens" yaml:"max_tokens" json:"max_tokens"`
	LogLevel             string  `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	EnforceLocalAPI      bool    `mapstructure:"enforce_local_api" yaml:"enforce_local_api" json:"enforce_local_api"`
	PromptPath           string  `mapstructure:"prompt_path" yaml:"prompt_path" json:"prompt_path"`
}

// Config keys.
const (
	KeyAPIBase              = "api_base"
	KeyAPIKey               = "api_key"
	KeyModel                = "model"
	KeyTimeoutMS            = "timeout_ms"
	KeyTotalTimeoutMS       = "total_timeout_ms"
	KeyMaxRetries           = "max_retries"
	KeyContentMaxRetries    = "content_max_retries"
	KeyBackoffMS            = "backoff_ms"
	KeyBackoffJitter        = "backoff_jitter"
	KeyContentBackoffMS     = "content_backoff_ms"
	KeyContentBackoffJitter = "content_backoff_jitter"
	KeyMaxTokens            = "max_tokens"
	KeyLogLevel             = "log_level"
	KeyEnforceLocalAPI      = "enforce_local_api"
	KeyPromptPath           = "prompt_path"
)

// envNames maps each key to the environment variable bound to it.
var envNames = map[string]string{
	KeyAPIBase:              "LLM_API_BASE",
	KeyAPIKey:               "LLM_API_KEY",
	KeyModel:                "LLM_MODEL",
	KeyTimeoutMS:            "LLM_TIMEOUT_MS",
	KeyTotalTimeoutMS:       "LLM_TOTAL_TIMEOUT_MS",
	KeyMaxRetries:           "LLM_MAX_RETRIES",
	KeyContentMaxRetries:    "LLM_CONTENT_MAX_RETRIES",
	KeyBackoffMS:            "LLM_BACKOFF_MS",
	KeyBackoffJitter:        "LLM_BACKOFF_JITTER",
	KeyContentBackoffMS:     "LLM_CONTENT_BACKOFF_MS",
	KeyContentBackoffJitter: "LLM_CONTENT_BACKOFF_JITTER",
	KeyMaxTokens:            "LLM_MAX_TOKENS",
	KeyLogLevel:             "LOG_LEVEL",
	KeyEnforceLocalAPI:      "ENFORCE_LOCAL_API",
	KeyPromptPath:           "RETOUCH_PROMPT_PATH",
}

// Keys returns every config key in a stable order.
func Keys() []string {
	return []string{
		KeyAPIBase, KeyAPIKey, KeyModel,
		KeyTimeoutMS, KeyTotalTimeoutMS,
		KeyMaxRetries, KeyContentMaxRetries,
		KeyBackoffMS, KeyBackoffJitter,
		KeyContentBackoffMS, KeyContentBackoffJitter,
		KeyMaxTokens, KeyLogLevel, KeyEnforceLocalAPI, KeyPromptPath,
	}
}

// EnvName returns the environment variable bound to key, or "" if the key
// is unknown.
func EnvName(key string) string {
	return envNames[key]
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		APIBase:              "http://localhost:1234/v1",
		Model:                "open/ai-gpt-oss-20b",
		TimeoutMS:            60000,
		MaxRetries:           1,
		ContentMaxRetries:    1,
		BackoffMS:            250,
		BackoffJitter:        0.2,
		ContentBackoffMS:     250,
		ContentBackoffJitter: 0.2,
		MaxTokens:            600,
		LogLevel:             "info",
	}
}

// FieldError reports a config value that cannot be used.
type FieldError struct {
	Key    string
	Reason string
}

func (e *FieldError) Error() string {
	name := EnvName(e.Key)
	if name == "" {
		name = e.Key
	}
	return fmt.Sprintf("invalid %s: %s", name, e.Reason)
}

// IsConfigError reports whether err was caused by invalid configuration.
func IsConfigError(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe)
}

// ConfigDir returns the platform-appropriate config directory for retoucher.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "retoucher"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "retoucher"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "retoucher"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "retoucher"), nil
	default:
		return filepath.Join(home, ".config", "retoucher"), nil
	}
}

// ConfigPath returns the full path to the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load builds the effective config by merging, lowest first:
// defaults <- .env <- config file <- environment <- overrides.
//
// An empty path means the default config file, which may be absent. An
// explicit path must exist. Override keys are config keys; empty values
// are ignored.
func Load(path string, overrides map[string]string) (Config, error) {
	v := viper.New()
	def := Default()
	for _, key := range Keys() {
		v.SetDefault(key, def.get(key))
	}

	dotenv, err := godotenv.Read()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("reading .env: %w", err)
	}
	for _, key := range Keys() {
		if val, ok := dotenv[envNames[key]]; ok {
			v.SetDefault(key, val)
		}
	}

	if path == "" {
		if p, err := ConfigPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	for _, key := range Keys() {
		if err := v.BindEnv(key, envNames[key]); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	for key, val := range overrides {
		if _, ok := envNames[key]; !ok {
			return Config{}, fmt.Errorf("unknown config key: %s", key)
		}
		if val != "" {
			v.Set(key, val)
		}
	}

	cfg := fromStrings(func(key string) string { return v.GetString(key) })
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fromStrings decodes every key, replacing unusable values with defaults.
func fromStrings(get func(string) string) Config {
	def := Default()
	return Config{
		APIBase:              parseString(get(KeyAPIBase), def.APIBase),
		APIKey:               strings.TrimSpace(get(KeyAPIKey)),
		Model:                parseString(get(KeyModel), def.Model),
		TimeoutMS:            parsePositive(get(KeyTimeoutMS), def.TimeoutMS),
		TotalTimeoutMS:       parseCount(get(KeyTotalTimeoutMS), def.TotalTimeoutMS),
		MaxRetries:           parseCount(get(KeyMaxRetries), def.MaxRetries),
		ContentMaxRetries:    parseCount(get(KeyContentMaxRetries), def.ContentMaxRetries),
		BackoffMS:            parsePositive(get(KeyBackoffMS), def.BackoffMS),
		BackoffJitter:        parseFraction(get(KeyBackoffJitter), def.BackoffJitter),
		ContentBackoffMS:     parsePositive(get(KeyContentBackoffMS), def.ContentBackoffMS),
		ContentBackoffJitter: parseFraction(get(KeyContentBackoffJitter), def.ContentBackoffJitter),
		MaxTokens:            parsePositive(get(KeyMaxTokens), def.MaxTokens),
		LogLevel:             parseLogLevel(get(KeyLogLevel), def.LogLevel),
		EnforceLocalAPI:      parseBool(get(KeyEnforceLocalAPI), def.EnforceLocalAPI),
		PromptPath:           strings.TrimSpace(get(KeyPromptPath)),
	}
}

func parseString(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parsePositive accepts numbers > 0 and floors them.
func parsePositive(s string, def int) int {
	f, ok := parseNumber(s)
	if !ok || f <= 0 || f > math.MaxInt32 {
		return def
	}
	return int(math.Floor(f))
}

// parseCount accepts numbers >= 0 and floors them.
func parseCount(s string, def int) int {
	f, ok := parseNumber(s)
	if !ok || f < 0 || f > math.MaxInt32 {
		return def
	}
	return int(math.Floor(f))
}

func parseFraction(s string, def float64) float64 {
	f, ok := parseNumber(s)
	if !ok {
		return def
	}
	return retry.ClampJitter(f)
}

func parseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func parseLogLevel(s, def string) string {
	switch l := strings.ToLower(strings.TrimSpace(s)); l {
	case "error", "warn", "info", "debug":
		return l
	default:
		return def
	}
}

var localHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// Validate checks the values that have no safe fallback.
func (c Config) Validate() error {
	return AssertLocalBaseURL(c.APIBase, c.EnforceLocalAPI)
}

// AssertLocalBaseURL checks that base is an absolute http(s) URL and, when
// enforce is set, that it points at a loopback host.
func AssertLocalBaseURL(base string, enforce bool) error {
	u, err := url.Parse(base)
	if err != nil {
		return &FieldError{Key: KeyAPIBase, Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &FieldError{Key: KeyAPIBase, Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Hostname() == "" {
		return &FieldError{Key: KeyAPIBase, Reason: "missing host"}
	}
	if enforce && !localHosts[strings.ToLower(u.Hostname())] {
		return &FieldError{Key: KeyAPIBase, Reason: "must be local (localhost, 127.0.0.1, or ::1)"}
	}
	return nil
}

// Timeout is the per-attempt HTTP deadline.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// TotalTimeout is the deadline for a whole retouch call; zero disables it.
func (c Config) TotalTimeout() time.Duration {
	return time.Duration(c.TotalTimeoutMS) * time.Millisecond
}

// Backoff is the transport-tier retry delay policy.
func (c Config) Backoff() retry.Backoff {
	return retry.Backoff{
		Base:   time.Duration(c.BackoffMS) * time.Millisecond,
		Jitter: c.BackoffJitter,
	}
}

// ContentBackoff is the content-tier retry delay policy.
func (c Config) ContentBackoff() retry.Backoff {
	return retry.Backoff{
		Base:   time.Duration(c.ContentBackoffMS) * time.Millisecond,
		Jitter: c.ContentBackoffJitter,
	}
}

// Masked returns a copy safe to print.
func (c Config) Masked() Config {
	if c.APIKey != "" {
		c.APIKey = "********"
	}
	return c
}

func (c Config) get(key string) any {
	switch key {
	case KeyAPIBase:
		return c.APIBase
	case KeyAPIKey:
		return c.APIKey
	case KeyModel:
		return c.Model
	case KeyTimeoutMS:
		return c.TimeoutMS
	case KeyTotalTimeoutMS:
		return c.TotalTimeoutMS
	case KeyMaxRetries:
		return c.MaxRetries
	case KeyContentMaxRetries:
		return c.ContentMaxRetries
	case KeyBackoffMS:
		return c.BackoffMS
	case KeyBackoffJitter:
		return c.BackoffJitter
	case KeyContentBackoffMS:
		return c.ContentBackoffMS
	case KeyContentBackoffJitter:
		return c.ContentBackoffJitter
	case KeyMaxTokens:
		return c.MaxTokens
	case KeyLogLevel:
		return c.LogLevel
	case KeyEnforceLocalAPI:
		return c.EnforceLocalAPI
	case KeyPromptPath:
		return c.PromptPath
	}
	return nil
}

// LoadFile reads a YAML config file without applying env or defaults.
// Returns zero Config and nil error if the file doesn't exist.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// SetField sets a single config field by key name. Unlike Load, it rejects
// values that do not parse.
func SetField(cfg *Config, key, value string) error {
	value = strings.TrimSpace(value)
	intValue := func(min int) (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer: %w", key, err)
		}
		if n < min {
			return 0, fmt.Errorf("%s must be >= %d", key, min)
		}
		return n, nil
	}
	fracValue := func() (float64, error) {
		f, ok := parseNumber(value)
		if !ok || f < 0 || f > 1 {
			return 0, fmt.Errorf("%s must be a number in [0,1]", key)
		}
		return f, nil
	}

	var err error
	switch key {
	case KeyAPIBase:
		if err := AssertLocalBaseURL(value, false); err != nil {
			return err
		}
		cfg.APIBase = value
	case KeyAPIKey:
		cfg.APIKey = value
	case KeyModel:
		cfg.Model = value
	case KeyTimeoutMS:
		cfg.TimeoutMS, err = intValue(1)
	case KeyTotalTimeoutMS:
		cfg.TotalTimeoutMS, err = intValue(0)
	case KeyMaxRetries:
		cfg.MaxRetries, err = intValue(0)
	case KeyContentMaxRetries:
		cfg.ContentMaxRetries, err = intValue(0)
	case KeyBackoffMS:
		cfg.BackoffMS, err = intValue(1)
	case KeyBackoffJitter:
		cfg.BackoffJitter, err = fracValue()
	case KeyContentBackoffMS:
		cfg.ContentBackoffMS, err = intValue(1)
	case KeyContentBackoffJitter:
		cfg.ContentBackoffJitter, err = fracValue()
	case KeyMaxTokens:
		cfg.MaxTokens, err = intValue(1)
	case KeyLogLevel:
		l := parseLogLevel(value, "")
		if l == "" {
			return fmt.Errorf("%s must be one of error, warn, info, debug", key)
		}
		cfg.LogLevel = l
	case KeyEnforceLocalAPI:
		switch strings.ToLower(value) {
		case "1", "true", "yes", "y", "on", "0", "false", "no", "n", "off":
			cfg.EnforceLocalAPI = parseBool(value, false)
		default:
			return fmt.Errorf("%s must be a boolean", key)
		}
	case KeyPromptPath:
		cfg.PromptPath = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return err
}
