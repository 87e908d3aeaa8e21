// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"meal-sync/internal/models"
)

const (
	defaultEnvFile       = ".env"
	defaultVikingBaseURL = "https://panel.kuchniavikinga.pl/api"
	defaultFitatuBaseURL = "https://pl-pl.fitatu.com/api"
	defaultFitatuAPIKey  = "FITATU-MOBILE-APP"
	defaultHTTPTimeout   = 30 * time.Second
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Viking   VikingConfig
	Fitatu   FitatuConfig
	HTTP     HTTPConfig
	Sync     SyncConfig
	LogLevel string
}

// VikingConfig holds the vendor session used to read the order.
type VikingConfig struct {
	BaseURL string
	Cookie  string
	OrderID string
}

// FitatuConfig holds the tracker credentials.
type FitatuConfig struct {
	BaseURL       string
	APIKey        string
	APISecret     string
	Authorization string
	UserID        string
}

// HTTPConfig bounds outbound requests.
type HTTPConfig struct {
	Timeout time.Duration
}

// SyncConfig selects what gets synchronised.
type SyncConfig struct {
	TargetDates     []string
	TargetDateRange *DateRange
	MealMapping     models.MealMapping
}

// Dates expands the configured date selection.
func (c SyncConfig) Dates() ([]string, error) {
	return SelectDates(c.TargetDates, c.TargetDateRange)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path. An empty path disables the file.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, the .env file, the process
// environment and any explicit map, in increasing order of precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		value, ok := dotEnvValues[key]
		return value, ok
	}

	timeout, timeoutOK := durationWithDefault(lookup, "HTTP_TIMEOUT", defaultHTTPTimeout)

	cfg := Config{
		Viking: VikingConfig{
			BaseURL: stringWithDefault(lookup, "VIKING_BASE_URL", defaultVikingBaseURL),
			Cookie:  stringWithDefault(lookup, "VIKING_COOKIE", ""),
			OrderID: stringWithDefault(lookup, "VIKING_ORDER_ID", ""),
		},
		Fitatu: FitatuConfig{
			BaseURL:       stringWithDefault(lookup, "FITATU_BASE_URL", defaultFitatuBaseURL),
			APIKey:        stringWithDefault(lookup, "FITATU_API_KEY", defaultFitatuAPIKey),
			APISecret:     stringWithDefault(lookup, "FITATU_API_SECRET", ""),
			Authorization: stringWithDefault(lookup, "FITATU_AUTHORIZATION", ""),
			UserID:        stringWithDefault(lookup, "FITATU_USER_ID", ""),
		},
		HTTP: HTTPConfig{
			Timeout: timeout,
		},
		Sync: SyncConfig{
			TargetDates: csvWithDefault(lookup, "TARGET_DATES"),
		},
		LogLevel: stringWithDefault(lookup, "LOG_LEVEL", ""),
	}

	var invalid []string

	if !timeoutOK {
		invalid = append(invalid, "HTTP.Timeout")
	}

	if raw, ok := lookup("TARGET_DATE_RANGE"); ok && strings.TrimSpace(raw) != "" {
		dateRange, err := ParseDateRange(raw)
		if err != nil {
			invalid = append(invalid, "Sync.TargetDateRange")
		} else {
			cfg.Sync.TargetDateRange = &dateRange
		}
	}

	labels := models.DefaultMealLabels
	if raw, ok := lookup("MEAL_MAPPING"); ok && strings.TrimSpace(raw) != "" {
		labels = parseMapping(raw)
	}
	mapping, err := models.NewMealMapping(labels)
	if err != nil || mapping.Len() == 0 {
		invalid = append(invalid, "Sync.MealMapping")
	}
	cfg.Sync.MealMapping = mapping

	if err := validateConfig(cfg, invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config, invalid []string) error {
	var missing []string

	if strings.TrimSpace(cfg.Viking.Cookie) == "" {
		missing = append(missing, "Viking.Cookie")
	}
	if strings.TrimSpace(cfg.Viking.OrderID) == "" {
		missing = append(missing, "Viking.OrderID")
	}
	if strings.TrimSpace(cfg.Fitatu.APISecret) == "" {
		missing = append(missing, "Fitatu.APISecret")
	}
	if strings.TrimSpace(cfg.Fitatu.Authorization) == "" {
		missing = append(missing, "Fitatu.Authorization")
	}
	if strings.TrimSpace(cfg.Fitatu.UserID) == "" {
		missing = append(missing, "Fitatu.UserID")
	}
	if cfg.HTTP.Timeout <= 0 {
		missing = append(missing, "HTTP.Timeout")
	}
	missing = append(missing, invalid...)

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// durationWithDefault returns fallback for an unset key and reports false when
// the value is not a positive duration.
func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) (time.Duration, bool) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, true
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback, false
	}
	return d, true
}

func csvWithDefault(lookup func(string) (string, bool), key string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseMapping parses "label=slot,label=slot". Entries without "=" are ignored.
func parseMapping(raw string) map[string]string {
	values := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		label := strings.TrimSpace(parts[0])
		slot := strings.TrimSpace(parts[1])
		if label == "" {
			continue
		}
		values[label] = slot
	}
	return values
}
