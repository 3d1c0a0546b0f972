package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log       LoggingConfig   `koanf:"log"`
	API       APIConfig       `koanf:"api"`
	Logs      LogsConfig      `koanf:"logs"`
	Prefs     PrefsConfig     `koanf:"prefs"`
	Changelog ChangelogConfig `koanf:"changelog"`
	Auth      AuthConfig      `koanf:"auth"`
}

// LoggingConfig controls log verbosity: "debug", "info", "warn", or "error".
type LoggingConfig struct {
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

// APIConfig locates the DNS service.
type APIConfig struct {
	// Location plays the role of the page location the dashboard was served from.
	Location string `koanf:"location" validate:"required,page_url"`
	// Port overrides the port of Location when non-zero.
	Port int `koanf:"port" validate:"gte=0,lt=65536"`
	// Timeout bounds a single request when the caller sets no deadline.
	Timeout time.Duration `koanf:"timeout" validate:"required,min=1ms"`
}

// LogsConfig sizes the query log view.
type LogsConfig struct {
	PageSize int `koanf:"page_size" validate:"required,gte=1,lte=1000"`
}

// PrefsConfig points at the local preference database.
type PrefsConfig struct {
	DB string `koanf:"db" validate:"required"`
}

// ChangelogConfig configures the decorative release check.
type ChangelogConfig struct {
	URL string        `koanf:"url" validate:"omitempty,url"`
	TTL time.Duration `koanf:"ttl" validate:"required,min=1s"`
}

// AuthConfig carries optional login credentials for non-interactive use.
type AuthConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// DEFAULT_APP_CONFIG defines the defaults applied before environment overrides.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:       "prod",
	Log:       LoggingConfig{Level: "info"},
	API:       APIConfig{Location: "http://localhost:8080/", Port: 0, Timeout: 10 * time.Second},
	Logs:      LogsConfig{PageSize: 50},
	Prefs:     PrefsConfig{DB: defaultPrefsPath()},
	Changelog: ChangelogConfig{URL: "https://rr-dns.dev/releases/latest.json", TTL: 6 * time.Hour},
}

// envKeys maps the flattened environment names (after prefix removal) to
// nested koanf paths.
var envKeys = map[string]string{
	"env":           "env",
	"log_level":     "log.level",
	"location":      "api.location",
	"port":          "api.port",
	"timeout":       "api.timeout",
	"page_size":     "logs.page_size",
	"prefs_db":      "prefs.db",
	"changelog_url": "changelog.url",
	"changelog_ttl": "changelog.ttl",
	"username":      "auth.username",
	"password":      "auth.password",
}

func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "rr-dash-prefs.db"
	}
	return filepath.Join(dir, "rr-dash", "prefs.db")
}

// validPageURL accepts absolute http or https URLs with a host.
func validPageURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Hostname() != ""
}

// envLoader loads environment variables with the prefix "DASH_" and maps
// them onto the nested configuration keys. It can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DASH_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DASH_"))
			if key == "config_file" {
				return "", nil
			}
			if mapped, ok := envKeys[key]; ok {
				key = mapped
			}
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG into the provided Koanf instance.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "page_url" validation.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("page_url", validPageURL)
}

// Load parses the optional config file and environment variables and returns
// an AppConfig instance. It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if path := configFile(); path != "" {
		if err := fileLoader(k, path); err != nil {
			return nil, fmt.Errorf("error loading config file %s: %w", path, err)
		}
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
