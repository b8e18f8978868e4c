// Package config loads medenv settings from the environment and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every setting of the medenv binaries.
type Config struct {
	// Copernicus Marine access.
	Username     string
	Password     string
	HostPrefix   string
	DatasetURL   string
	NumRetries   int
	AuthURL      string
	AuthClientID string
	SkipLogin    bool

	// Local data sources.
	ETOPOPath string
	WOADir    string

	// Server and logging.
	Port               string
	LogLevel           string
	LogConsole         bool
	CORSAllowedOrigins []string
}

type option struct {
	key        string
	env        string
	defaultVal interface{}
	usage      string
}

// options lists every setting with its environment variable. Keys double as flag names.
var options = []option{
	{"username", "CMEMS_USERNAME", "", "Copernicus Marine username"},
	{"password", "CMEMS_PASSWORD", "", "Copernicus Marine password"},
	{"host-prefix", "MEDENV_HOST_PREFIX", "my", "CMEMS server prefix (my: multi-year, nrt: near real time)"},
	{"dataset-url", "MEDENV_DATASET_URL", "", "dataset URL template with {prefix} and {dataset} placeholders"},
	{"num-retries", "MEDENV_NUM_RETRIES", 10, "maximum number of attempts to open a dataset"},
	{"auth-url", "MEDENV_AUTH_URL", "", "OAuth2 token endpoint of Copernicus Marine"},
	{"auth-client-id", "MEDENV_AUTH_CLIENT_ID", "toolbox", "OAuth2 client id"},
	{"skip-login", "MEDENV_SKIP_LOGIN", false, "do not log in before opening datasets (local OPeNDAP mirrors)"},
	{"etopo", "ETOPO_PATH", "", "path to the ETOPO NetCDF grid"},
	{"woa-dir", "WOA_DIR", "", "directory holding the WOA18 NetCDF files"},
	{"port", "PORT", "8080", "HTTP server port"},
	{"log-level", "LOG_LEVEL", "info", "log level (debug, info, warn, error)"},
	{"log-console", "LOG_CONSOLE", false, "human-readable logs instead of JSON"},
	{"cors-allowed-origins", "CORS_ALLOWED_ORIGINS", "", "comma-separated list of allowed origins (default: all origins)"},
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	for _, o := range options {
		v.SetDefault(o.key, o.defaultVal)
		_ = v.BindEnv(o.key, o.env)
	}
	return v
}

// AddFlags registers the named settings as flags of fs and binds them to v.
// Flags take precedence over the environment when set.
func AddFlags(v *viper.Viper, fs *pflag.FlagSet, keys ...string) error {
	for _, key := range keys {
		o, ok := lookup(key)
		if !ok {
			return fmt.Errorf("unknown setting %q", key)
		}
		usage := fmt.Sprintf("%s (env %s)", o.usage, o.env)
		switch d := o.defaultVal.(type) {
		case string:
			fs.String(o.key, d, usage)
		case int:
			fs.Int(o.key, d, usage)
		case bool:
			fs.Bool(o.key, d, usage)
		default:
			return fmt.Errorf("invalid default for %s: %T", o.key, d)
		}
		if err := v.BindPFlag(o.key, fs.Lookup(o.key)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", o.key, err)
		}
	}
	return nil
}

func lookup(key string) (option, bool) {
	for _, o := range options {
		if o.key == key {
			return o, true
		}
	}
	return option{}, false
}

// Load reads the settings from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Username:     v.GetString("username"),
		Password:     v.GetString("password"),
		HostPrefix:   v.GetString("host-prefix"),
		DatasetURL:   v.GetString("dataset-url"),
		NumRetries:   v.GetInt("num-retries"),
		AuthURL:      v.GetString("auth-url"),
		AuthClientID: v.GetString("auth-client-id"),
		SkipLogin:    v.GetBool("skip-login"),
		ETOPOPath:    v.GetString("etopo"),
		WOADir:       v.GetString("woa-dir"),
		Port:         v.GetString("port"),
		LogLevel:     v.GetString("log-level"),
		LogConsole:   v.GetBool("log-console"),
	}
	if origins := v.GetString("cors-allowed-origins"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if cfg.NumRetries < 1 {
		return cfg, fmt.Errorf("num-retries must be at least 1, got %d", cfg.NumRetries)
	}
	if cfg.HostPrefix == "" {
		return cfg, fmt.Errorf("host-prefix must not be empty")
	}
	if cfg.DatasetURL != "" && !strings.Contains(cfg.DatasetURL, "{dataset}") {
		return cfg, fmt.Errorf("dataset-url %q has no {dataset} placeholder", cfg.DatasetURL)
	}
	return cfg, nil
}
