package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/s0up4200/parsekit/parse"
)

// envBindings maps config keys to the environment variables that override them
var envBindings = map[string]string{
	"server.url":             "PARSE_SERVER_URL",
	"server.app_id":          "PARSE_APP_ID",
	"server.master_key":      "PARSE_MASTER_KEY",
	"server.javascript_key":  "PARSE_JAVASCRIPT_KEY",
	"server.rest_api_key":    "PARSE_REST_API_KEY",
	"server.session_token":   "PARSE_SESSION_TOKEN",
	"server.installation_id": "PARSE_INSTALLATION_ID",
	"logging.level":          "PARSE_LOG_LEVEL",
}

// Load loads the configuration from file and environment. Without an explicit
// path a missing config file is not an error; the environment alone may be
// enough.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".parsekit"))
		}

		v.AddConfigPath("/etc/parsekit/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.url", "http://localhost:1337")
	v.SetDefault("server.mount_path", "parse")
	v.SetDefault("server.timeout", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s: %w", env, err)
		}
	}
	return nil
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	return validation.Errors{
		"server": validation.ValidateStruct(&cfg.Server,
			validation.Field(&cfg.Server.URL, validation.Required),
			validation.Field(&cfg.Server.AppID, validation.Required),
			validation.Field(&cfg.Server.Timeout, validation.Min(time.Duration(0))),
		),
		"logging": validation.ValidateStruct(&cfg.Logging,
			validation.Field(&cfg.Logging.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
			validation.Field(&cfg.Logging.Format, validation.Required, validation.In("console", "json")),
		),
		"filters": validateFilters(cfg.Filters),
	}.Filter()
}

func validateFilters(filters map[string]string) error {
	errs := validation.Errors{}
	for name, expr := range filters {
		if strings.TrimSpace(expr) == "" {
			errs[name] = errors.New("expression cannot be blank")
		}
	}
	return errs.Filter()
}

// ClientOptions converts the server settings into client options
func (s ServerConfig) ClientOptions() []parse.Option {
	var opts []parse.Option
	if s.MasterKey != "" {
		opts = append(opts, parse.WithMasterKey(s.MasterKey))
	}
	if s.JavaScriptKey != "" {
		opts = append(opts, parse.WithJavaScriptKey(s.JavaScriptKey))
	}
	if s.RESTAPIKey != "" {
		opts = append(opts, parse.WithRESTAPIKey(s.RESTAPIKey))
	}
	if s.SessionToken != "" {
		opts = append(opts, parse.WithSessionToken(s.SessionToken))
	}
	if s.InstallationID != "" {
		opts = append(opts, parse.WithInstallationID(s.InstallationID))
	}
	if s.MountPath != "" {
		opts = append(opts, parse.WithMountPath(s.MountPath))
	}
	if s.Timeout > 0 {
		opts = append(opts, parse.WithTimeout(s.Timeout))
	}
	return opts
}
