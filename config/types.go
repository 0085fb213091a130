package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Server  ServerConfig      `mapstructure:"server"`
	Logging LoggingConfig     `mapstructure:"logging"`
	Filters map[string]string `mapstructure:"filters"`
}

// ServerConfig holds Parse Server connection details and credentials
type ServerConfig struct {
	URL            string        `mapstructure:"url"`
	AppID          string        `mapstructure:"app_id"`
	MasterKey      string        `mapstructure:"master_key"`
	JavaScriptKey  string        `mapstructure:"javascript_key"`
	RESTAPIKey     string        `mapstructure:"rest_api_key"`
	SessionToken   string        `mapstructure:"session_token"`
	InstallationID string        `mapstructure:"installation_id"`
	MountPath      string        `mapstructure:"mount_path"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// Color forces colored console output; unset means detect a terminal
	Color *bool `mapstructure:"color"`
}
