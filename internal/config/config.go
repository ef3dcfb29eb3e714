package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	// AdminToken guards the administrative cleanup endpoint.
	AdminToken string `mapstructure:"admin_token" yaml:"admin_token"`

	// CallRetention bounds how long call sessions may live before the
	// cleanup sweep removes them.
	CallRetention time.Duration `mapstructure:"call_retention" yaml:"call_retention"`
	// CleanupInterval is how often the in-process scheduler runs the sweep.
	// Zero disables scheduling; the CLI and admin endpoint still work.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "apptwo.db",
		LogLevel:          "info",
		JWTIssuer:         "apptwo",
		JWTAudience:       "apptwo-clients",
		CallRetention:     24 * time.Hour,
		CleanupInterval:   time.Hour,
	}
}
