package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config wraps a viper instance and provides typed accessors for every
// configuration key. Create one via New().
type Config struct {
	v *viper.Viper
}

// New initialises a Config by loading values from environment
// variables, the config file, and compiled defaults (in that priority
// order; CLI flags, bound later via BindFlags, take highest priority).
func New() (*Config, error) {
	v := viper.New()

	for _, group := range [][]Option{ResolutionOptions, ConnectionOptions, AuthOptions, GlobalOptions} {
		for _, o := range group {
			v.SetDefault(o.Key, o.Default)
		}
	}

	v.SetConfigName("kush")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/kush/")

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !(errors.As(err, &notFoundErr) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("KUSH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// KUSH_LOG and RUST_LOG are honored as flat fallbacks for the log
	// level, checked in this order after KUSH_LOG_LEVEL (which
	// AutomaticEnv already binds); RUST_LOG exists only for drop-in
	// compatibility with scripts written against the original tool.
	// BindEnv keeps these at the env precedence tier, below CLI flags.
	if err := v.BindEnv(keyLogLevel, "KUSH_LOG_LEVEL", "KUSH_LOG", "RUST_LOG"); err != nil {
		return nil, fmt.Errorf("failed to bind log level env vars: %w", err)
	}

	return &Config{v: v}, nil
}

// BindFlags registers CLI flags for the given option slice and binds
// them to the underlying viper keys so that flag values override file
// and environment sources.
func (c *Config) BindFlags(fs *pflag.FlagSet, options []Option) error {
	for _, o := range options {
		switch v := o.Default.(type) {
		case string:
			fs.StringP(o.Flag, o.Shorthand, v, o.Description)
		case int:
			fs.IntP(o.Flag, o.Shorthand, v, o.Description)
		case bool:
			fs.BoolP(o.Flag, o.Shorthand, v, o.Description)
		case []string:
			fs.StringSliceP(o.Flag, o.Shorthand, v, o.Description)
		case time.Duration:
			fs.DurationP(o.Flag, o.Shorthand, v, o.Description)
		default:
			return fmt.Errorf("unsupported flag type for key: %s", o.Key)
		}

		if err := c.v.BindPFlag(o.Key, fs.Lookup(o.Flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", o.Flag, err)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

// Targets returns the raw target queries passed via -T/--targets, in
// the order given. A single "-" entry means "read newline-delimited
// queries from stdin" and is left for the caller to expand.
func (c *Config) Targets() []string {
	return c.v.GetStringSlice(keyTargets)
}

// ---------------------------------------------------------------------------
// Connection
// ---------------------------------------------------------------------------

// ConnectTimeout returns the per-target transport connect timeout.
func (c *Config) ConnectTimeout() time.Duration {
	return c.v.GetDuration(keyConnectTimeout)
}

// Concurrency returns the maximum number of concurrent in-flight
// actions.
func (c *Config) Concurrency() int {
	return c.v.GetInt(keyConcurrency)
}

// Reuseport reports whether outbound connections should share one
// local port per address family instead of taking a fresh ephemeral
// port each.
func (c *Config) Reuseport() bool {
	return c.v.GetBool(keyReuseport)
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

// User returns the username used for SSH authentication.
func (c *Config) User() string {
	return c.v.GetString(keyUser)
}

// SSHAgent returns the path to the SSH agent socket, falling back to
// $SSH_AUTH_SOCK when unset.
func (c *Config) SSHAgent() string {
	if v := c.v.GetString(keySSHAgent); v != "" {
		return v
	}
	return os.Getenv("SSH_AUTH_SOCK")
}

// SSHKey returns the path to an SSH private key for authentication.
func (c *Config) SSHKey() string {
	return c.v.GetString(keySSHKey)
}

// PasswordFile returns the path to a file containing the SSH password.
func (c *Config) PasswordFile() string {
	return c.v.GetString(keyPasswordFile)
}

// Kubeconfig returns the path to a kubeconfig file, falling back to
// $KUBECONFIG when unset.
func (c *Config) Kubeconfig() string {
	if v := c.v.GetString(keyKubeconfig); v != "" {
		return v
	}
	return os.Getenv("KUBECONFIG")
}

// ---------------------------------------------------------------------------
// Global
// ---------------------------------------------------------------------------

// LogLevel returns the log level for stderr output.
func (c *Config) LogLevel() string {
	return c.v.GetString(keyLogLevel)
}

// FileLevel returns the log level for the rolling last.log file.
func (c *Config) FileLevel() string {
	return c.v.GetString(keyFileLevel)
}

// DataDir returns the directory for persisted results and logs,
// falling back to the user's XDG data directory when unset.
func (c *Config) DataDir() string {
	if v := c.v.GetString(keyDataDir); v != "" {
		return v
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg + "/kush"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kush"
	}
	return home + "/.local/share/kush"
}
