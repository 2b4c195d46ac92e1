// Package config provides unified configuration loading from files,
// environment variables, and CLI flags using viper and pflag.
//
// Resolution order (highest wins):
//  1. CLI flags
//  2. Environment variables (prefix KUSH_, plus RUST_LOG honored as a
//     fallback for the log level specifically)
//  3. Config file (kush.yaml in . or /etc/kush/)
//  4. Compiled defaults
package config

// Viper keys for resolution-related configuration.
const (
	keyTargets = "targets"
)

// Viper keys for connection-related configuration.
const (
	keyConnectTimeout = "connect.timeout"
	keyConcurrency    = "connect.concurrency"
	keyReuseport      = "connect.reuseport"
)

// Viper keys for auth-related configuration.
const (
	keyUser         = "auth.user"
	keySSHAgent     = "auth.ssh_agent"
	keySSHKey       = "auth.ssh_key"
	keyPasswordFile = "auth.password_file"
	keyKubeconfig   = "auth.kubeconfig"
)

// Viper keys for global configuration.
const (
	keyLogLevel  = "log.level"
	keyDataDir   = "data_dir"
	keyFileLevel = "log.file_level"
)
