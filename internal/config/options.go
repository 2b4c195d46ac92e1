package config

import (
	"time"
)

// Option describes a single configuration entry: its viper key, the
// corresponding CLI flag name (and optional one-letter shorthand), the
// compiled default, and a human-readable description shown in --help
// output.
type Option struct {
	Key         string
	Flag        string
	Shorthand   string
	Default     any
	Description string
}

// ResolutionOptions defines the flags shared by every subcommand that
// needs to expand seed queries into targets.
var ResolutionOptions = []Option{
	{Key: keyTargets, Flag: "targets", Shorthand: "T", Default: []string{}, Description: "Target query (IP, CIDR, DNS name, ssh:// URI, file:, k8s:); repeatable, or '-' to read from stdin"},
}

// ConnectionOptions defines the flags controlling transport timeouts
// and action fan-out width.
var ConnectionOptions = []Option{
	{Key: keyConnectTimeout, Flag: "connect-timeout", Default: 30 * time.Second, Description: "Per-target transport connect timeout"},
	{Key: keyConcurrency, Flag: "concurrency", Shorthand: "c", Default: 500, Description: "Maximum number of concurrent in-flight actions"},
	{Key: keyReuseport, Flag: "reuseport", Default: false, Description: "Dial all targets from one shared local port per address family, lifting the ephemeral-port ceiling for very wide scans"},
}

// AuthOptions defines the flags controlling action authentication.
var AuthOptions = []Option{
	{Key: keyUser, Flag: "user", Shorthand: "u", Default: "root", Description: "Username for SSH authentication"},
	{Key: keySSHAgent, Flag: "ssh-agent", Default: "", Description: "Path to the SSH agent socket (default: $SSH_AUTH_SOCK)"},
	{Key: keySSHKey, Flag: "ssh-key", Default: "", Description: "Path to an SSH private key for authentication"},
	{Key: keyPasswordFile, Flag: "password-file", Default: "", Description: "Path to a file containing the SSH password"},
	{Key: keyKubeconfig, Flag: "kubeconfig", Default: "", Description: "Path to a kubeconfig file (default: $KUBECONFIG)"},
}

// GlobalOptions defines flags available on every subcommand.
var GlobalOptions = []Option{
	{Key: keyLogLevel, Flag: "log-level", Default: "info", Description: "Log level for stderr output (debug, info, warn, error)"},
	{Key: keyDataDir, Flag: "data-dir", Default: "", Description: "Directory for persisted results and logs (default: XDG data dir)"},
	{Key: keyFileLevel, Flag: "file-level", Default: "debug", Description: "Log level for the rolling last.log file"},
}
