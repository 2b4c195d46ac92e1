// Package main is the entry point for the kush binary: a remote
// execution multitool that resolves target queries (IPs, CIDR
// blocks, DNS names, files, Kubernetes pods) and runs a ping or exec
// action across every target concurrently.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kush-sh/kush/internal/cmd"
	"github.com/kush-sh/kush/internal/config"
)

// version is injected at build time via -ldflags
// (e.g. -ldflags "-X main.version=v1.2.3").
var version = "devel"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	conf, err := config.New()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	closeLog, err := setupLogging(conf)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer closeLog()

	rootCmd, err := newRootCommand(conf)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	return rootCmd.ExecuteContext(ctx)
}

// newRootCommand builds the kush root command and registers the
// resolve, ping, and exec subcommands.
func newRootCommand(conf *config.Config) (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           "kush",
		Short:         "A remote execution multitool over IP, CIDR, DNS, SSH, files, and Kubernetes targets",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := conf.BindFlags(root.PersistentFlags(), config.GlobalOptions); err != nil {
		return nil, err
	}

	resolveCmd, err := cmd.NewResolveCommand(conf)
	if err != nil {
		return nil, err
	}
	pingCmd, err := cmd.NewPingCommand(conf)
	if err != nil {
		return nil, err
	}
	execCmd, err := cmd.NewExecCommand(conf)
	if err != nil {
		return nil, err
	}

	root.AddCommand(resolveCmd, pingCmd, execCmd)
	return root, nil
}

// setupLogging installs the default slog logger: a text handler to
// stderr at conf.LogLevel(), and a JSON handler to a rolling
// <data-dir>/last.log file at conf.FileLevel(). It returns a closer
// for the log file.
func setupLogging(conf *config.Config) (func() error, error) {
	dir := conf.DataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}

	logFile, err := os.Create(filepath.Join(dir, "last.log"))
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}

	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(conf.LogLevel())})
	fileHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: parseLevel(conf.FileLevel())})

	slog.SetDefault(slog.New(multiHandler{stderrHandler, fileHandler}))
	return logFile.Close, nil
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// multiHandler fans every log record out to each of its handlers, so
// the same record reaches both the stderr text log and the rolling
// JSON file.
type multiHandler []slog.Handler

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range m {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}
