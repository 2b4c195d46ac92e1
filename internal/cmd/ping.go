package cmd

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kush-sh/kush/internal/config"
	"github.com/kush-sh/kush/internal/engine"
)

// NewPingCommand returns the "ping" subcommand: it resolves the
// configured target queries and probes each leaf target with a TCP
// banner read.
func NewPingCommand(conf *config.Config) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Probe resolved targets with a TCP banner read",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd, conf, engine.ActionPing, "")
		},
	}

	for _, group := range [][]config.Option{config.ResolutionOptions, config.ConnectionOptions, config.AuthOptions} {
		if err := conf.BindFlags(cmd.Flags(), group); err != nil {
			return nil, err
		}
	}

	return cmd, nil
}

func runAction(cmd *cobra.Command, conf *config.Config, kind engine.ActionKind, command string) error {
	queries, err := readTargets(cmd.InOrStdin(), conf.Targets())
	if err != nil {
		return err
	}

	var e *engine.Engine
	var cleanup func()
	if kind == engine.ActionExec {
		e, cleanup, err = execEngine(conf)
	} else {
		e, cleanup, err = pingEngine(conf)
	}
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	plan, err := e.Plan(ctx, queries)
	if err != nil {
		return err
	}

	auths, err := buildAuthPayloads(conf)
	if err != nil {
		return err
	}

	report, err := e.RunAction(ctx, plan, kind, auths, engine.RunOptions{
		Command:     command,
		Timeout:     conf.ConnectTimeout(),
		Concurrency: conf.Concurrency(),
	})
	if err != nil {
		return err
	}

	printReport(cmd, report)

	var metrics bytes.Buffer
	if err := e.WriteMetrics(&metrics); err == nil {
		slog.Debug("engine metrics", "metrics", metrics.String())
	}
	return nil
}

func printReport(cmd *cobra.Command, report *engine.RunReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "job %s: %d succeeded, %d failed (%s)\n", report.JobID, report.Succeeded, report.Failed, report.Duration)
	for t, msg := range report.Errors {
		fmt.Fprintf(out, "  %s: %s\n", t, msg)
	}
}
