package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kush-sh/kush/internal/config"
	"github.com/kush-sh/kush/internal/engine"
)

// NewExecCommand returns the "exec" subcommand: it resolves the
// configured target queries and runs command over SSH (or the
// Kubernetes exec subresource for k8s: targets) on each leaf target.
func NewExecCommand(conf *config.Config) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "exec <command>",
		Short: "Run a command on every resolved target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, conf, engine.ActionExec, args[0])
		},
	}

	for _, group := range [][]config.Option{config.ResolutionOptions, config.ConnectionOptions, config.AuthOptions} {
		if err := conf.BindFlags(cmd.Flags(), group); err != nil {
			return nil, err
		}
	}

	return cmd, nil
}
