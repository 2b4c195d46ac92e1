package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kush-sh/kush/internal/config"
	"github.com/kush-sh/kush/internal/resolve"
	"github.com/kush-sh/kush/internal/target"
)

// NewResolveCommand returns the "resolve" subcommand: it expands the
// configured target queries and prints either a flat, sorted target
// list or (with --graph) the resolution graph as GraphViz DOT.
func NewResolveCommand(conf *config.Config) (*cobra.Command, error) {
	var graph bool
	var reverse bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Expand target queries into concrete targets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd, conf, graph, reverse)
		},
	}

	if err := conf.BindFlags(cmd.Flags(), config.ResolutionOptions); err != nil {
		return nil, err
	}
	cmd.Flags().BoolVar(&graph, "graph", false, "Print the resolution graph as GraphViz DOT instead of a flat target list")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "Run the reverse chain instead of the forward chain")

	return cmd, nil
}

func runResolve(cmd *cobra.Command, conf *config.Config, graph, runReverse bool) error {
	queries, err := readTargets(cmd.InOrStdin(), conf.Targets())
	if err != nil {
		return err
	}

	seeds := make([]*target.Target, 0, len(queries))
	for _, q := range queries {
		t, err := target.Parse(q)
		if err != nil {
			return fmt.Errorf("parsing target %q: %w", q, err)
		}
		seeds = append(seeds, t)
	}

	forward, reverseChain, err := buildResolvers(conf)
	if err != nil {
		return err
	}

	chain := forward
	into := resolve.ResolveIntoGraph
	if runReverse {
		chain = reverseChain
		into = resolve.ResolveIntoGraphReverse
	}

	g := resolve.NewTargetGraph()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for _, seed := range seeds {
		into(ctx, chain, seed, g)
	}

	if graph {
		fmt.Fprint(cmd.OutOrStdout(), g.Graphviz())
		return nil
	}

	for _, t := range resolve.BulkResolveSet(ctx, chain, seeds).Slice() {
		fmt.Fprintln(cmd.OutOrStdout(), t.String())
	}
	return nil
}
