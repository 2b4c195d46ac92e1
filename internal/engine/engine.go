// Package engine turns seed target queries into a JobPlan, then runs
// a single action (ping or exec) concurrently across every leaf
// target in that plan, folding each outcome into the result store.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kush-sh/kush/internal/action"
	"github.com/kush-sh/kush/internal/idgen"
	"github.com/kush-sh/kush/internal/resolve"
	"github.com/kush-sh/kush/internal/store"
	"github.com/kush-sh/kush/internal/target"
)

// ActionKind names the operation RunAction performs against each
// leaf target.
type ActionKind int

const (
	// ActionPing performs a liveness probe.
	ActionPing ActionKind = iota
	// ActionExec runs a command and collects its output.
	ActionExec
)

func (k ActionKind) String() string {
	switch k {
	case ActionPing:
		return "ping"
	case ActionExec:
		return "exec"
	default:
		return "unknown"
	}
}

// JobPlan is the output of Plan: a job identifier and the resolved
// target graph seeds expanded into.
type JobPlan struct {
	ID    string
	Graph *resolve.TargetGraph
}

// RunOptions configures a single RunAction call.
type RunOptions struct {
	// Command is the shell command to run for ActionExec; ignored
	// for ActionPing.
	Command string
	// Timeout bounds each individual target's action.
	Timeout time.Duration
	// Concurrency caps the number of in-flight actions.
	Concurrency int
}

// RunReport summarizes a completed RunAction call.
type RunReport struct {
	JobID     string
	Succeeded int
	Failed    int
	Errors    map[string]string
	Duration  time.Duration
}

// Engine expands queries into target graphs and runs actions across
// them, persisting every outcome.
type Engine struct {
	forward *resolve.ChainResolver
	reverse *resolve.ChainResolver
	clients action.ClientFactory
	results store.Store
	ids     idgen.Generator
	metrics *metrics
}

// New returns an Engine wired to the given forward/reverse resolver
// chains, client factory, result store, and ID generator.
func New(forward, reverse *resolve.ChainResolver, clients action.ClientFactory, results store.Store, ids idgen.Generator) *Engine {
	return &Engine{
		forward: forward,
		reverse: reverse,
		clients: clients,
		results: results,
		ids:     ids,
		metrics: newMetrics(),
	}
}

// WriteMetrics renders the engine's Prometheus metrics in text
// exposition format.
func (e *Engine) WriteMetrics(buf *bytes.Buffer) error {
	return e.metrics.WriteTo(buf)
}

// Plan expands seeds into a JobPlan: a new job ID, and a graph built
// by running the forward chain from every seed, then the reverse
// chain from every node the forward pass produced (including
// intermediates).
func (e *Engine) Plan(ctx context.Context, seeds []string) (*JobPlan, error) {
	id, err := e.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("engine: generating job id: %w", err)
	}

	graph := resolve.NewTargetGraph()
	for _, seed := range seeds {
		t, err := target.Parse(seed)
		if err != nil {
			return nil, fmt.Errorf("engine: parsing seed %q: %w", seed, err)
		}
		resolve.ResolveIntoGraph(ctx, e.forward, t, graph)
	}

	// Snapshot the node list before the reverse pass so reverse
	// discoveries aren't themselves run back through the reverse
	// chain.
	for _, node := range graph.Nodes() {
		resolve.ResolveIntoGraphReverse(ctx, e.reverse, node, graph)
	}

	return &JobPlan{ID: id, Graph: graph}, nil
}

// RunAction runs one action across every leaf target in plan,
// bounded to opts.Concurrency in-flight at a time, and persists every
// outcome to the store.
func (e *Engine) RunAction(ctx context.Context, plan *JobPlan, kind ActionKind, auths []action.AuthPayload, opts RunOptions) (*RunReport, error) {
	leaves := plan.Graph.LeafTargets()

	report := &RunReport{JobID: plan.ID, Errors: make(map[string]string)}
	start := time.Now()

	var eg errgroup.Group
	if opts.Concurrency > 0 {
		eg.SetLimit(opts.Concurrency)
	}

	results := make(chan store.ResultEntry, len(leaves))
	for _, t := range leaves {
		t := t
		eg.Go(func() error {
			entry, outcome, elapsed := e.runOne(ctx, plan.ID, t, kind, auths, opts)
			e.metrics.observe(kind, outcome, elapsed.Seconds())
			if err := e.results.Save(entry); err != nil {
				// Save already logs; the pipeline continues regardless.
				_ = err
			}
			results <- entry
			return nil
		})
	}

	// eg.Wait never returns an error here since runOne recovers every
	// per-target failure into a ResultEntry rather than propagating it.
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	close(results)

	for entry := range results {
		if entry.Error != nil {
			report.Failed++
			report.Errors[entry.Target] = *entry.Error
		} else {
			report.Succeeded++
		}
	}
	report.Duration = time.Since(start)

	return report, nil
}

// runOne runs a single action against t, folding any failure into the
// returned ResultEntry instead of returning an error, so one target's
// failure never aborts the batch.
func (e *Engine) runOne(ctx context.Context, jobID string, t *target.Target, kind ActionKind, auths []action.AuthPayload, opts RunOptions) (store.ResultEntry, string, time.Duration) {
	entry := store.ResultEntry{JobID: jobID, Target: t.String()}
	started := time.Now()

	actionCtx := ctx
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		actionCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	fail := func(err error) (store.ResultEntry, string, time.Duration) {
		msg := err.Error()
		entry.Error = &msg
		return entry, "failure", time.Since(started)
	}

	client, ok := e.clients.Client(t)
	if !ok {
		return fail(fmt.Errorf("engine: no client available for target kind %q", t.Kind()))
	}
	defer client.Close()

	if err := client.Connect(actionCtx); err != nil {
		return fail(&TransportError{Timeout: errors.Is(actionCtx.Err(), context.DeadlineExceeded), Cause: err})
	}

	authenticated := len(auths) == 0
	for _, payload := range auths {
		if actionCtx.Err() != nil {
			break
		}
		if err := client.Auth(actionCtx, payload); err == nil {
			if payload.Kind != action.AuthUser {
				authenticated = true
				break
			}
		}
	}

	switch kind {
	case ActionPing:
		out, err := client.Ping(actionCtx)
		if err != nil {
			return fail(err)
		}
		entry.Stdout = out
		status := uint32(0)
		entry.ExitStatus = &status
	case ActionExec:
		if len(auths) > 0 && !authenticated {
			return fail(&action.AuthError{Kind: action.AuthExhausted})
		}
		out, err := client.Exec(actionCtx, opts.Command)
		if err != nil {
			return fail(err)
		}
		entry.Stdout = out.Stdout
		entry.Stderr = out.Stderr
		status := out.ExitStatus
		entry.ExitStatus = &status
	}

	return entry, "success", time.Since(started)
}
