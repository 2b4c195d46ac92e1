// Package cmd wires kush's resolve, ping, and exec subcommands from a
// *config.Config: each subcommand is built by a New*Command function
// that binds its flag groups and assembles the engine it needs.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kush-sh/kush/internal/action"
	"github.com/kush-sh/kush/internal/config"
	"github.com/kush-sh/kush/internal/engine"
	"github.com/kush-sh/kush/internal/idgen"
	"github.com/kush-sh/kush/internal/resolve"
	"github.com/kush-sh/kush/internal/store"
	"github.com/kush-sh/kush/internal/transport"
)

// buildResolvers returns the default forward and reverse resolution
// chains. The Kubernetes resolver joins the forward chain only when a
// usable client configuration exists; without one, k8s namespace
// queries simply bounce through unexpanded.
func buildResolvers(conf *config.Config) (forward, reverse *resolve.ChainResolver, err error) {
	forward, err = resolve.ForwardChain()
	if err != nil {
		return nil, nil, fmt.Errorf("building forward resolver chain: %w", err)
	}
	if k8sResolver, kerr := resolve.NewK8sResolver(conf.Kubeconfig()); kerr == nil {
		forward.With(k8sResolver)
	} else {
		slog.Debug("kubernetes resolver unavailable", "error", kerr)
	}
	reverse, err = resolve.ReverseChain()
	if err != nil {
		return nil, nil, fmt.Errorf("building reverse resolver chain: %w", err)
	}
	return forward, reverse, nil
}

// openStore opens the result store under conf's data directory,
// creating the directory if necessary.
func openStore(conf *config.Config) (*store.BoltStore, error) {
	dir := conf.DataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}
	return store.Open(filepath.Join(dir, "kush.db"))
}

// transportFactory picks the dial-side transport: plain per-dial TCP
// by default, or the shared-local-port reuseport factory when the run
// expects to hold more outbound connections than the ephemeral port
// range allows. The returned closer releases the reserved reuseport
// sockets (a no-op for plain TCP).
func transportFactory(conf *config.Config) (transport.Factory, func(), error) {
	if !conf.Reuseport() {
		return transport.NewTcpFactory(conf.ConnectTimeout()), func() {}, nil
	}
	f, err := transport.NewReuseportFactory(conf.ConnectTimeout())
	if err != nil {
		return nil, nil, fmt.Errorf("reserving reuseport sockets: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// pingEngine builds an Engine whose client factory answers Ping: a
// plain TCP banner read, falling through to the Kubernetes client
// only for k8s: targets (which reports Ping as not supported, same as
// any other client kind that has none).
func pingEngine(conf *config.Config) (*engine.Engine, func(), error) {
	return buildEngine(conf, func(dial transport.Factory) action.ClientFactory {
		return action.NewDynamicClientFactory().
			With(action.NewTcpClientFactory(dial)).
			With(action.NewK8sClientFactory(conf.Kubeconfig()))
	})
}

// execEngine builds an Engine whose client factory answers Exec: SSH
// for any target with a socket address, falling through to the
// Kubernetes exec client for k8s: targets.
func execEngine(conf *config.Config) (*engine.Engine, func(), error) {
	return buildEngine(conf, func(dial transport.Factory) action.ClientFactory {
		return action.NewDynamicClientFactory().
			With(action.NewSshClientFactory(dial)).
			With(action.NewK8sClientFactory(conf.Kubeconfig()))
	})
}

func buildEngine(conf *config.Config, clients func(transport.Factory) action.ClientFactory) (*engine.Engine, func(), error) {
	forward, reverse, err := buildResolvers(conf)
	if err != nil {
		return nil, nil, err
	}

	st, err := openStore(conf)
	if err != nil {
		return nil, nil, err
	}

	dial, closeTransport, err := transportFactory(conf)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	ids, err := idgen.NewSonyflakeGenerator()
	if err != nil {
		closeTransport()
		st.Close()
		return nil, nil, err
	}

	e := engine.New(forward, reverse, clients(dial), st, ids)
	cleanup := func() {
		closeTransport()
		st.Close()
	}
	return e, cleanup, nil
}
