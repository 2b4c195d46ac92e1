package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/kush-sh/kush/internal/action"
	"github.com/kush-sh/kush/internal/config"
)

func newTestConfig(t *testing.T) (*config.Config, *pflag.FlagSet) {
	t.Helper()
	conf, err := config.New()
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	for _, group := range [][]config.Option{config.ResolutionOptions, config.ConnectionOptions, config.AuthOptions, config.GlobalOptions} {
		if err := conf.BindFlags(fs, group); err != nil {
			t.Fatalf("BindFlags: %v", err)
		}
	}
	return conf, fs
}

func TestBuildAuthPayloadsAlwaysIncludesUser(t *testing.T) {
	conf, _ := newTestConfig(t)
	payloads, err := buildAuthPayloads(conf)
	if err != nil {
		t.Fatalf("buildAuthPayloads: %v", err)
	}
	if len(payloads) != 1 || payloads[0].Kind != action.AuthUser {
		t.Fatalf("payloads = %+v, want exactly one AuthUser payload", payloads)
	}
}

func TestBuildAuthPayloadsReadsPasswordFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "password")
	if err := os.WriteFile(path, []byte("hunter2\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	conf, fs := newTestConfig(t)
	if err := fs.Set("password-file", path); err != nil {
		t.Fatalf("Set(password-file): %v", err)
	}

	payloads, err := buildAuthPayloads(conf)
	if err != nil {
		t.Fatalf("buildAuthPayloads: %v", err)
	}
	var found bool
	for _, p := range payloads {
		if p.Kind == action.AuthPassword {
			found = true
			if p.Password != "hunter2" {
				t.Errorf("Password = %q, want %q", p.Password, "hunter2")
			}
		}
	}
	if !found {
		t.Error("expected an AuthPassword payload")
	}
}
