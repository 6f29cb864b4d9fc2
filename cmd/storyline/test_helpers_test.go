package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyline/internal/api"
	"storyline/internal/artifact"
	"storyline/internal/config"
	"storyline/internal/daemon"
	"storyline/internal/logging"
	"storyline/internal/pipeline"
	"storyline/internal/testsupport"
	"storyline/internal/transition"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *artifact.Store
	daemon     *daemon.Daemon
	configPath string
}

// setupCLITestEnv writes a config whose api_bind points at a closed port, so
// idea commands fall back to the store.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	t.Setenv("STORYLINE_API_TOKEN", "")
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Paths.APIBind = closedAddress(t)

	env := &cliTestEnv{
		cfg:        cfg,
		store:      testsupport.MustOpenStore(t, cfg),
		configPath: filepath.Join(testsupport.BaseDir(cfg), "config.toml"),
	}
	writeTestConfig(t, env.configPath, cfg)
	return env
}

// setupDaemonCLITestEnv starts a daemon and points the config at it.
func setupDaemonCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	t.Setenv("STORYLINE_API_TOKEN", "")
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	exec := transition.NewExecutor(store, pipeline.NewRegistry(cfg.Pipeline), logging.NewNop())
	d, err := daemon.New(cfg, store, api.NewPipelineService(store, exec), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		d.Stop()
	})

	cfg.Paths.APIBind = d.Status().APIAddress
	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		configPath: filepath.Join(testsupport.BaseDir(cfg), "config.toml"),
	}
	writeTestConfig(t, env.configPath, cfg)
	return env
}

func closedAddress(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var buf bytes.Buffer
	if err := cfg.WriteTOML(&buf); err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
