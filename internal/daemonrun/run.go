// Package daemonrun wires the storyline daemon process: logging, telemetry,
// preflight checks, the artifact store, and the HTTP API.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"storyline/internal/api"
	"storyline/internal/artifact"
	"storyline/internal/config"
	"storyline/internal/daemon"
	"storyline/internal/logging"
	"storyline/internal/pipeline"
	"storyline/internal/preflight"
	"storyline/internal/telemetry"
	"storyline/internal/transition"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Version     string
}

// Run starts the storyline daemon and blocks until the context is cancelled
// or the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "storyline.log")},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if failed := preflight.Failed(preflight.RunAll(signalCtx, cfg)); len(failed) > 0 {
		for _, r := range failed {
			logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldErrorHint, "fix the path or permissions and restart"),
			)
		}
		return fmt.Errorf("preflight: %d check(s) failed", len(failed))
	}

	shutdownTelemetry, err := telemetry.Init(signalCtx, cfg.Telemetry, opts.Version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", logging.Error(err))
		}
	}()

	pidPath := filepath.Join(cfg.Paths.DataDir, "storyline.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := artifact.Open(cfg)
	if err != nil {
		logger.Error("open artifact store", logging.Error(err))
		return err
	}

	recorder, err := telemetry.NewRecorder(telemetry.Meter("storyline/transition"))
	if err != nil {
		logger.Warn("transition metrics unavailable", logging.Error(err))
	}
	exec := transition.NewExecutor(store, pipeline.NewRegistry(cfg.Pipeline), logger, transition.WithRecorder(recorder))

	d, err := daemon.New(cfg, store, api.NewPipelineService(store, exec), logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	logRuleSnapshot(logger, cfg)
	if err := d.Start(signalCtx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		select {
		case err := <-d.ServeErrors():
			return fmt.Errorf("api server: %w", err)
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("storyline daemon shutting down")
		d.Stop()
		return nil
	})
	return g.Wait()
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logRuleSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	rules := cfg.Pipeline
	logger.Info("pipeline rules",
		logging.String(logging.FieldEventType, "rule_snapshot"),
		logging.Bool("require_contributor", rules.RequireContributor),
		logging.Bool("require_script_writer", rules.RequireScriptWriter),
		logging.Bool("require_director", rules.RequireDirector),
		logging.Bool("require_production_complete", rules.RequireProductionComplete),
		logging.Bool("require_social_approval", rules.RequireSocialApproval),
		logging.Bool("api_token_set", strings.TrimSpace(cfg.Paths.APIToken) != ""),
		logging.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
	)
}
