package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"storyline/internal/artifact"
	"storyline/internal/client"
	"storyline/internal/config"
	"storyline/internal/logging"
	"storyline/internal/pipelineaccess"
	"storyline/internal/reqctx"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool
	directFlag *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag, directFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		directFlag: directFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) direct() bool {
	return c.directFlag != nil && *c.directFlag
}

// requestContext tags the command's context with a fresh request id so the
// daemon records the same id on any transition it commits.
func requestContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return reqctx.WithRequestID(ctx, "cli-"+uuid.NewString())
}

// withAccess runs fn against the daemon when it is reachable, or against the
// database directly otherwise (always with --direct).
func (c *commandContext) withAccess(cmd *cobra.Command, fn func(context.Context, pipelineaccess.Access) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := requestContext(cmd)

	opts := pipelineaccess.Options{
		OpenStore: func() (*artifact.Store, error) { return artifact.Open(cfg) },
		Rules:     cfg.Pipeline,
		Logger:    logging.NewNop(),
	}
	if !c.direct() {
		opts.Dial = func() (*client.Client, error) {
			return client.New(cfg.APIBaseURL(), cfg.Paths.APIToken)
		}
	}

	session, err := pipelineaccess.OpenWithFallback(ctx, opts)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return fmt.Errorf("daemon rejected the API token; check paths.api_token or STORYLINE_API_TOKEN")
		}
		return err
	}
	defer session.Close()
	return fn(ctx, session.Access)
}

// withStore opens the database directly. Artifact field edits always use it.
func (c *commandContext) withStore(cmd *cobra.Command, fn func(context.Context, *artifact.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := artifact.Open(cfg)
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}
	defer store.Close()
	return fn(requestContext(cmd), store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
