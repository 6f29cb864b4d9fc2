package pipelineaccess

import (
	"context"
	"fmt"
	"log/slog"

	"storyline/internal/api"
	"storyline/internal/artifact"
	"storyline/internal/client"
	"storyline/internal/config"
	"storyline/internal/pipeline"
	"storyline/internal/transition"
)

// Session represents a pipeline access handle and its cleanup function.
type Session struct {
	Access Access
	// Remote is true when requests go through the daemon.
	Remote bool
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Options controls how a session is opened.
type Options struct {
	// Dial builds a daemon client. Nil skips the daemon.
	Dial func() (*client.Client, error)
	// OpenStore opens the database for direct access.
	OpenStore func() (*artifact.Store, error)
	Rules     config.Pipeline
	Logger    *slog.Logger
}

// OpenWithFallback uses the daemon when its health endpoint answers; otherwise
// it opens the store and runs transitions in-process under the same rules.
func OpenWithFallback(ctx context.Context, opts Options) (Session, error) {
	if opts.Dial != nil {
		if c, err := opts.Dial(); err == nil {
			_, err = c.Health(ctx)
			if err == nil {
				return Session{Access: NewHTTPAccess(c), Remote: true}, nil
			}
			if !client.IsUnavailable(err) {
				return Session{}, fmt.Errorf("check daemon health: %w", err)
			}
		}
	}

	if opts.OpenStore == nil {
		return Session{}, fmt.Errorf("open artifact store: no store opener configured")
	}
	store, err := opts.OpenStore()
	if err != nil {
		return Session{}, fmt.Errorf("open artifact store: %w", err)
	}
	exec := transition.NewExecutor(store, pipeline.NewRegistry(opts.Rules), opts.Logger)
	return Session{
		Access: NewServiceAccess(api.NewPipelineService(store, exec)),
		close:  store.Close,
	}, nil
}
