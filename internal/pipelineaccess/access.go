// Package pipelineaccess gives the CLI one interface over the pipeline,
// backed either by the running daemon or by the database directly.
package pipelineaccess

import (
	"context"

	"storyline/internal/api"
	"storyline/internal/client"
)

// Access provides pipeline operations regardless of HTTP or direct store backing.
type Access interface {
	Detail(ctx context.Context, ideaID int64) (*api.DetailResponse, error)
	Validation(ctx context.Context, ideaID int64) (*api.ValidationResponse, error)
	MoveForward(ctx context.Context, ideaID int64, req api.MoveForwardRequest) (*api.MoveForwardResponse, error)
	List(ctx context.Context, q api.ListQuery) (*api.ListResponse, error)
	Submit(ctx context.Context, req api.SubmitIdeaRequest) (*api.IdeaResponse, error)
	History(ctx context.Context, ideaID int64) (*api.HistoryResponse, error)
}

// NewHTTPAccess returns an Access backed by the daemon API.
func NewHTTPAccess(c *client.Client) Access {
	return c
}

// NewServiceAccess returns an Access backed by an in-process service.
func NewServiceAccess(svc *api.PipelineService) Access {
	return svc
}

var (
	_ Access = (*client.Client)(nil)
	_ Access = (*api.PipelineService)(nil)
)
