package api

import (
	"context"
	"fmt"
	"strings"

	"storyline/internal/artifact"
	"storyline/internal/pipeline"
	"storyline/internal/transition"
)

// ChainReader abstracts the store reads and idea submission the service needs.
type ChainReader interface {
	Chain(ctx context.Context, ideaID int64) (*artifact.Chain, error)
	Chains(ctx context.Context, filter artifact.ListFilter) ([]*artifact.Chain, error)
	CreateIdea(ctx context.Context, in artifact.NewIdea) (*artifact.Idea, error)
	Transitions(ctx context.Context, ideaID int64) ([]artifact.Transition, error)
}

// Mover is the transition surface used by the service.
type Mover interface {
	MoveForward(ctx context.Context, req transition.Request) (*transition.Outcome, error)
	Preflight(ctx context.Context, ideaID int64) (*transition.Preflight, error)
}

// PipelineService exposes the four collaborator operations plus submission
// and history, returning API DTOs. Every error is a *pipeline.Error.
type PipelineService struct {
	store ChainReader
	mover Mover
}

// NewPipelineService constructs a PipelineService.
func NewPipelineService(store ChainReader, mover Mover) *PipelineService {
	if store == nil || mover == nil {
		return nil
	}
	return &PipelineService{store: store, mover: mover}
}

// Detail aggregates the idea, its present artifacts, and the derived stage.
func (s *PipelineService) Detail(ctx context.Context, ideaID int64) (*DetailResponse, error) {
	chain, res, err := s.resolve(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	detail := FromChain(chain, res)
	return &detail, nil
}

// Validation runs the current stage's prerequisite checks without writing.
func (s *PipelineService) Validation(ctx context.Context, ideaID int64) (*ValidationResponse, error) {
	if ideaID <= 0 {
		return nil, pipeline.InvalidInput("idea id must be positive")
	}
	report, err := s.mover.Preflight(ctx, ideaID)
	if err != nil {
		return nil, pipeline.AsError(err)
	}
	resp := FromPreflight(report)
	return &resp, nil
}

// MoveForward advances ideaID by one stage.
func (s *PipelineService) MoveForward(ctx context.Context, ideaID int64, req MoveForwardRequest) (*MoveForwardResponse, error) {
	treq := transition.Request{IdeaID: ideaID, Note: req.Note}
	if strings.TrimSpace(req.ExpectedStage) != "" {
		stage, err := pipeline.ParseStage(req.ExpectedStage)
		if err != nil {
			return nil, err
		}
		treq.ExpectedStage = stage
	}
	outcome, err := s.mover.MoveForward(ctx, treq)
	if err != nil {
		return nil, pipeline.AsError(err)
	}
	resp := FromOutcome(outcome)
	return &resp, nil
}

// List projects every matching idea through the stage resolver. The stage
// filter and limit apply after resolution since stage is not stored.
func (s *PipelineService) List(ctx context.Context, q ListQuery) (*ListResponse, error) {
	if q.Limit < 0 {
		return nil, pipeline.InvalidInput("limit must not be negative")
	}
	var stage pipeline.Stage
	if strings.TrimSpace(q.Stage) != "" {
		parsed, err := pipeline.ParseStage(q.Stage)
		if err != nil {
			return nil, err
		}
		stage = parsed
	}
	filter := artifact.ListFilter{Status: strings.TrimSpace(q.Status)}
	if strings.TrimSpace(q.Priority) != "" {
		priority, err := artifact.ParsePriority(q.Priority)
		if err != nil {
			return nil, pipeline.InvalidInput(err.Error())
		}
		filter.Priority = priority
	}
	if stage == "" {
		filter.Limit = q.Limit
	}

	chains, err := s.store.Chains(ctx, filter)
	if err != nil {
		return nil, pipeline.FromStore(err)
	}
	items := make([]IdeaSummary, 0, len(chains))
	for _, chain := range chains {
		res, err := pipeline.Resolve(chain)
		if err != nil {
			continue
		}
		if stage != "" && res.Stage != stage {
			continue
		}
		items = append(items, FromSummary(chain, res))
		if q.Limit > 0 && len(items) >= q.Limit {
			break
		}
	}
	return &ListResponse{Items: items}, nil
}

// Submit creates a new idea. The title is not validated here; an empty title
// only blocks the Idea -> Script transition.
func (s *PipelineService) Submit(ctx context.Context, req SubmitIdeaRequest) (*IdeaResponse, error) {
	if req.ContributorRef < 0 || req.ScriptWriterRef < 0 {
		return nil, pipeline.InvalidInput("collaborator refs must not be negative")
	}
	priority, err := artifact.ParsePriority(req.Priority)
	if err != nil {
		return nil, pipeline.InvalidInput(err.Error())
	}
	idea, err := s.store.CreateIdea(ctx, artifact.NewIdea{
		Title:           req.Title,
		Description:     req.Description,
		ContributorRef:  req.ContributorRef,
		ScriptWriterRef: req.ScriptWriterRef,
		Priority:        priority,
		Status:          req.Status,
	})
	if err != nil {
		return nil, pipeline.FromStore(err)
	}
	return &IdeaResponse{Idea: FromIdea(idea)}, nil
}

// History returns the idea's transitions, oldest first.
func (s *PipelineService) History(ctx context.Context, ideaID int64) (*HistoryResponse, error) {
	if _, _, err := s.resolve(ctx, ideaID); err != nil {
		return nil, err
	}
	rows, err := s.store.Transitions(ctx, ideaID)
	if err != nil {
		return nil, pipeline.FromStore(err)
	}
	return &HistoryResponse{IdeaID: ideaID, Transitions: FromTransitions(rows)}, nil
}

func (s *PipelineService) resolve(ctx context.Context, ideaID int64) (*artifact.Chain, pipeline.Resolution, error) {
	if ideaID <= 0 {
		return nil, pipeline.Resolution{}, pipeline.InvalidInput("idea id must be positive")
	}
	chain, err := s.store.Chain(ctx, ideaID)
	if err != nil {
		return nil, pipeline.Resolution{}, pipeline.AsError(pipeline.FromStore(err))
	}
	if chain == nil {
		return nil, pipeline.Resolution{}, pipeline.NotFound(fmt.Sprintf("idea %d not found", ideaID))
	}
	res, err := pipeline.Resolve(chain)
	if err != nil {
		return nil, pipeline.Resolution{}, err
	}
	return chain, res, nil
}
