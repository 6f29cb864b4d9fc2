// Package transition implements the write path of the content pipeline.
//
// MoveForward resolves the idea's current stage from a chain snapshot,
// runs that stage's prerequisite validator, and then performs exactly one
// guarded store write: insert the next artifact, or publish the social post.
// Correctness under concurrent callers rests entirely on the store's UNIQUE
// parent links and conditional UPDATE; the executor holds no locks. A caller
// that loses the race receives ALREADY_EXISTS.
package transition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storyline/internal/artifact"
	"storyline/internal/logging"
	"storyline/internal/pipeline"
	"storyline/internal/reqctx"
	"storyline/internal/telemetry"
)

// MaxNoteLength bounds the free-form note attached to a transition.
const MaxNoteLength = 2000

// ChainStore is the subset of artifact.Store the executor needs.
type ChainStore interface {
	Chain(ctx context.Context, ideaID int64) (*artifact.Chain, error)
	InsertScript(ctx context.Context, ideaID int64, ready artifact.Readiness, rec artifact.TransitionRecord) (int64, error)
	InsertProduction(ctx context.Context, scriptID int64, ready artifact.Readiness, rec artifact.TransitionRecord) (int64, error)
	InsertSocialPost(ctx context.Context, productionID int64, ready artifact.Readiness, rec artifact.TransitionRecord) (int64, error)
	PublishSocialPost(ctx context.Context, socialPostID int64, requireApproved bool, rec artifact.TransitionRecord) error
}

// Artifact kinds reported in Outcome.ArtifactKind.
const (
	KindScript     = "script"
	KindProduction = "production"
	KindSocialPost = "social_post"
)

// Request asks for one move-forward. ExpectedStage is required: the call only
// applies while the idea is still at that stage, and an idea already past it
// yields ALREADY_EXISTS. A repeated request can never advance an idea twice.
type Request struct {
	IdeaID        int64
	Note          string
	ExpectedStage pipeline.Stage
}

// Outcome describes a committed transition.
type Outcome struct {
	IdeaID       int64
	From         pipeline.Stage
	To           pipeline.Stage
	Label        string
	ArtifactKind string
	ArtifactID   int64
}

// Preflight is the read-only validation report for an idea.
type Preflight struct {
	IdeaID         int64
	Stage          pipeline.Stage
	CanMoveForward bool
	Violations     []pipeline.Violation
}

// Ready reports whether a move-forward call would pass validation right now.
func (p *Preflight) Ready() bool {
	return p != nil && p.CanMoveForward && len(p.Violations) == 0
}

// Executor advances ideas one stage at a time.
type Executor struct {
	store    ChainStore
	registry *pipeline.Registry
	logger   *slog.Logger
	recorder *telemetry.Recorder
	tracer   trace.Tracer
	now      func() time.Time
}

// Option customizes an Executor.
type Option func(*Executor)

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec *telemetry.Recorder) Option {
	return func(e *Executor) { e.recorder = rec }
}

// WithClock overrides the time source used for latency measurements.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExecutor constructs an executor over store using registry's validators.
func NewExecutor(store ChainStore, registry *pipeline.Registry, logger *slog.Logger, opts ...Option) *Executor {
	e := &Executor{
		store:    store,
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "transition"),
		tracer:   telemetry.Tracer("storyline/transition"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Preflight resolves the stage and runs its validator without writing.
func (e *Executor) Preflight(ctx context.Context, ideaID int64) (*Preflight, error) {
	chain, res, err := e.resolve(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	return &Preflight{
		IdeaID:         res.IdeaID,
		Stage:          res.Stage,
		CanMoveForward: res.CanMoveForward,
		Violations:     e.registry.Validate(res.Stage, chain),
	}, nil
}

// MoveForward advances the idea by exactly one stage. Errors are always
// *pipeline.Error: NOT_FOUND, MISSING_PREREQUISITE, ALREADY_EXISTS,
// INVALID_INPUT, or INTERNAL_ERROR.
func (e *Executor) MoveForward(ctx context.Context, req Request) (*Outcome, error) {
	start := e.now()
	ctx = reqctx.WithIdeaID(ctx, req.IdeaID)
	ctx, span := e.tracer.Start(ctx, "pipeline.move_forward",
		trace.WithAttributes(attribute.Int64("idea.id", req.IdeaID)))
	defer span.End()

	var from, to pipeline.Stage
	outcome, err := e.moveForward(ctx, req, &from, &to)

	ctx = reqctx.WithStage(ctx, string(from))
	logger := logging.WithContext(ctx, e.logger)
	elapsed := e.now().Sub(start)
	result := outcomeLabel(err)
	e.recorder.RecordTransition(ctx, string(from), string(to), result, elapsed)
	span.SetAttributes(
		attribute.String("stage.from", string(from)),
		attribute.String("stage.to", string(to)),
		attribute.String("outcome", result),
	)

	if err != nil {
		pe := pipeline.AsError(err)
		switch pe.Code {
		case pipeline.CodeAlreadyExists:
			logger.Info("transition not applied; target already exists",
				logging.String(logging.FieldEventType, "transition_conflict"),
				logging.String(logging.FieldErrorCode, string(pe.Code)),
				logging.String("to_stage", string(to)),
			)
		case pipeline.CodeMissingPrerequisite:
			logging.WarnWithContext(logger, "transition rejected by prerequisites", "transition_rejected",
				logging.String(logging.FieldErrorCode, string(pe.Code)),
				logging.String("violations", violationCodes(pe.Violations)),
				logging.String(logging.FieldErrorHint, "complete the current stage artifact and retry"),
				logging.String(logging.FieldImpact, "idea stays at its current stage"),
			)
		case pipeline.CodeNotFound, pipeline.CodeInvalidInput:
			logging.WarnWithContext(logger, "transition request invalid", "transition_rejected",
				logging.String(logging.FieldErrorCode, string(pe.Code)),
				logging.String("reason", pe.Message),
			)
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logging.ErrorWithContext(logger, "transition failed", "transition_failed",
				logging.String(logging.FieldErrorCode, string(pe.Code)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "no partial artifact was written; retry is safe"),
			)
		}
		return nil, pe
	}

	logger.Info("stage advanced",
		logging.String(logging.FieldEventType, "stage_transition"),
		logging.String("stage_transition", outcome.Label),
		logging.String("artifact_kind", outcome.ArtifactKind),
		logging.Int64("artifact_id", outcome.ArtifactID),
		logging.Duration("elapsed", elapsed),
	)
	return outcome, nil
}

func (e *Executor) moveForward(ctx context.Context, req Request, from, to *pipeline.Stage) (*Outcome, error) {
	note := strings.TrimSpace(req.Note)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return nil, pipeline.InvalidInput(fmt.Sprintf("note exceeds %d characters", MaxNoteLength))
	}
	if req.ExpectedStage == "" {
		return nil, pipeline.InvalidInput("expected stage is required")
	}
	if req.ExpectedStage.Index() < 0 {
		return nil, pipeline.InvalidInput(fmt.Sprintf("unknown stage %q", req.ExpectedStage))
	}

	chain, res, err := e.resolve(ctx, req.IdeaID)
	if err != nil {
		return nil, err
	}
	*from = res.Stage

	if req.ExpectedStage != res.Stage {
		if res.Stage.Index() > req.ExpectedStage.Index() {
			*from = req.ExpectedStage
			*to, _ = req.ExpectedStage.Next()
			return nil, pipeline.AlreadyExists(fmt.Sprintf("idea already moved past %s (now %s)", req.ExpectedStage, res.Stage))
		}
		return nil, pipeline.InvalidInput(fmt.Sprintf("idea is at stage %s, not %s", res.Stage, req.ExpectedStage))
	}

	next, ok := res.Stage.Next()
	if !ok {
		return nil, pipeline.AlreadyExists("idea is already published")
	}
	*to = next

	if violations := e.registry.Validate(res.Stage, chain); len(violations) > 0 {
		return nil, pipeline.MissingPrerequisite(violations)
	}

	requestID, _ := reqctx.RequestIDFromContext(ctx)
	rec := artifact.TransitionRecord{
		FromStage: string(res.Stage),
		ToStage:   string(next),
		Note:      note,
		RequestID: requestID,
	}

	outcome := &Outcome{
		IdeaID: res.IdeaID,
		From:   res.Stage,
		To:     next,
		Label:  pipeline.TransitionLabel(res.Stage, next),
	}
	ready := e.registry.Readiness()
	switch res.Stage {
	case pipeline.StageIdea:
		outcome.ArtifactKind = KindScript
		outcome.ArtifactID, err = e.store.InsertScript(ctx, res.IdeaID, ready, rec)
	case pipeline.StageScript:
		outcome.ArtifactKind = KindProduction
		outcome.ArtifactID, err = e.store.InsertProduction(ctx, res.ScriptID, ready, rec)
	case pipeline.StageProduction:
		outcome.ArtifactKind = KindSocialPost
		outcome.ArtifactID, err = e.store.InsertSocialPost(ctx, res.ProductionID, ready, rec)
	case pipeline.StageSocial:
		outcome.ArtifactKind = KindSocialPost
		outcome.ArtifactID = res.SocialPostID
		err = e.store.PublishSocialPost(ctx, res.SocialPostID, e.registry.RequireApproval(), rec)
	default:
		return nil, pipeline.Internal(fmt.Sprintf("no transition defined for stage %q", res.Stage), nil)
	}
	if errors.Is(err, artifact.ErrNotReady) {
		return nil, e.notReady(ctx, res, err)
	}
	if err != nil {
		return nil, pipeline.FromStore(err)
	}
	return outcome, nil
}

// notReady reports a parent edited between validation and the guarded insert.
// The violations come from a fresh snapshot when one is available.
func (e *Executor) notReady(ctx context.Context, res pipeline.Resolution, err error) error {
	if chain, loadErr := e.store.Chain(ctx, res.IdeaID); loadErr == nil && chain != nil {
		if violations := e.registry.Validate(res.Stage, chain); len(violations) > 0 {
			return &pipeline.Error{
				Code:       pipeline.CodeMissingPrerequisite,
				Message:    "prerequisites not met",
				Violations: violations,
				Err:        err,
			}
		}
	}
	return pipeline.FromStore(err)
}

func (e *Executor) resolve(ctx context.Context, ideaID int64) (*artifact.Chain, pipeline.Resolution, error) {
	if ideaID <= 0 {
		return nil, pipeline.Resolution{}, pipeline.InvalidInput("idea id must be positive")
	}
	chain, err := e.store.Chain(ctx, ideaID)
	if err != nil {
		return nil, pipeline.Resolution{}, pipeline.FromStore(err)
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

func outcomeLabel(err error) string {
	switch pipeline.CodeOf(err) {
	case "":
		return telemetry.OutcomeSuccess
	case pipeline.CodeAlreadyExists:
		return telemetry.OutcomeConflict
	case pipeline.CodeMissingPrerequisite:
		return telemetry.OutcomeMissingPrerequisite
	case pipeline.CodeNotFound:
		return telemetry.OutcomeNotFound
	default:
		return telemetry.OutcomeError
	}
}

func violationCodes(violations []pipeline.Violation) string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Code)
	}
	return strings.Join(out, ",")
}
