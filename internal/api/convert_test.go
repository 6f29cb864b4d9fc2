package api

import (
	"errors"
	"testing"
	"time"

	"storyline/internal/artifact"
	"storyline/internal/pipeline"
	"storyline/internal/transition"
)

func TestFromErrorHidesInternalDetail(t *testing.T) {
	body := FromError(errors.New("database is locked at /var/lib/storyline.db"))
	if body.Code != string(pipeline.CodeInternal) || body.Error != "internal error" {
		t.Fatalf("unexpected body: %+v", body)
	}

	body = FromError(pipeline.MissingPrerequisite([]pipeline.Violation{{Code: pipeline.CheckDirectorRequired, Field: "director_ref"}}))
	if body.Code != "MISSING_PREREQUISITE" || len(body.ValidationErrors) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}

	if got := FromError(nil); got.Code != "" {
		t.Fatalf("nil error should yield empty body, got %+v", got)
	}
}

func TestToErrorRoundTripsCode(t *testing.T) {
	err := ToError(ErrorResponse{Code: "ALREADY_EXISTS", Error: "idea is already published"})
	if !errors.Is(err, pipeline.ErrAlreadyExists) {
		t.Fatalf("expected ALREADY_EXISTS, got %v", err)
	}
	if !errors.Is(ToError(ErrorResponse{}), pipeline.ErrInternal) {
		t.Fatal("empty code should map to INTERNAL_ERROR")
	}
}

func TestFromOutcomeSetsOneID(t *testing.T) {
	tests := []struct {
		kind string
		want MoveForwardResponse
	}{
		{transition.KindScript, MoveForwardResponse{ScriptID: 7}},
		{transition.KindProduction, MoveForwardResponse{ProductionID: 7}},
		{transition.KindSocialPost, MoveForwardResponse{SocialPostID: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got := FromOutcome(&transition.Outcome{ArtifactKind: tt.kind, ArtifactID: 7, Label: "A -> B"})
			if !got.Success || got.ScriptID != tt.want.ScriptID || got.ProductionID != tt.want.ProductionID || got.SocialPostID != tt.want.SocialPostID {
				t.Fatalf("unexpected response: %+v", got)
			}
		})
	}
}

func TestFromSummaryUsesLatestArtifactUpdate(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	chain := &artifact.Chain{
		Idea:   &artifact.Idea{ID: 1, Title: "T", UpdatedAt: base},
		Script: &artifact.Script{ID: 2, UpdatedAt: base.Add(time.Hour)},
	}
	res, err := pipeline.Resolve(chain)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got := FromSummary(chain, res)
	if got.Stage != "Script" || got.UpdatedAt != "2026-03-01T13:00:00.000Z" {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestFromPreflightNeverNilViolations(t *testing.T) {
	got := FromPreflight(&transition.Preflight{IdeaID: 1, Stage: pipeline.StageIdea, CanMoveForward: true})
	if got.ValidationErrors == nil || !got.Ready {
		t.Fatalf("unexpected validation: %+v", got)
	}
}
