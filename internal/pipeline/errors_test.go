package pipeline_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"storyline/internal/artifact"
	"storyline/internal/pipeline"
)

func TestFromStoreMapsSentinels(t *testing.T) {
	tests := []struct {
		in   error
		want pipeline.Code
	}{
		{artifact.ErrConflict, pipeline.CodeAlreadyExists},
		{fmt.Errorf("wrapped: %w", artifact.ErrConflict), pipeline.CodeAlreadyExists},
		{artifact.ErrNotFound, pipeline.CodeNotFound},
		{artifact.ErrParentMissing, pipeline.CodeNotFound},
		{artifact.ErrNotApproved, pipeline.CodeMissingPrerequisite},
		{artifact.ErrIdeaIncomplete, pipeline.CodeMissingPrerequisite},
		{artifact.ErrDirectorMissing, pipeline.CodeMissingPrerequisite},
		{artifact.ErrProductionIncomplete, pipeline.CodeMissingPrerequisite},
		{artifact.ErrInvalidInput, pipeline.CodeInvalidInput},
		{errors.New("disk I/O error"), pipeline.CodeInternal},
	}
	for _, tt := range tests {
		if got := pipeline.CodeOf(pipeline.FromStore(tt.in)); got != tt.want {
			t.Fatalf("FromStore(%v) code = %s, want %s", tt.in, got, tt.want)
		}
	}
	if pipeline.FromStore(nil) != nil {
		t.Fatal("nil should map to nil")
	}
}

func TestFromStoreNotReadyCarriesViolation(t *testing.T) {
	tests := []struct {
		in   error
		want string
	}{
		{artifact.ErrDirectorMissing, pipeline.CheckDirectorRequired},
		{artifact.ErrProductionIncomplete, pipeline.CheckProductionIncomplete},
	}
	for _, tt := range tests {
		perr := pipeline.AsError(pipeline.FromStore(tt.in))
		if len(perr.Violations) != 1 || perr.Violations[0].Code != tt.want {
			t.Fatalf("FromStore(%v) violations = %+v, want %s", tt.in, perr.Violations, tt.want)
		}
		if !errors.Is(perr, artifact.ErrNotReady) {
			t.Fatalf("FromStore(%v) should keep the store error", tt.in)
		}
	}
}

func TestErrorIsAndRetryable(t *testing.T) {
	err := error(pipeline.AlreadyExists("done"))
	if !errors.Is(err, pipeline.ErrAlreadyExists) || errors.Is(err, pipeline.ErrNotFound) {
		t.Fatalf("errors.Is mismatch for %v", err)
	}
	if pipeline.AsError(err).Retryable() {
		t.Fatal("ALREADY_EXISTS must not be retryable")
	}
	internal := pipeline.Internal("boom", errors.New("locked"))
	if !internal.Retryable() || !errors.Is(internal, pipeline.ErrInternal) {
		t.Fatalf("internal error should be retryable: %v", internal)
	}
}

func TestMissingPrerequisiteMessageListsChecks(t *testing.T) {
	err := pipeline.MissingPrerequisite([]pipeline.Violation{
		{Code: pipeline.CheckTitleRequired},
		{Code: pipeline.CheckContributorRequired},
	})
	msg := err.Error()
	if !strings.HasPrefix(msg, "MISSING_PREREQUISITE") || !strings.Contains(msg, pipeline.CheckContributorRequired) {
		t.Fatalf("unexpected message %q", msg)
	}
	if err.ErrorKind() != "missing_prerequisite" {
		t.Fatalf("unexpected kind %q", err.ErrorKind())
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if pipeline.CodeOf(nil) != "" {
		t.Fatal("nil error should have empty code")
	}
	if pipeline.CodeOf(errors.New("x")) != pipeline.CodeInternal {
		t.Fatal("plain errors classify as internal")
	}
}
