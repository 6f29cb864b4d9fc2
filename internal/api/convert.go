package api

import (
	"time"

	"storyline/internal/artifact"
	"storyline/internal/pipeline"
	"storyline/internal/transition"
)

// FromIdea converts a stored idea to its API representation.
func FromIdea(idea *artifact.Idea) Idea {
	if idea == nil {
		return Idea{}
	}
	return Idea{
		ID:              idea.ID,
		Title:           idea.Title,
		Description:     idea.Description,
		ContributorRef:  idea.ContributorRef,
		ScriptWriterRef: idea.ScriptWriterRef,
		Priority:        string(idea.Priority),
		Status:          idea.Status,
		CreatedAt:       formatTime(idea.CreatedAt),
		UpdatedAt:       formatTime(idea.UpdatedAt),
	}
}

// FromScript returns nil when no script exists.
func FromScript(script *artifact.Script) *Script {
	if script == nil {
		return nil
	}
	return &Script{
		ID:          script.ID,
		IdeaID:      script.IdeaID,
		DirectorRef: script.DirectorRef,
		WriterNotes: script.WriterNotes,
		Note:        script.Note,
		CreatedAt:   formatTime(script.CreatedAt),
		UpdatedAt:   formatTime(script.UpdatedAt),
	}
}

// FromProduction returns nil when no production exists.
func FromProduction(production *artifact.Production) *Production {
	if production == nil {
		return nil
	}
	return &Production{
		ID:          production.ID,
		ScriptID:    production.ScriptID,
		EditorRef:   production.EditorRef,
		CompletedAt: formatTimePtr(production.CompletedAt),
		Note:        production.Note,
		CreatedAt:   formatTime(production.CreatedAt),
		UpdatedAt:   formatTime(production.UpdatedAt),
	}
}

// FromSocialPost returns nil when no social post exists.
func FromSocialPost(post *artifact.SocialPost) *SocialPost {
	if post == nil {
		return nil
	}
	return &SocialPost{
		ID:           post.ID,
		ProductionID: post.ProductionID,
		Status:       string(post.Status),
		Approved:     post.Approved,
		Caption:      post.Caption,
		ScheduledFor: formatTimePtr(post.ScheduledFor),
		PublishedAt:  formatTimePtr(post.PublishedAt),
		Note:         post.Note,
		CreatedAt:    formatTime(post.CreatedAt),
		UpdatedAt:    formatTime(post.UpdatedAt),
	}
}

// FromChain builds the detail payload from a chain snapshot and its resolution.
func FromChain(chain *artifact.Chain, res pipeline.Resolution) DetailResponse {
	if chain == nil {
		return DetailResponse{}
	}
	return DetailResponse{
		Idea:           FromIdea(chain.Idea),
		Script:         FromScript(chain.Script),
		Production:     FromProduction(chain.Production),
		SocialPost:     FromSocialPost(chain.SocialPost),
		Stage:          string(res.Stage),
		CanMoveForward: res.CanMoveForward,
	}
}

// FromPreflight converts a pre-flight report. ValidationErrors is never nil.
func FromPreflight(report *transition.Preflight) ValidationResponse {
	if report == nil {
		return ValidationResponse{ValidationErrors: []pipeline.Violation{}}
	}
	violations := report.Violations
	if violations == nil {
		violations = []pipeline.Violation{}
	}
	return ValidationResponse{
		IdeaID:           report.IdeaID,
		Stage:            string(report.Stage),
		CanMoveForward:   report.CanMoveForward,
		Ready:            report.Ready(),
		ValidationErrors: violations,
	}
}

// FromOutcome converts a committed transition into the move-forward payload.
func FromOutcome(outcome *transition.Outcome) MoveForwardResponse {
	if outcome == nil {
		return MoveForwardResponse{}
	}
	resp := MoveForwardResponse{
		Success:         true,
		StageTransition: outcome.Label,
		FromStage:       string(outcome.From),
		ToStage:         string(outcome.To),
	}
	switch outcome.ArtifactKind {
	case transition.KindScript:
		resp.ScriptID = outcome.ArtifactID
	case transition.KindProduction:
		resp.ProductionID = outcome.ArtifactID
	case transition.KindSocialPost:
		resp.SocialPostID = outcome.ArtifactID
	}
	return resp
}

// FromSummary builds a listing row.
func FromSummary(chain *artifact.Chain, res pipeline.Resolution) IdeaSummary {
	if chain == nil || chain.Idea == nil {
		return IdeaSummary{}
	}
	return IdeaSummary{
		ID:             chain.Idea.ID,
		Title:          chain.Idea.Title,
		Priority:       string(chain.Idea.Priority),
		Status:         chain.Idea.Status,
		Stage:          string(res.Stage),
		CanMoveForward: res.CanMoveForward,
		UpdatedAt:      formatTime(latestUpdate(chain)),
	}
}

// FromTransitions converts history rows.
func FromTransitions(rows []artifact.Transition) []Transition {
	out := make([]Transition, 0, len(rows))
	for _, row := range rows {
		out = append(out, Transition{
			ID:         row.ID,
			FromStage:  row.FromStage,
			ToStage:    row.ToStage,
			ArtifactID: row.ArtifactID,
			Note:       row.Note,
			RequestID:  row.RequestID,
			CreatedAt:  formatTime(row.CreatedAt),
		})
	}
	return out
}

// FromError converts any error into the wire error body.
func FromError(err error) ErrorResponse {
	pe := pipeline.AsError(err)
	if pe == nil {
		return ErrorResponse{}
	}
	msg := pe.Message
	if pe.Code == pipeline.CodeInternal {
		// Storage details stay in the daemon log.
		msg = "internal error"
	}
	return ErrorResponse{
		Error:            msg,
		Code:             string(pe.Code),
		ValidationErrors: pe.Violations,
	}
}

// ToError rebuilds a *pipeline.Error from a decoded error body.
func ToError(body ErrorResponse) *pipeline.Error {
	code := pipeline.Code(body.Code)
	if code == "" {
		code = pipeline.CodeInternal
	}
	return &pipeline.Error{Code: code, Message: body.Error, Violations: body.ValidationErrors}
}

// latestUpdate returns the newest UpdatedAt across the chain.
func latestUpdate(chain *artifact.Chain) time.Time {
	latest := chain.Idea.UpdatedAt
	consider := func(ts time.Time) {
		if ts.After(latest) {
			latest = ts
		}
	}
	if chain.Script != nil {
		consider(chain.Script.UpdatedAt)
	}
	if chain.Production != nil {
		consider(chain.Production.UpdatedAt)
	}
	if chain.SocialPost != nil {
		consider(chain.SocialPost.UpdatedAt)
	}
	return latest
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(dateTimeFormat)
}

func formatTimePtr(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return formatTime(*ts)
}
