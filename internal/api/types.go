package api

import "storyline/internal/pipeline"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Idea describes an idea in a transport-friendly format.
type Idea struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	ContributorRef  int64  `json:"contributor_ref,omitempty"`
	ScriptWriterRef int64  `json:"script_writer_ref,omitempty"`
	Priority        string `json:"priority"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// Script is the Script-stage artifact.
type Script struct {
	ID          int64  `json:"id"`
	IdeaID      int64  `json:"idea_id"`
	DirectorRef int64  `json:"director_ref,omitempty"`
	WriterNotes string `json:"writer_notes,omitempty"`
	Note        string `json:"note,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Production is the Production-stage artifact.
type Production struct {
	ID          int64  `json:"id"`
	ScriptID    int64  `json:"script_id"`
	EditorRef   int64  `json:"editor_ref,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	Note        string `json:"note,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// SocialPost is the Social-stage artifact.
type SocialPost struct {
	ID           int64  `json:"id"`
	ProductionID int64  `json:"production_id"`
	Status       string `json:"status"`
	Approved     bool   `json:"approved"`
	Caption      string `json:"caption,omitempty"`
	ScheduledFor string `json:"scheduled_for,omitempty"`
	PublishedAt  string `json:"published_at,omitempty"`
	Note         string `json:"note,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// DetailResponse is the aggregated view of one idea. Absent artifacts are null.
type DetailResponse struct {
	Idea           Idea        `json:"idea"`
	Script         *Script     `json:"script"`
	Production     *Production `json:"production"`
	SocialPost     *SocialPost `json:"social_post"`
	Stage          string      `json:"stage"`
	CanMoveForward bool        `json:"canMoveForward"`
}

// ValidationResponse is the read-only pre-flight report. CanMoveForward
// follows the resolver; Ready additionally requires an empty violation list.
type ValidationResponse struct {
	IdeaID           int64                `json:"idea_id"`
	Stage            string               `json:"stage"`
	CanMoveForward   bool                 `json:"canMoveForward"`
	Ready            bool                 `json:"ready"`
	ValidationErrors []pipeline.Violation `json:"validationErrors"`
}

// MoveForwardRequest is the body of a move-forward call. ExpectedStage names
// the stage the caller saw and is required.
type MoveForwardRequest struct {
	Note          string `json:"note,omitempty"`
	ExpectedStage string `json:"expected_stage"`
}

// MoveForwardResponse reports a committed transition. Exactly one artifact id is set.
type MoveForwardResponse struct {
	Success         bool   `json:"success"`
	StageTransition string `json:"stage_transition"`
	FromStage       string `json:"from_stage"`
	ToStage         string `json:"to_stage"`
	ScriptID        int64  `json:"script_id,omitempty"`
	ProductionID    int64  `json:"production_id,omitempty"`
	SocialPostID    int64  `json:"social_post_id,omitempty"`
}

// SubmitIdeaRequest creates a new idea at stage Idea.
type SubmitIdeaRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	ContributorRef  int64  `json:"contributor_ref,omitempty"`
	ScriptWriterRef int64  `json:"script_writer_ref,omitempty"`
	Priority        string `json:"priority,omitempty"`
	Status          string `json:"status,omitempty"`
}

// IdeaResponse wraps a single idea.
type IdeaResponse struct {
	Idea Idea `json:"idea"`
}

// IdeaSummary is one row of a stage listing.
type IdeaSummary struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Priority       string `json:"priority"`
	Status         string `json:"status"`
	Stage          string `json:"stage"`
	CanMoveForward bool   `json:"canMoveForward"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// ListQuery narrows a listing. Empty fields match everything.
type ListQuery struct {
	Stage    string
	Priority string
	Status   string
	Limit    int
}

// ListResponse wraps a collection of idea summaries.
type ListResponse struct {
	Items []IdeaSummary `json:"items"`
}

// Transition is one history row.
type Transition struct {
	ID         int64  `json:"id"`
	FromStage  string `json:"from_stage"`
	ToStage    string `json:"to_stage"`
	ArtifactID int64  `json:"artifact_id"`
	Note       string `json:"note,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// HistoryResponse lists an idea's transitions, oldest first.
type HistoryResponse struct {
	IdeaID      int64        `json:"idea_id"`
	Transitions []Transition `json:"transitions"`
}

// HealthResponse is served unauthenticated by the daemon.
type HealthResponse struct {
	Status        string `json:"status"`
	SchemaVersion int    `json:"schema_version,omitempty"`
	TotalIdeas    int    `json:"total_ideas"`
	Error         string `json:"error,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error            string               `json:"error"`
	Code             string               `json:"code"`
	ValidationErrors []pipeline.Violation `json:"validationErrors,omitempty"`
}
