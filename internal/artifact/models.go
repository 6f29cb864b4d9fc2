package artifact

import (
	"fmt"
	"strings"
	"time"
)

// Priority ranks ideas for downstream planning. It does not affect the pipeline stage.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority normalizes a priority string. Empty input yields PriorityMedium.
func ParsePriority(value string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(value))); p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, value)
	}
}

// PostStatus is the publication state of a social post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostScheduled PostStatus = "scheduled"
	PostPublished PostStatus = "published"
)

// DefaultIdeaStatus is assigned to ideas submitted without an explicit status.
const DefaultIdeaStatus = "submitted"

// Idea is the root of a pipeline chain. Ref fields are collaborator identifiers;
// zero means unassigned.
type Idea struct {
	ID              int64
	Title           string
	Description     string
	ContributorRef  int64
	ScriptWriterRef int64
	Priority        Priority
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Script is the Script-stage artifact. At most one exists per idea.
type Script struct {
	ID          int64
	IdeaID      int64
	DirectorRef int64
	WriterNotes string
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Production is the Production-stage artifact. At most one exists per script.
type Production struct {
	ID          int64
	ScriptID    int64
	EditorRef   int64
	CompletedAt *time.Time
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SocialPost is the Social-stage artifact. Publishing mutates it in place.
type SocialPost struct {
	ID           int64
	ProductionID int64
	Status       PostStatus
	Approved     bool
	Caption      string
	ScheduledFor *time.Time
	PublishedAt  *time.Time
	Note         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Chain is a consistent snapshot of an idea and whichever downstream artifacts
// exist. Absent artifacts are nil.
type Chain struct {
	Idea       *Idea
	Script     *Script
	Production *Production
	SocialPost *SocialPost
}

// NewIdea carries the fields accepted when an idea is submitted.
type NewIdea struct {
	Title           string
	Description     string
	ContributorRef  int64
	ScriptWriterRef int64
	Priority        Priority
	Status          string
}

// IdeaUpdate lists idea fields to change. Nil pointers leave the column untouched.
type IdeaUpdate struct {
	Title           *string
	Description     *string
	ContributorRef  *int64
	ScriptWriterRef *int64
	Priority        *Priority
	Status          *string
}

// ListFilter narrows Chains. Zero values match everything.
type ListFilter struct {
	Priority Priority
	Status   string
	Limit    int
}

// Readiness selects the prerequisite columns a guarded insert re-checks in
// the same statement that creates the child. The zero value checks only the
// idea title.
type Readiness struct {
	Contributor        bool
	ScriptWriter       bool
	Director           bool
	ProductionComplete bool
}

// TransitionRecord is written alongside a guarded chain write.
type TransitionRecord struct {
	FromStage string
	ToStage   string
	Note      string
	RequestID string
}

// Transition is one row of an idea's stage history.
type Transition struct {
	ID         int64
	IdeaID     int64
	FromStage  string
	ToStage    string
	ArtifactID int64
	Note       string
	RequestID  string
	CreatedAt  time.Time
}

// DatabaseHealth captures diagnostic information about the artifact database.
type DatabaseHealth struct {
	DBPath         string
	SchemaVersion  int
	IntegrityCheck bool
	TotalIdeas     int
	Error          string
}
