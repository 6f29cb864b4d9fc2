package pipeline

import (
	"fmt"
	"strings"
)

// Stage is a pipeline position derived from which artifacts exist.
type Stage string

const (
	StageIdea       Stage = "Idea"
	StageScript     Stage = "Script"
	StageProduction Stage = "Production"
	StageSocial     Stage = "Social"
	StagePublished  Stage = "Published"
)

var stageOrder = []Stage{
	StageIdea,
	StageScript,
	StageProduction,
	StageSocial,
	StagePublished,
}

// AllStages returns the stages in pipeline order.
func AllStages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ParseStage accepts a stage name case-insensitively.
func ParseStage(value string) (Stage, error) {
	trimmed := strings.TrimSpace(value)
	for _, stage := range stageOrder {
		if strings.EqualFold(trimmed, string(stage)) {
			return stage, nil
		}
	}
	return "", InvalidInput(fmt.Sprintf("unknown stage %q", value))
}

// Index returns the zero-based position of s, or -1 for unknown stages.
func (s Stage) Index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Next returns the stage that follows s. It reports false for Published and
// unknown stages.
func (s Stage) Next() (Stage, bool) {
	idx := s.Index()
	if idx < 0 || idx >= len(stageOrder)-1 {
		return "", false
	}
	return stageOrder[idx+1], true
}

// Terminal reports whether no transition is defined out of s.
func (s Stage) Terminal() bool {
	return s == StagePublished
}

func (s Stage) String() string {
	return string(s)
}

// TransitionLabel renders the machine-readable transition label, e.g. "Idea -> Script".
func TransitionLabel(from, to Stage) string {
	return string(from) + " -> " + string(to)
}
