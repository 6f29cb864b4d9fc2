package pipeline

import (
	"storyline/internal/artifact"
)

// Resolution is the derived pipeline position of one idea.
type Resolution struct {
	Stage          Stage
	IdeaID         int64
	ScriptID       int64
	ProductionID   int64
	SocialPostID   int64
	CanMoveForward bool
}

// Resolve derives the stage from which artifacts exist in chain. A nil chain
// or nil idea yields NOT_FOUND.
func Resolve(chain *artifact.Chain) (Resolution, error) {
	if chain == nil || chain.Idea == nil {
		return Resolution{}, NotFound("idea not found")
	}

	res := Resolution{Stage: StageIdea, IdeaID: chain.Idea.ID}
	switch {
	case chain.Script == nil:
	case chain.Production == nil:
		res.Stage = StageScript
	case chain.SocialPost == nil:
		res.Stage = StageProduction
	case chain.SocialPost.Status != artifact.PostPublished:
		res.Stage = StageSocial
	default:
		res.Stage = StagePublished
	}

	if chain.Script != nil {
		res.ScriptID = chain.Script.ID
	}
	if chain.Production != nil {
		res.ProductionID = chain.Production.ID
	}
	if chain.SocialPost != nil {
		res.SocialPostID = chain.SocialPost.ID
	}
	res.CanMoveForward = !res.Stage.Terminal()
	return res, nil
}
