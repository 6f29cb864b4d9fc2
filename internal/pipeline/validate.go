package pipeline

import (
	"strings"

	"storyline/internal/artifact"
	"storyline/internal/config"
)

const (
	CheckTitleRequired        = "TITLE_REQUIRED"
	CheckContributorRequired  = "CONTRIBUTOR_REQUIRED"
	CheckScriptWriterRequired = "SCRIPT_WRITER_REQUIRED"
	CheckDirectorRequired     = "DIRECTOR_REQUIRED"
	CheckProductionIncomplete = "PRODUCTION_INCOMPLETE"
	CheckSocialNotApproved    = "SOCIAL_NOT_APPROVED"
	CheckArtifactMissing      = "ARTIFACT_MISSING"
)

// Violation is one failed prerequisite check.
type Violation struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator checks that the artifact of one stage is complete enough for its
// child to be created.
type Validator interface {
	Stage() Stage
	Validate(chain *artifact.Chain) []Violation
}

// Registry selects the validator for a resolved stage.
type Registry struct {
	validators      map[Stage]Validator
	requireApproval bool
	ready           artifact.Readiness
}

// NewRegistry builds the default per-stage validators. The Idea-stage title
// rule is always enforced; the rest follow the supplied toggles.
func NewRegistry(rules config.Pipeline) *Registry {
	r := NewRegistryWith(rules.RequireSocialApproval,
		ideaValidator{requireContributor: rules.RequireContributor, requireScriptWriter: rules.RequireScriptWriter},
		scriptValidator{requireDirector: rules.RequireDirector},
		productionValidator{requireComplete: rules.RequireProductionComplete},
		socialValidator{requireApproval: rules.RequireSocialApproval},
	)
	r.ready = artifact.Readiness{
		Contributor:        rules.RequireContributor,
		ScriptWriter:       rules.RequireScriptWriter,
		Director:           rules.RequireDirector,
		ProductionComplete: rules.RequireProductionComplete,
	}
	return r
}

// NewRegistryWith registers custom validators. Later entries replace earlier
// ones for the same stage.
func NewRegistryWith(requireApproval bool, validators ...Validator) *Registry {
	r := &Registry{validators: make(map[Stage]Validator, len(validators)), requireApproval: requireApproval}
	for _, v := range validators {
		r.validators[v.Stage()] = v
	}
	return r
}

// Validate runs the validator registered for stage. Stages without a
// validator, including Published, have no prerequisites.
func (r *Registry) Validate(stage Stage, chain *artifact.Chain) []Violation {
	if r == nil {
		return nil
	}
	v, ok := r.validators[stage]
	if !ok {
		return nil
	}
	return v.Validate(chain)
}

// RequireApproval reports whether publishing must be guarded on approved = 1.
func (r *Registry) RequireApproval() bool {
	return r != nil && r.requireApproval
}

// Readiness returns the parent conditions the store re-checks inside each
// guarded insert. Registries built with NewRegistryWith rely on validation alone.
func (r *Registry) Readiness() artifact.Readiness {
	if r == nil {
		return artifact.Readiness{}
	}
	return r.ready
}

type ideaValidator struct {
	requireContributor  bool
	requireScriptWriter bool
}

func (ideaValidator) Stage() Stage { return StageIdea }

func (v ideaValidator) Validate(chain *artifact.Chain) []Violation {
	if chain == nil || chain.Idea == nil {
		return []Violation{artifactMissing("idea")}
	}
	var out []Violation
	if strings.TrimSpace(chain.Idea.Title) == "" {
		out = append(out, Violation{Code: CheckTitleRequired, Field: "title", Message: "title is required"})
	}
	if v.requireContributor && chain.Idea.ContributorRef <= 0 {
		out = append(out, Violation{Code: CheckContributorRequired, Field: "contributor_ref", Message: "a contributor must be assigned"})
	}
	if v.requireScriptWriter && chain.Idea.ScriptWriterRef <= 0 {
		out = append(out, Violation{Code: CheckScriptWriterRequired, Field: "script_writer_ref", Message: "a script writer must be assigned"})
	}
	return out
}

type scriptValidator struct {
	requireDirector bool
}

func (scriptValidator) Stage() Stage { return StageScript }

func (v scriptValidator) Validate(chain *artifact.Chain) []Violation {
	if chain == nil || chain.Script == nil {
		return []Violation{artifactMissing("script")}
	}
	if v.requireDirector && chain.Script.DirectorRef <= 0 {
		return []Violation{directorRequired()}
	}
	return nil
}

type productionValidator struct {
	requireComplete bool
}

func (productionValidator) Stage() Stage { return StageProduction }

func (v productionValidator) Validate(chain *artifact.Chain) []Violation {
	if chain == nil || chain.Production == nil {
		return []Violation{artifactMissing("production")}
	}
	if v.requireComplete && chain.Production.CompletedAt == nil {
		return []Violation{productionIncomplete()}
	}
	return nil
}

type socialValidator struct {
	requireApproval bool
}

func (socialValidator) Stage() Stage { return StageSocial }

func (v socialValidator) Validate(chain *artifact.Chain) []Violation {
	if chain == nil || chain.SocialPost == nil {
		return []Violation{artifactMissing("social_post")}
	}
	if v.requireApproval && !chain.SocialPost.Approved {
		return []Violation{socialNotApproved()}
	}
	return nil
}

func directorRequired() Violation {
	return Violation{Code: CheckDirectorRequired, Field: "director_ref", Message: "a director must be assigned to the script"}
}

func productionIncomplete() Violation {
	return Violation{Code: CheckProductionIncomplete, Field: "completed_at", Message: "production must be marked complete"}
}

func socialNotApproved() Violation {
	return Violation{Code: CheckSocialNotApproved, Field: "approved", Message: "social post must be approved before publishing"}
}

func artifactMissing(field string) Violation {
	return Violation{Code: CheckArtifactMissing, Field: field, Message: field + " does not exist"}
}
