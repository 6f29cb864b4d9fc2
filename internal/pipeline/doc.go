// Package pipeline holds the pure rules of the content pipeline: the ordered
// stage list, the resolver that derives an idea's stage from its artifact
// chain, the per-stage prerequisite validators, and the error taxonomy shared
// by every caller.
//
// Nothing here touches storage. Resolve and Registry.Validate operate on an
// artifact.Chain snapshot, which keeps them deterministic and independently
// testable.
package pipeline
