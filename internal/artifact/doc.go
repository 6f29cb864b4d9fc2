// Package artifact persists the content pipeline chain in SQLite.
//
// An idea is the root row; scripts, productions, and social posts each link to
// their predecessor through a UNIQUE foreign key so the storage layer, not
// application code, guarantees at most one child per parent. Chain writers
// (InsertScript, InsertProduction, InsertSocialPost, PublishSocialPost) are
// single conditional statements executed inside one immediate transaction
// together with the stage_transitions history row; a lost race is reported as
// ErrConflict rather than as a storage failure. Each insert also re-checks the
// parent conditions named by its Readiness, so a parent edited after
// validation yields an ErrNotReady sentinel and no child.
//
// The package never stores a pipeline stage. Callers derive it from the Chain
// snapshot returned by Chain or Chains.
package artifact
