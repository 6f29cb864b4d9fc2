package testsupport

import (
	"context"
	"testing"
	"time"

	"storyline/internal/artifact"
	"storyline/internal/config"
)

// MustOpenStore opens an artifact.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *artifact.Store {
	t.Helper()

	store, err := artifact.Open(cfg)
	if err != nil {
		t.Fatalf("artifact.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewIdea submits an idea that satisfies the Idea-stage rules.
func NewIdea(t testing.TB, store *artifact.Store, title string) *artifact.Idea {
	t.Helper()

	idea, err := store.CreateIdea(context.Background(), artifact.NewIdea{
		Title:           title,
		ContributorRef:  1,
		ScriptWriterRef: 1,
	})
	if err != nil {
		t.Fatalf("store.CreateIdea: %v", err)
	}
	return idea
}

// MustChain loads the chain for ideaID and fails the test if it is missing.
func MustChain(t testing.TB, store *artifact.Store, ideaID int64) *artifact.Chain {
	t.Helper()

	chain, err := store.Chain(context.Background(), ideaID)
	if err != nil {
		t.Fatalf("store.Chain: %v", err)
	}
	if chain == nil {
		t.Fatalf("idea %d not found", ideaID)
	}
	return chain
}

// PrepareCurrentStage fills in whatever the current stage's default rules
// require so the next move-forward call passes validation.
func PrepareCurrentStage(t testing.TB, store *artifact.Store, ideaID int64) {
	t.Helper()

	ctx := context.Background()
	chain := MustChain(t, store, ideaID)
	var err error
	switch {
	case chain.SocialPost != nil:
		err = store.SetSocialApproval(ctx, chain.SocialPost.ID, true)
	case chain.Production != nil:
		now := time.Now()
		err = store.CompleteProduction(ctx, chain.Production.ID, &now)
	case chain.Script != nil:
		err = store.AssignDirector(ctx, chain.Script.ID, 2)
	}
	if err != nil {
		t.Fatalf("prepare stage: %v", err)
	}
}
