package artifact

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced row does not exist.
	ErrNotFound = errors.New("artifact not found")
	// ErrConflict indicates a guarded write lost because its target already exists
	// (child already created, or social post already published).
	ErrConflict = errors.New("artifact already exists")
	// ErrParentMissing indicates a guarded insert found no parent row to link to.
	ErrParentMissing = errors.New("parent artifact missing")
	// ErrNotApproved indicates the publish guard rejected an unapproved social post.
	ErrNotApproved = errors.New("social post not approved")
	// ErrNotReady indicates a guarded insert's parent no longer met the
	// readiness condition re-checked inside the insert statement.
	ErrNotReady = errors.New("parent artifact not ready")
	// ErrIdeaIncomplete: the idea lost its title or a required collaborator.
	ErrIdeaIncomplete = fmt.Errorf("%w: idea incomplete", ErrNotReady)
	// ErrDirectorMissing: the script has no director.
	ErrDirectorMissing = fmt.Errorf("%w: script has no director", ErrNotReady)
	// ErrProductionIncomplete: the production is not marked complete.
	ErrProductionIncomplete = fmt.Errorf("%w: production not complete", ErrNotReady)
	// ErrInvalidInput indicates a field value was rejected before reaching SQL.
	ErrInvalidInput = errors.New("invalid artifact input")
)
