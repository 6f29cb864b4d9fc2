package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AssignDirector sets the director on an existing script.
func (s *Store) AssignDirector(ctx context.Context, scriptID, directorRef int64) error {
	return s.updateOne(ctx, "assign director",
		"UPDATE scripts SET director_ref = ?, updated_at = ? WHERE id = ?",
		nullableRef(directorRef), formatTime(time.Now()), scriptID)
}

// UpdateWriterNotes replaces the free-form notes on a script.
func (s *Store) UpdateWriterNotes(ctx context.Context, scriptID int64, notes string) error {
	return s.updateOne(ctx, "update writer notes",
		"UPDATE scripts SET writer_notes = ?, updated_at = ? WHERE id = ?",
		nullableString(strings.TrimSpace(notes)), formatTime(time.Now()), scriptID)
}

// AssignEditor sets the editor on an existing production.
func (s *Store) AssignEditor(ctx context.Context, productionID, editorRef int64) error {
	return s.updateOne(ctx, "assign editor",
		"UPDATE productions SET editor_ref = ?, updated_at = ? WHERE id = ?",
		nullableRef(editorRef), formatTime(time.Now()), productionID)
}

// CompleteProduction records the completion signal on a production. A nil
// completedAt clears it.
func (s *Store) CompleteProduction(ctx context.Context, productionID int64, completedAt *time.Time) error {
	return s.updateOne(ctx, "complete production",
		"UPDATE productions SET completed_at = ?, updated_at = ? WHERE id = ?",
		nullableTime(completedAt), formatTime(time.Now()), productionID)
}

// SetSocialApproval records the approval decision on an unpublished social post.
func (s *Store) SetSocialApproval(ctx context.Context, socialPostID int64, approved bool) error {
	return s.updateUnpublished(ctx, "set approval", socialPostID,
		"UPDATE social_posts SET approved = ?, updated_at = ? WHERE id = ? AND status <> 'published'",
		boolToInt(approved), formatTime(time.Now()), socialPostID)
}

// ScheduleSocialPost moves an unpublished post to scheduled. A nil time
// reverts it to draft.
func (s *Store) ScheduleSocialPost(ctx context.Context, socialPostID int64, at *time.Time) error {
	status := PostScheduled
	if at == nil {
		status = PostDraft
	}
	return s.updateUnpublished(ctx, "schedule social post", socialPostID,
		"UPDATE social_posts SET status = ?, scheduled_for = ?, updated_at = ? WHERE id = ? AND status <> 'published'",
		string(status), nullableTime(at), formatTime(time.Now()), socialPostID)
}

// UpdateCaption replaces the caption on an unpublished social post.
func (s *Store) UpdateCaption(ctx context.Context, socialPostID int64, caption string) error {
	return s.updateUnpublished(ctx, "update caption", socialPostID,
		"UPDATE social_posts SET caption = ?, updated_at = ? WHERE id = ? AND status <> 'published'",
		nullableString(strings.TrimSpace(caption)), formatTime(time.Now()), socialPostID)
}

func (s *Store) updateOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// updateUnpublished runs a social post edit guarded on status <> 'published'.
// A published post yields ErrConflict.
func (s *Store) updateUnpublished(ctx context.Context, op string, socialPostID int64, query string, args ...any) error {
	err := s.updateOne(ctx, op, query, args...)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	var status string
	switch scanErr := s.db.QueryRowContext(ctx, "SELECT status FROM social_posts WHERE id = ?", socialPostID).Scan(&status); {
	case errors.Is(scanErr, sql.ErrNoRows):
		return ErrNotFound
	case scanErr != nil:
		return fmt.Errorf("%s: %w", op, scanErr)
	default:
		return fmt.Errorf("%w: social post %d is already published", ErrConflict, socialPostID)
	}
}
