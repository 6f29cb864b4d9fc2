package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// InsertScript creates the Script for ideaID if none exists yet. The insert and
// the history row commit together. A second caller gets ErrConflict. The idea
// must still have a title, plus whatever ready requires, at the moment of the
// insert; otherwise the result is ErrIdeaIncomplete.
func (s *Store) InsertScript(ctx context.Context, ideaID int64, ready Readiness, rec TransitionRecord) (int64, error) {
	insert := `INSERT INTO scripts (idea_id, note, created_at, updated_at)
                 SELECT i.id, ?, ?, ? FROM ideas i WHERE i.id = ? AND i.title <> ''`
	if ready.Contributor {
		insert += " AND i.contributor_ref IS NOT NULL"
	}
	if ready.ScriptWriter {
		insert += " AND i.script_writer_ref IS NOT NULL"
	}
	return s.guardedInsert(ctx, guardedInsert{
		kind:         "script",
		ideaID:       func(*sql.Tx) (int64, error) { return ideaID, nil },
		insert:       insert + " ON CONFLICT(idea_id) DO NOTHING",
		parentExists: "SELECT EXISTS(SELECT 1 FROM ideas WHERE id = ?)",
		childExists:  "SELECT EXISTS(SELECT 1 FROM scripts WHERE idea_id = ?)",
		notReady:     ErrIdeaIncomplete,
		parentID:     ideaID,
	}, rec)
}

// InsertProduction creates the Production for scriptID if none exists yet.
// With ready.Director set, the insert only applies while the script has a
// director; otherwise zero rows yield ErrDirectorMissing.
func (s *Store) InsertProduction(ctx context.Context, scriptID int64, ready Readiness, rec TransitionRecord) (int64, error) {
	insert := `INSERT INTO productions (script_id, note, created_at, updated_at)
                 SELECT s.id, ?, ?, ? FROM scripts s WHERE s.id = ?`
	if ready.Director {
		insert += " AND s.director_ref IS NOT NULL"
	}
	return s.guardedInsert(ctx, guardedInsert{
		kind: "production",
		ideaID: func(tx *sql.Tx) (int64, error) {
			return lookupID(ctx, tx, "SELECT idea_id FROM scripts WHERE id = ?", scriptID)
		},
		insert:       insert + " ON CONFLICT(script_id) DO NOTHING",
		parentExists: "SELECT EXISTS(SELECT 1 FROM scripts WHERE id = ?)",
		childExists:  "SELECT EXISTS(SELECT 1 FROM productions WHERE script_id = ?)",
		notReady:     ErrDirectorMissing,
		parentID:     scriptID,
	}, rec)
}

// InsertSocialPost creates the draft SocialPost for productionID if none exists
// yet. With ready.ProductionComplete set, the insert only applies while the
// production is marked complete; otherwise zero rows yield ErrProductionIncomplete.
func (s *Store) InsertSocialPost(ctx context.Context, productionID int64, ready Readiness, rec TransitionRecord) (int64, error) {
	insert := `INSERT INTO social_posts (production_id, status, approved, note, created_at, updated_at)
                 SELECT p.id, 'draft', 0, ?, ?, ? FROM productions p WHERE p.id = ?`
	if ready.ProductionComplete {
		insert += " AND p.completed_at IS NOT NULL"
	}
	return s.guardedInsert(ctx, guardedInsert{
		kind: "social post",
		ideaID: func(tx *sql.Tx) (int64, error) {
			return lookupID(ctx, tx,
				"SELECT s.idea_id FROM productions p JOIN scripts s ON s.id = p.script_id WHERE p.id = ?", productionID)
		},
		insert:       insert + " ON CONFLICT(production_id) DO NOTHING",
		parentExists: "SELECT EXISTS(SELECT 1 FROM productions WHERE id = ?)",
		childExists:  "SELECT EXISTS(SELECT 1 FROM social_posts WHERE production_id = ?)",
		notReady:     ErrProductionIncomplete,
		parentID:     productionID,
	}, rec)
}

// guardedInsert describes one conditional child insert. When the insert
// affects no rows, the child exists (ErrConflict), the parent is gone
// (ErrParentMissing), or the parent failed the insert's readiness condition
// (notReady).
type guardedInsert struct {
	kind         string
	ideaID       func(tx *sql.Tx) (int64, error)
	insert       string
	parentExists string
	childExists  string
	notReady     error
	parentID     int64
}

func (s *Store) guardedInsert(ctx context.Context, g guardedInsert, rec TransitionRecord) (int64, error) {
	var childID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := formatTime(time.Now())
		res, err := tx.ExecContext(ctx, g.insert, nullableString(strings.TrimSpace(rec.Note)), now, now, g.parentID)
		if err != nil {
			return fmt.Errorf("insert %s: %w", g.kind, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert %s: %w", g.kind, err)
		}
		if affected == 0 {
			return g.explainNoop(ctx, tx)
		}
		if childID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("%s id: %w", g.kind, err)
		}
		ideaID, err := g.ideaID(tx)
		if err != nil {
			return err
		}
		return recordTransition(ctx, tx, ideaID, childID, rec, now)
	})
	if err != nil {
		return 0, err
	}
	return childID, nil
}

func (g guardedInsert) explainNoop(ctx context.Context, tx *sql.Tx) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, g.parentExists, g.parentID).Scan(&exists); err != nil {
		return fmt.Errorf("check %s parent: %w", g.kind, err)
	}
	if !exists {
		return ErrParentMissing
	}
	if err := tx.QueryRowContext(ctx, g.childExists, g.parentID).Scan(&exists); err != nil {
		return fmt.Errorf("check existing %s: %w", g.kind, err)
	}
	if exists || g.notReady == nil {
		return ErrConflict
	}
	return g.notReady
}

// PublishSocialPost marks the social post published. The update is guarded so
// it only applies while the post is unpublished and, when requireApproved is
// set, approved. Zero affected rows are explained as ErrNotFound, ErrConflict,
// or ErrNotApproved.
func (s *Store) PublishSocialPost(ctx context.Context, socialPostID int64, requireApproved bool, rec TransitionRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := formatTime(time.Now())
		query := `UPDATE social_posts
                  SET status = 'published', approved = 1, published_at = ?, updated_at = ?,
                      note = COALESCE(?, note)
                  WHERE id = ? AND status <> 'published'`
		if requireApproved {
			query += " AND approved = 1"
		}
		res, err := tx.ExecContext(ctx, query, now, now, nullableString(strings.TrimSpace(rec.Note)), socialPostID)
		if err != nil {
			return fmt.Errorf("publish social post: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("publish social post: %w", err)
		}
		if affected == 0 {
			var (
				status   string
				approved bool
			)
			err := tx.QueryRowContext(ctx, "SELECT status, approved FROM social_posts WHERE id = ?", socialPostID).Scan(&status, &approved)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				return ErrNotFound
			case err != nil:
				return fmt.Errorf("check social post: %w", err)
			case PostStatus(status) == PostPublished:
				return ErrConflict
			case !approved:
				return ErrNotApproved
			default:
				return fmt.Errorf("publish social post %d: no rows updated", socialPostID)
			}
		}
		ideaID, err := lookupID(ctx, tx,
			`SELECT s.idea_id FROM social_posts sp
             JOIN productions p ON p.id = sp.production_id
             JOIN scripts s ON s.id = p.script_id
             WHERE sp.id = ?`, socialPostID)
		if err != nil {
			return err
		}
		return recordTransition(ctx, tx, ideaID, socialPostID, rec, now)
	})
}

func lookupID(ctx context.Context, tx *sql.Tx, query string, arg int64) (int64, error) {
	var id int64
	if err := tx.QueryRowContext(ctx, query, arg).Scan(&id); err != nil {
		return 0, fmt.Errorf("resolve idea for transition: %w", err)
	}
	return id, nil
}

func recordTransition(ctx context.Context, tx *sql.Tx, ideaID, artifactID int64, rec TransitionRecord, now string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stage_transitions (idea_id, from_stage, to_stage, artifact_id, note, request_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ideaID,
		rec.FromStage,
		rec.ToStage,
		artifactID,
		nullableString(strings.TrimSpace(rec.Note)),
		nullableString(rec.RequestID),
		now,
	); err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}
