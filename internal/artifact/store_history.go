package artifact

import (
	"context"
	"database/sql"
	"fmt"
)

// Transitions returns the recorded stage history for an idea, oldest first.
func (s *Store) Transitions(ctx context.Context, ideaID int64) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, idea_id, from_stage, to_stage, artifact_id, note, request_id, created_at
         FROM stage_transitions WHERE idea_id = ? ORDER BY id`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var (
			t          Transition
			note       sql.NullString
			requestID  sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&t.ID, &t.IdeaID, &t.FromStage, &t.ToStage, &t.ArtifactID, &note, &requestID, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.Note = note.String
		t.RequestID = requestID.String
		t.CreatedAt, _ = parseTimeString(createdRaw)
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountChildren reports how many scripts, productions, and social posts hang
// off an idea. Tests use it to assert that no duplicate child was written.
func (s *Store) CountChildren(ctx context.Context, ideaID int64) (scripts, productions, posts int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT
             (SELECT COUNT(1) FROM scripts WHERE idea_id = ?),
             (SELECT COUNT(1) FROM productions p JOIN scripts s ON s.id = p.script_id WHERE s.idea_id = ?),
             (SELECT COUNT(1) FROM social_posts sp JOIN productions p ON p.id = sp.production_id
                  JOIN scripts s ON s.id = p.script_id WHERE s.idea_id = ?)`,
		ideaID, ideaID, ideaID,
	).Scan(&scripts, &productions, &posts)
	if err != nil {
		err = fmt.Errorf("count children: %w", err)
	}
	return scripts, productions, posts, err
}
