package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateIdea inserts a new idea. The title is normalized but not required here;
// the pipeline rejects empty titles when the idea tries to leave the Idea stage.
func (s *Store) CreateIdea(ctx context.Context, in NewIdea) (*Idea, error) {
	priority, err := ParsePriority(string(in.Priority))
	if err != nil {
		return nil, err
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = DefaultIdeaStatus
	}
	now := time.Now().UTC()
	idea := &Idea{
		Title:           normalizeTitle(in.Title),
		Description:     strings.TrimSpace(in.Description),
		ContributorRef:  in.ContributorRef,
		ScriptWriterRef: in.ScriptWriterRef,
		Priority:        priority,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO ideas (title, description, contributor_ref, script_writer_ref, priority, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		idea.Title,
		nullableString(idea.Description),
		nullableRef(idea.ContributorRef),
		nullableRef(idea.ScriptWriterRef),
		string(idea.Priority),
		idea.Status,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert idea: %w", err)
	}
	if idea.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("idea id: %w", err)
	}
	return idea, nil
}

// GetIdea fetches an idea by id. It returns nil, nil when the idea does not exist.
func (s *Store) GetIdea(ctx context.Context, id int64) (*Idea, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+ideaColumns+" FROM ideas i WHERE i.id = ?", id)
	idea, err := scanIdea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idea: %w", err)
	}
	return idea, nil
}

// UpdateIdea applies the non-nil fields of update and returns the stored idea.
func (s *Store) UpdateIdea(ctx context.Context, id int64, update IdeaUpdate) (*Idea, error) {
	sets := make([]string, 0, 7)
	args := make([]any, 0, 8)
	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, normalizeTitle(*update.Title))
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullableString(strings.TrimSpace(*update.Description)))
	}
	if update.ContributorRef != nil {
		sets = append(sets, "contributor_ref = ?")
		args = append(args, nullableRef(*update.ContributorRef))
	}
	if update.ScriptWriterRef != nil {
		sets = append(sets, "script_writer_ref = ?")
		args = append(args, nullableRef(*update.ScriptWriterRef))
	}
	if update.Priority != nil {
		priority, err := ParsePriority(string(*update.Priority))
		if err != nil {
			return nil, err
		}
		sets = append(sets, "priority = ?")
		args = append(args, string(priority))
	}
	if update.Status != nil {
		status := strings.TrimSpace(*update.Status)
		if status == "" {
			return nil, fmt.Errorf("%w: status must not be empty", ErrInvalidInput)
		}
		sets = append(sets, "status = ?")
		args = append(args, status)
	}
	if len(sets) == 0 {
		idea, err := s.GetIdea(ctx, id)
		if err != nil {
			return nil, err
		}
		if idea == nil {
			return nil, ErrNotFound
		}
		return idea, nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(time.Now()), id)
	res, err := s.execWithRetry(ctx, "UPDATE ideas SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update idea: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update idea: %w", err)
	} else if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetIdea(ctx, id)
}
