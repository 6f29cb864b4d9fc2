package artifact

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const ideaColumns = "i.id, i.title, i.description, i.contributor_ref, i.script_writer_ref, i.priority, i.status, i.created_at, i.updated_at"

const chainColumns = ideaColumns + `,
    s.id, s.idea_id, s.director_ref, s.writer_notes, s.note, s.created_at, s.updated_at,
    p.id, p.script_id, p.editor_ref, p.completed_at, p.note, p.created_at, p.updated_at,
    sp.id, sp.production_id, sp.status, sp.approved, sp.caption, sp.scheduled_for, sp.published_at, sp.note, sp.created_at, sp.updated_at`

const chainFrom = `FROM ideas i
    LEFT JOIN scripts s ON s.idea_id = i.id
    LEFT JOIN productions p ON p.script_id = s.id
    LEFT JOIN social_posts sp ON sp.production_id = p.id`

type rowScanner interface{ Scan(dest ...any) error }

func scanIdea(scanner rowScanner) (*Idea, error) {
	var (
		idea        Idea
		description sql.NullString
		contributor sql.NullInt64
		writer      sql.NullInt64
		priority    string
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(
		&idea.ID, &idea.Title, &description, &contributor, &writer,
		&priority, &idea.Status, &createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}
	idea.Description = description.String
	idea.ContributorRef = contributor.Int64
	idea.ScriptWriterRef = writer.Int64
	idea.Priority = Priority(priority)
	idea.CreatedAt, _ = parseTimeString(createdRaw)
	idea.UpdatedAt, _ = parseTimeString(updatedRaw)
	return &idea, nil
}

func scanChain(scanner rowScanner) (*Chain, error) {
	var (
		idea        Idea
		description sql.NullString
		contributor sql.NullInt64
		writer      sql.NullInt64
		priority    string
		ideaCreated string
		ideaUpdated string

		scriptID      sql.NullInt64
		scriptIdeaID  sql.NullInt64
		directorRef   sql.NullInt64
		writerNotes   sql.NullString
		scriptNote    sql.NullString
		scriptCreated sql.NullString
		scriptUpdated sql.NullString

		productionID       sql.NullInt64
		productionScriptID sql.NullInt64
		editorRef          sql.NullInt64
		completedAt        sql.NullString
		productionNote     sql.NullString
		productionCreated  sql.NullString
		productionUpdated  sql.NullString

		postID           sql.NullInt64
		postProductionID sql.NullInt64
		postStatus       sql.NullString
		approved         sql.NullInt64
		caption          sql.NullString
		scheduledFor     sql.NullString
		publishedAt      sql.NullString
		postNote         sql.NullString
		postCreated      sql.NullString
		postUpdated      sql.NullString
	)

	if err := scanner.Scan(
		&idea.ID, &idea.Title, &description, &contributor, &writer, &priority, &idea.Status, &ideaCreated, &ideaUpdated,
		&scriptID, &scriptIdeaID, &directorRef, &writerNotes, &scriptNote, &scriptCreated, &scriptUpdated,
		&productionID, &productionScriptID, &editorRef, &completedAt, &productionNote, &productionCreated, &productionUpdated,
		&postID, &postProductionID, &postStatus, &approved, &caption, &scheduledFor, &publishedAt, &postNote, &postCreated, &postUpdated,
	); err != nil {
		return nil, err
	}

	idea.Description = description.String
	idea.ContributorRef = contributor.Int64
	idea.ScriptWriterRef = writer.Int64
	idea.Priority = Priority(priority)
	idea.CreatedAt, _ = parseTimeString(ideaCreated)
	idea.UpdatedAt, _ = parseTimeString(ideaUpdated)
	chain := &Chain{Idea: &idea}

	if scriptID.Valid {
		chain.Script = &Script{
			ID:          scriptID.Int64,
			IdeaID:      scriptIdeaID.Int64,
			DirectorRef: directorRef.Int64,
			WriterNotes: writerNotes.String,
			Note:        scriptNote.String,
		}
		chain.Script.CreatedAt, _ = parseTimeString(scriptCreated.String)
		chain.Script.UpdatedAt, _ = parseTimeString(scriptUpdated.String)
	}
	if productionID.Valid {
		chain.Production = &Production{
			ID:          productionID.Int64,
			ScriptID:    productionScriptID.Int64,
			EditorRef:   editorRef.Int64,
			CompletedAt: parseNullableTime(completedAt),
			Note:        productionNote.String,
		}
		chain.Production.CreatedAt, _ = parseTimeString(productionCreated.String)
		chain.Production.UpdatedAt, _ = parseTimeString(productionUpdated.String)
	}
	if postID.Valid {
		chain.SocialPost = &SocialPost{
			ID:           postID.Int64,
			ProductionID: postProductionID.Int64,
			Status:       PostStatus(postStatus.String),
			Approved:     approved.Int64 != 0,
			Caption:      caption.String,
			ScheduledFor: parseNullableTime(scheduledFor),
			PublishedAt:  parseNullableTime(publishedAt),
			Note:         postNote.String,
		}
		chain.SocialPost.CreatedAt, _ = parseTimeString(postCreated.String)
		chain.SocialPost.UpdatedAt, _ = parseTimeString(postUpdated.String)
	}
	return chain, nil
}

// normalizeTitle trims surrounding whitespace and applies Unicode NFC so
// visually identical titles compare equal.
func normalizeTitle(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableRef(value int64) any {
	if value <= 0 {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	parsed, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
