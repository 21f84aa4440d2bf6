// Package journal keeps a Postgres record of every submission the academy
// API accepted.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/attendance"
)

// Entry is one accepted submission.
type Entry struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	RosterID    string            `json:"roster_id"`
	SubmittedBy string            `json:"submitted_by"`
	Mode        string            `json:"mode"`
	Present     int               `json:"present"`
	Absent      int               `json:"absent"`
	Total       int               `json:"total"`
	Marks       []attendance.Mark `json:"marks"`
	SubmittedAt time.Time         `json:"submitted_at"`
	CreatedAt   time.Time         `json:"created_at"`
}

// FromSubmitted builds an entry from a submission event.
func FromSubmitted(evt attendance.Submitted) Entry {
	return Entry{
		SessionID:   evt.SessionID,
		RosterID:    evt.RosterID,
		SubmittedBy: evt.SubmittedBy,
		Mode:        string(evt.Mode),
		Present:     evt.Counts.Present,
		Absent:      evt.Counts.Absent,
		Total:       evt.Counts.Total,
		Marks:       evt.Marks,
		SubmittedAt: evt.SubmittedAt,
	}
}

// Repository persists entries in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS attendance_submissions (
	id           UUID PRIMARY KEY,
	session_id   TEXT NOT NULL,
	roster_id    TEXT NOT NULL,
	submitted_by TEXT NOT NULL DEFAULT '',
	mode         TEXT NOT NULL,
	present      INTEGER NOT NULL,
	absent       INTEGER NOT NULL,
	total        INTEGER NOT NULL,
	marks        JSONB NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (roster_id)
);
CREATE INDEX IF NOT EXISTS attendance_submissions_session_idx
	ON attendance_submissions (session_id, submitted_at DESC);
`

// EnsureSchema creates the journal table if needed.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Record writes an entry. Replaying the same roster's event is a no-op.
func (r *Repository) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.SessionID == "" {
		return Entry{}, errors.New("journal: session id required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RosterID == "" {
		e.RosterID = e.ID
	}
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = time.Now().UTC()
	}
	if e.Marks == nil {
		e.Marks = []attendance.Mark{}
	}
	marks, err := json.Marshal(e.Marks)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: encode marks: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_submissions
			(id, session_id, roster_id, submitted_by, mode, present, absent, total, marks, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (roster_id) DO NOTHING
		RETURNING created_at
	`, e.ID, e.SessionID, e.RosterID, e.SubmittedBy, e.Mode, e.Present, e.Absent, e.Total, marks, e.SubmittedAt)
	if err := row.Scan(&e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, nil
		}
		return Entry{}, err
	}
	return e, nil
}

// ListBySession returns a session's entries, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, roster_id, submitted_by, mode, present, absent, total, marks, submitted_at, created_at
		FROM attendance_submissions
		WHERE session_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []Entry{}
	for rows.Next() {
		var (
			e     Entry
			marks []byte
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.RosterID, &e.SubmittedBy, &e.Mode,
			&e.Present, &e.Absent, &e.Total, &marks, &e.SubmittedAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(marks, &e.Marks); err != nil {
			return nil, fmt.Errorf("journal: decode marks of %s: %w", e.ID, err)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
