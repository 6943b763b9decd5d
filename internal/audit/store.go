// Package audit keeps a persistent log of dialog activity in SQLite.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/quickpanel/internal/events"
)

// DefaultLimit caps Recent when no limit is given.
const DefaultLimit = 50

// MaxLimit is the largest page Recent returns.
const MaxLimit = 1000

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one recorded event.
type Entry struct {
	ID        string          `json:"id"`
	EventID   int64           `json:"event_id"`
	Type      string          `json:"type"`
	Dialog    string          `json:"dialog,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Filter narrows Recent.
type Filter struct {
	Limit  int
	Dialog string
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append records ev and returns the stored entry.
func (s *Store) Append(ctx context.Context, ev events.Event) (Entry, error) {
	entry := Entry{
		ID:        uuid.NewString(),
		EventID:   ev.ID,
		Type:      ev.Type,
		Dialog:    dialogOf(ev.Data),
		CreatedAt: ev.At.UTC(),
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if len(ev.Data) > 0 && json.Valid(ev.Data) {
		entry.Data = json.RawMessage(ev.Data)
	}

	var dialog, data any
	if entry.Dialog != "" {
		dialog = entry.Dialog
	}
	if entry.Data != nil {
		data = string(entry.Data)
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO dialog_log(id, event_id, type, dialog, data, created_at)
VALUES(?, ?, ?, ?, ?, ?);
`, entry.ID, entry.EventID, entry.Type, dialog, data, entry.CreatedAt.Format(timeLayout))
	if err != nil {
		return Entry{}, fmt.Errorf("insert dialog_log: %w", err)
	}
	return entry, nil
}

// Recent returns the newest entries first.
func (s *Store) Recent(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	query := `SELECT id, event_id, type, dialog, data, created_at FROM dialog_log`
	args := []any{}
	if f.Dialog != "" {
		query += ` WHERE dialog = ?`
		args = append(args, f.Dialog)
	}
	query += ` ORDER BY created_at DESC, event_id DESC LIMIT ?;`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dialog_log: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			dialog  sql.NullString
			data    sql.NullString
			created string
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.Type, &dialog, &data, &created); err != nil {
			return nil, fmt.Errorf("scan dialog_log: %w", err)
		}
		e.Dialog = dialog.String
		if data.Valid {
			e.Data = json.RawMessage(data.String)
		}
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes entries created before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dialog_log WHERE created_at < ?;`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune dialog_log: %w", err)
	}
	return res.RowsAffected()
}

func dialogOf(data []byte) string {
	var payload struct {
		Dialog string `json:"dialog"`
	}
	if len(data) == 0 || json.Unmarshal(data, &payload) != nil {
		return ""
	}
	return payload.Dialog
}
