package store

import (
	"context"
	"database/sql"
	"time"
)

// Event is an audit-log row written by the logging handler and the access
// middleware.
type Event struct {
	ID        int64          `json:"id"`
	Level     string         `json:"level"`
	Category  string         `json:"category"`
	Message   string         `json:"message"`
	MemberID  sql.NullString `json:"member_id,omitempty"`
	Metadata  string         `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

const createEvent = `
INSERT INTO events (level, category, message, member_id, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, level, category, message, member_id, metadata, created_at
`

// CreateEventParams holds the parameters for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	MemberID  sql.NullString
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts an audit-log event.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, createEvent,
		arg.Level, arg.Category, arg.Message, arg.MemberID, arg.Metadata, arg.CreatedAt)
	var e Event
	err := row.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.MemberID, &e.Metadata, &e.CreatedAt)
	return e, err
}

const listRecentEvents = `
SELECT id, level, category, message, member_id, metadata, created_at
FROM events ORDER BY created_at DESC LIMIT ?
`

// ListRecentEvents returns the newest events.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listRecentEvents, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.MemberID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
