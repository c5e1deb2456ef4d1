package listener

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"eventcheck/internal/eventstore"
)

// Filter selects events of one target. Empty Event matches every event
// type. A zero From or To leaves that side open; From is inclusive and To
// exclusive.
type Filter struct {
	TargetType string
	TargetID   string
	Event      string
	From       time.Time
	To         time.Time
}

// Store persists received events.
type Store interface {
	Add(ctx context.Context, targetType, targetID, eventType string, at time.Time) (eventstore.Record, error)
	Find(ctx context.Context, f Filter) ([]eventstore.Record, error)
	All(ctx context.Context) ([]eventstore.Record, error)
	Close() error
}

// SQLiteStore keeps events in a SQLite database. event_time is stored in the
// listener's text format, so string order is time order.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path. Use ":memory:"
// for a throwaway store.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event database %s: %w", path, err)
	}
	// One connection: SQLite serialises writers and :memory: is per connection.
	db.SetMaxOpenConns(1)

	s, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database and creates the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to create event schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	statements := []string{`
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target_type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		event_time TEXT NOT NULL
	);`,
		`CREATE INDEX IF NOT EXISTS events_target ON events (target_type, target_id, event_type, event_time);`,
	}
	for _, query := range statements {
		if _, err := s.db.ExecContext(context.Background(), query); err != nil {
			return err
		}
	}
	return nil
}

// Add records an event at the given time.
func (s *SQLiteStore) Add(ctx context.Context, targetType, targetID, eventType string, at time.Time) (eventstore.Record, error) {
	record := eventstore.Record{
		TargetType: targetType,
		TargetID:   targetID,
		EventType:  eventType,
		EventTime:  at.UTC().Format(eventstore.EventTimeFormat),
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (target_type, target_id, event_type, event_time) VALUES (?, ?, ?, ?)`,
		record.TargetType, record.TargetID, record.EventType, record.EventTime,
	)
	if err != nil {
		return eventstore.Record{}, fmt.Errorf("failed to insert event: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		record.ID = id
	}
	return record, nil
}

// Find returns the events matching f, oldest first.
func (s *SQLiteStore) Find(ctx context.Context, f Filter) ([]eventstore.Record, error) {
	conditions := []string{"target_type = ?", "target_id = ?"}
	args := []interface{}{f.TargetType, f.TargetID}

	if f.Event != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, f.Event)
	}
	if !f.From.IsZero() {
		conditions = append(conditions, "event_time >= ?")
		args = append(args, f.From.UTC().Format(eventstore.EventTimeFormat))
	}
	if !f.To.IsZero() {
		conditions = append(conditions, "event_time < ?")
		args = append(args, f.To.UTC().Format(eventstore.EventTimeFormat))
	}

	query := `SELECT id, target_type, target_id, event_type, event_time FROM events WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY event_time, id`
	return s.query(ctx, query, args...)
}

// All returns every recorded event, oldest first.
func (s *SQLiteStore) All(ctx context.Context) ([]eventstore.Record, error) {
	return s.query(ctx, `SELECT id, target_type, target_id, event_type, event_time FROM events ORDER BY event_time, id`)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...interface{}) ([]eventstore.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []eventstore.Record{}
	for rows.Next() {
		var r eventstore.Record
		if err := rows.Scan(&r.ID, &r.TargetType, &r.TargetID, &r.EventType, &r.EventTime); err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return records, nil
}
