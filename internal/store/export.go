package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/ram-pet/internal/model"
)

// ExportAll returns every event in append order, optionally filtered by kind.
func (s *SQLiteStore) ExportAll(ctx context.Context, kind model.EventKind) ([]model.Event, error) {
	where := []string{"1 = 1"}
	args := []interface{}{}

	if kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(kind))
	}

	query := `SELECT id, kind, personality, requested_bytes, granted_bytes, hunger, committed_bytes, note, created_at
	          FROM events WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Import stores events from an export, keeping their ids. Events already
// present are skipped. Returns how many were new.
func (s *SQLiteStore) Import(ctx context.Context, events []model.Event) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	imported := 0
	for _, ev := range events {
		if ev.ID == "" || !model.ValidEventKinds[ev.Kind] {
			return imported, fmt.Errorf("invalid event %q (kind %q)", ev.ID, ev.Kind)
		}
		var exists int
		tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE id = ?`, ev.ID).Scan(&exists)
		if exists > 0 {
			continue
		}
		if err := s.insert(ctx, tx, ev); err != nil {
			return imported, err
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return imported, nil
}
