package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/ram-pet/internal/model"
)

// timeFormat is fixed-width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex // guards entropy
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// newID returns a ULID. IDs minted by one store sort in append order.
func (s *SQLiteStore) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id              TEXT PRIMARY KEY,
		kind            TEXT NOT NULL,
		personality     TEXT NOT NULL,
		requested_bytes INTEGER NOT NULL DEFAULT 0,
		granted_bytes   INTEGER NOT NULL DEFAULT 0,
		hunger          REAL NOT NULL DEFAULT 0,
		committed_bytes INTEGER NOT NULL DEFAULT 0,
		note            TEXT,
		created_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
	CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, p AppendParams) (*model.Event, error) {
	if !model.ValidEventKinds[p.Kind] {
		return nil, fmt.Errorf("invalid event kind %q", p.Kind)
	}

	now := time.Now().UTC()
	ev := &model.Event{
		ID:             s.newID(now),
		Kind:           p.Kind,
		Personality:    p.Personality,
		RequestedBytes: p.RequestedBytes,
		GrantedBytes:   p.GrantedBytes,
		Hunger:         p.Hunger,
		CommittedBytes: p.CommittedBytes,
		Note:           p.Note,
		CreatedAt:      now,
	}
	if err := s.insert(ctx, s.db, *ev); err != nil {
		return nil, err
	}
	return ev, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *SQLiteStore) insert(ctx context.Context, db execer, ev model.Event) error {
	var note *string
	if ev.Note != "" {
		note = &ev.Note
	}
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (id, kind, personality, requested_bytes, granted_bytes, hunger, committed_bytes, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.Kind), ev.Personality,
		int64(ev.RequestedBytes), int64(ev.GrantedBytes), ev.Hunger, int64(ev.CommittedBytes),
		note, ev.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.Event, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"1 = 1"}
	args := []interface{}{}

	if p.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(p.Kind))
	}
	if !p.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, p.Since.UTC().Format(timeFormat))
	}

	query := fmt.Sprintf(`
		SELECT id, kind, personality, requested_bytes, granted_bytes, hunger, committed_bytes, note, created_at
		FROM events
		WHERE %s
		ORDER BY id DESC
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row scanner) (model.Event, error) {
	var ev model.Event
	var kind, createdAt string
	var requested, granted, committed int64
	var note sql.NullString

	err := row.Scan(
		&ev.ID, &kind, &ev.Personality, &requested, &granted,
		&ev.Hunger, &committed, &note, &createdAt,
	)
	if err != nil {
		return ev, err
	}

	ev.Kind = model.EventKind(kind)
	ev.RequestedBytes = uint64(requested)
	ev.GrantedBytes = uint64(granted)
	ev.CommittedBytes = uint64(committed)
	ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if note.Valid {
		ev.Note = note.String
	}
	return ev, nil
}

// ParseAge parses an age string like "7d", "24h", "30m" into a time.Duration.
var ageRegex = regexp.MustCompile(`^(\d+)([dhms])$`)

func ParseAge(s string) (time.Duration, error) {
	m := ageRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid format %q (use e.g. 7d, 24h, 30m, 60s)", s)
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "s":
		return time.Duration(n) * time.Second, nil
	}
	return 0, fmt.Errorf("unknown unit %q", m[2])
}
