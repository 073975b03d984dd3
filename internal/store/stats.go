package store

import (
	"context"
	"os"
)

// Stats holds journal statistics.
type Stats struct {
	DBPath         string      `json:"db_path"`
	DBSizeBytes    int64       `json:"db_size_bytes"`
	TotalEvents    int         `json:"total_events"`
	Feedings       int         `json:"feedings"`
	BytesEaten     uint64      `json:"bytes_eaten"`
	PeakBytes      uint64      `json:"peak_bytes"`
	BytesStarved   uint64      `json:"bytes_starved"`
	Saves          int         `json:"saves"`
	Loads          int         `json:"loads"`
	EmergencyExits int         `json:"emergency_exits"`
	Kinds          []KindStats `json:"kinds"`
}

// KindStats holds per-kind counts.
type KindStats struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Stats returns journal statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	var eaten, peak, starved int64
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&st.TotalEvents)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(granted_bytes), 0) FROM events WHERE kind IN ('feed', 'favorite')`,
	).Scan(&st.Feedings, &eaten)
	s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(committed_bytes), 0) FROM events`).Scan(&peak)
	s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(granted_bytes), 0) FROM events WHERE kind = 'starvation'`).Scan(&starved)
	st.BytesEaten = uint64(eaten)
	st.PeakBytes = uint64(peak)
	st.BytesStarved = uint64(starved)

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) as cnt
		FROM events
		GROUP BY kind ORDER BY cnt DESC, kind`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var k KindStats
		rows.Scan(&k.Kind, &k.Count)
		st.Kinds = append(st.Kinds, k)
		switch k.Kind {
		case "save":
			st.Saves = k.Count
		case "load":
			st.Loads = k.Count
		case "emergency_exit":
			st.EmergencyExits = k.Count
		}
	}

	return st, rows.Err()
}
