// Package archive provides a SQLite-backed log of finished games.
package archive

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mossy-p/dalmuti/internal/models"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store appends game records to SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite archive at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each new connection would get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrate(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func migrate(sqlDB *sql.DB) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	for _, entry := range entries {
		body, err := migrationFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := sqlDB.Exec(string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Archive stores rec for roomID. Re-archiving the same game replaces it.
func (s *Store) Archive(ctx context.Context, roomID string, rec models.GameRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT OR REPLACE INTO game_records (room_id, game_number, ended_at, record_json)
		 VALUES (?, ?, ?, ?)`,
		roomID, rec.GameNumber, rec.EndedAt.UTC().UnixMilli(), string(data),
	)
	if err != nil {
		return fmt.Errorf("insert game record: %w", err)
	}
	return nil
}

// ListRoom returns the archived games of roomID in game order.
func (s *Store) ListRoom(ctx context.Context, roomID string) ([]models.GameRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT record_json FROM game_records WHERE room_id = ? ORDER BY game_number`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("query game records: %w", err)
	}
	defer rows.Close()

	var out []models.GameRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan game record: %w", err)
		}
		var rec models.GameRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal game record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Since returns how many games ended at or after t.
func (s *Store) Since(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_records WHERE ended_at >= ?`, t.UTC().UnixMilli(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count game records: %w", err)
	}
	return n, nil
}
