// Package store persists tanks and level logs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hydroforecast/prediction-service/internal/domain"
)

// Store wraps the SQLite handle. All timestamps go in as UTC.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) a SQLite database at path. Pragmas go in
// the DSN so every pooled connection gets them. Use ":memory:" for an
// ephemeral database; it is pinned to a single connection because each new
// in-memory connection would otherwise see its own empty database.
func Open(path string) (*sql.DB, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTank inserts a tank, assigning an ID and creation time when unset,
// and returns the stored row.
func (s *Store) CreateTank(ctx context.Context, t domain.Tank) (domain.Tank, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = domain.Now()
	}
	t.CreatedAt = t.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tanks (id, name, capacity_liters, location, type, status, current_level, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.CapacityLiters, t.Location, t.Type, t.Status, t.CurrentLevel, t.CreatedAt)
	if err != nil {
		return domain.Tank{}, fmt.Errorf("insert tank: %w", err)
	}
	return t, nil
}

// GetTank fetches a tank by ID. Returns domain.ErrTankNotFound when absent.
func (s *Store) GetTank(ctx context.Context, id string) (domain.Tank, error) {
	var t domain.Tank
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, capacity_liters, location, type, status, current_level, created_at
		FROM tanks WHERE id = ?
	`, id).Scan(&t.ID, &t.Name, &t.CapacityLiters, &t.Location, &t.Type, &t.Status, &t.CurrentLevel, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tank{}, fmt.Errorf("%w: %s", domain.ErrTankNotFound, id)
	}
	if err != nil {
		return domain.Tank{}, fmt.Errorf("select tank: %w", err)
	}
	return t, nil
}

// ListTanks returns all tanks, newest first.
func (s *Store) ListTanks(ctx context.Context) ([]domain.Tank, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, capacity_liters, location, type, status, current_level, created_at
		FROM tanks ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("select tanks: %w", err)
	}
	defer rows.Close()

	var tanks []domain.Tank
	for rows.Next() {
		var t domain.Tank
		if err := rows.Scan(&t.ID, &t.Name, &t.CapacityLiters, &t.Location, &t.Type, &t.Status, &t.CurrentLevel, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tank: %w", err)
		}
		tanks = append(tanks, t)
	}
	return tanks, rows.Err()
}

// DeleteTank removes a tank and, via cascade, its logs. Returns
// domain.ErrTankNotFound when no row matched.
func (s *Store) DeleteTank(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tanks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete tank: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tank: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrTankNotFound, id)
	}
	return nil
}

// CreateTankLog appends a level reading and refreshes the tank's current
// level. The tank must exist. Returns the stored row with its assigned ID.
func (s *Store) CreateTankLog(ctx context.Context, l domain.TankLog) (domain.TankLog, error) {
	if _, err := s.GetTank(ctx, l.TankID); err != nil {
		return domain.TankLog{}, err
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = domain.Now()
	}
	l.Timestamp = l.Timestamp.UTC()
	if l.LogType == "" {
		l.LogType = "manual"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.TankLog{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO tank_logs (tank_id, timestamp, level, rainfall_mm, usage_liters, notes, log_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.TankID, l.Timestamp, l.Level, l.RainfallMm, l.UsageLiters, l.Notes, l.LogType)
	if err != nil {
		return domain.TankLog{}, fmt.Errorf("insert tank log: %w", err)
	}
	l.ID, err = res.LastInsertId()
	if err != nil {
		return domain.TankLog{}, fmt.Errorf("insert tank log: %w", err)
	}

	// Current level tracks the latest reading by timestamp, not insert order.
	if _, err := tx.ExecContext(ctx, `
		UPDATE tanks SET current_level = ?
		WHERE id = ? AND NOT EXISTS (
			SELECT 1 FROM tank_logs WHERE tank_id = ? AND timestamp > ?
		)
	`, l.Level, l.TankID, l.TankID, l.Timestamp); err != nil {
		return domain.TankLog{}, fmt.Errorf("update current level: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.TankLog{}, fmt.Errorf("commit tank log: %w", err)
	}
	return l, nil
}

// LogQuery filters ListTankLogs. A zero Start/End leaves that bound open;
// Limit <= 0 means no limit.
type LogQuery struct {
	Start time.Time
	End   time.Time
	Limit int
}

// ListTankLogs returns a tank's readings, newest first. The tank must exist.
func (s *Store) ListTankLogs(ctx context.Context, tankID string, q LogQuery) ([]domain.TankLog, error) {
	if _, err := s.GetTank(ctx, tankID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, tank_id, timestamp, level, rainfall_mm, usage_liters, notes, log_type
		FROM tank_logs WHERE tank_id = ?
	`
	args := []any{tankID}
	if !q.Start.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, q.Start.UTC())
	}
	if !q.End.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, q.End.UTC())
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select tank logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.TankLog
	for rows.Next() {
		var l domain.TankLog
		if err := rows.Scan(&l.ID, &l.TankID, &l.Timestamp, &l.Level, &l.RainfallMm, &l.UsageLiters, &l.Notes, &l.LogType); err != nil {
			return nil, fmt.Errorf("scan tank log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ReadLogEntries returns every (timestamp, level) pair for a tank in insert
// order. Duplicate-timestamp resolution and sorting are the caller's concern.
// A tank with zero log rows fails with domain.ErrTankNotFound, same as a
// missing tank: there is no history to read either way.
func (s *Store) ReadLogEntries(ctx context.Context, tankID string) ([]domain.TankLogEntry, error) {
	if _, err := s.GetTank(ctx, tankID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, level FROM tank_logs WHERE tank_id = ? ORDER BY id
	`, tankID)
	if err != nil {
		return nil, fmt.Errorf("select log entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.TankLogEntry
	for rows.Next() {
		var l domain.TankLog
		if err := rows.Scan(&l.Timestamp, &l.Level); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, l.Entry())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: tank %s has no log entries", domain.ErrTankNotFound, tankID)
	}
	return entries, nil
}
