package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"neubott/internal/model"
	"neubott/migrations"
)

const factColumns = `id, content, guild, global, added_by, timestamp`

// SQLite implements Facts backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A second connection to ":memory:" would see an empty database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateFact inserts a new fact and populates its ID.
// CreatedAt is set to the current time when left zero.
func (s *SQLite) CreateFact(ctx context.Context, f *model.Fact) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO facts (content, guild, global, added_by, timestamp) VALUES (?, ?, ?, ?, ?)`,
		f.Content, f.GuildID, boolToInt(f.Global), f.AddedBy, f.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateContent
		}
		return fmt.Errorf("insert fact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	f.CreatedAt = time.UnixMilli(f.CreatedAt.UnixMilli()).UTC()
	return nil
}

// ListVisibleFacts returns every fact visible in the given guild.
func (s *SQLite) ListVisibleFacts(ctx context.Context, guildID string) ([]model.Fact, error) {
	return s.queryFacts(ctx,
		`SELECT `+factColumns+` FROM facts WHERE (guild = ? OR global = 1) ORDER BY id`,
		guildID,
	)
}

// FindFactsByContent returns visible facts whose content equals content exactly.
func (s *SQLite) FindFactsByContent(ctx context.Context, guildID, content string) ([]model.Fact, error) {
	return s.queryFacts(ctx,
		`SELECT `+factColumns+` FROM facts WHERE (guild = ? OR global = 1) AND content = ? ORDER BY id`,
		guildID, content,
	)
}

// SearchFacts returns visible facts whose content contains substring.
// The match is case-sensitive: instr compares bytes, unlike LIKE.
func (s *SQLite) SearchFacts(ctx context.Context, guildID, substring string) ([]model.Fact, error) {
	return s.queryFacts(ctx,
		`SELECT `+factColumns+` FROM facts WHERE (guild = ? OR global = 1) AND instr(content, ?) > 0 ORDER BY id`,
		guildID, substring,
	)
}

// LatestFact returns the most recently created fact of any scope.
func (s *SQLite) LatestFact(ctx context.Context) (*model.Fact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+factColumns+` FROM facts ORDER BY timestamp DESC, id DESC LIMIT 1`,
	)
	f, err := scanFact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteFacts removes the facts with the given IDs and returns how many rows went away.
func (s *SQLite) DeleteFacts(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM facts WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete facts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// CountFacts returns the total number of stored facts.
func (s *SQLite) CountFacts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count facts: %w", err)
	}
	return n, nil
}

func (s *SQLite) queryFacts(ctx context.Context, query string, args ...any) ([]model.Fact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var facts []model.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFact(row scannable) (model.Fact, error) {
	var f model.Fact
	var global int
	var ts int64
	err := row.Scan(&f.ID, &f.Content, &f.GuildID, &global, &f.AddedBy, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return f, err
	}
	if err != nil {
		return f, fmt.Errorf("scan fact: %w", err)
	}
	f.Global = global == 1
	f.CreatedAt = time.UnixMilli(ts).UTC()
	return f, nil
}
