// Package store persists per-item rows and reconciles fresh observations
// against them. It is the only component that writes the persisted
// collection; everything upstream produces immutable outcomes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/punic/dystats/pkg/harvest"
)

// Row is one persisted item record plus its outcome metadata. Statistics
// columns are nullable: NULL means "never observed", which the merge
// policy distinguishes from an observed zero.
type Row struct {
	Key         string         `db:"key"`
	ID          sql.NullString `db:"id"`
	Title       sql.NullString `db:"title"`
	Author      sql.NullString `db:"author"`
	Digg        sql.NullInt64  `db:"digg"`
	Comment     sql.NullInt64  `db:"comment"`
	Share       sql.NullInt64  `db:"share"`
	Collect     sql.NullInt64  `db:"collect"`
	Play        sql.NullInt64  `db:"play"`
	SourceURL   sql.NullString `db:"source_url"`
	FetchedAt   sql.NullTime   `db:"fetched_at"`
	OK          bool           `db:"ok"`
	ErrorReason sql.NullString `db:"error_reason"`
	FirstSeen   time.Time      `db:"first_seen"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// Store is the persistence interface.
type Store interface {
	Merge(ctx context.Context, key string, outcome harvest.Outcome) error
	Snapshot(ctx context.Context) ([]Row, error)
	Get(ctx context.Context, key string) (*Row, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Merge reconciles one outcome into the row keyed by key, creating the
// row on first observation. On success every field present in the record
// overwrites the stored value and absent fields are left untouched — a
// later observation never erases a previously good value with nothing.
// On failure only ok and error_reason change; statistics are untouched.
func (s *SQLiteStore) Merge(ctx context.Context, key string, outcome harvest.Outcome) error {
	now := s.now().UTC()

	var (
		id, title, author, sourceURL        sql.NullString
		digg, comment, share, collect, play sql.NullInt64
		fetchedAt                           sql.NullTime
		errorReason                         sql.NullString
	)

	if rec := outcome.Record; outcome.OK() && rec != nil {
		id = nullString(rec.ID)
		title = nullString(rec.Title)
		author = nullString(rec.Author)
		sourceURL = nullString(rec.SourceURL)
		digg = sql.NullInt64{Int64: rec.DiggCount, Valid: true}
		comment = sql.NullInt64{Int64: rec.CommentCount, Valid: true}
		share = sql.NullInt64{Int64: rec.ShareCount, Valid: true}
		collect = sql.NullInt64{Int64: rec.CollectCount, Valid: true}
		if rec.PlayCount != nil {
			play = sql.NullInt64{Int64: *rec.PlayCount, Valid: true}
		}
		if !rec.FetchedAt.IsZero() {
			fetchedAt = sql.NullTime{Time: rec.FetchedAt.UTC(), Valid: true}
		}
	} else {
		errorReason = nullString(outcome.Reason)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO videos (key, id, title, author, digg, comment, share, collect, play,
		                    source_url, fetched_at, ok, error_reason, first_seen, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			id           = COALESCE(excluded.id, videos.id),
			title        = COALESCE(excluded.title, videos.title),
			author       = COALESCE(excluded.author, videos.author),
			digg         = COALESCE(excluded.digg, videos.digg),
			comment      = COALESCE(excluded.comment, videos.comment),
			share        = COALESCE(excluded.share, videos.share),
			collect      = COALESCE(excluded.collect, videos.collect),
			play         = COALESCE(excluded.play, videos.play),
			source_url   = COALESCE(excluded.source_url, videos.source_url),
			fetched_at   = COALESCE(excluded.fetched_at, videos.fetched_at),
			ok           = excluded.ok,
			error_reason = excluded.error_reason,
			updated_at   = excluded.updated_at
	`, key, id, title, author, digg, comment, share, collect, play,
		sourceURL, fetchedAt, outcome.OK(), errorReason, now, now)
	if err != nil {
		return fmt.Errorf("merge row %s: %w", key, err)
	}
	return nil
}

// Snapshot returns every persisted row ordered by key.
func (s *SQLiteStore) Snapshot(ctx context.Context) ([]Row, error) {
	var rows []Row
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM videos ORDER BY key"); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return rows, nil
}

// Get fetches a single row by key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Row, error) {
	var row Row
	err := s.db.GetContext(ctx, &row, "SELECT * FROM videos WHERE key = ?", key)
	if err != nil {
		return nil, fmt.Errorf("get row %s: %w", key, err)
	}
	return &row, nil
}

// nullString treats the empty string as absent so it never overwrites a
// stored value.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
