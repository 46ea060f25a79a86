// Package audit persists staging decisions to SQLite.
package audit

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/rawmatterx/oncostaging/entities"
	"github.com/rawmatterx/oncostaging/interfaces"
)

// ErrNotFound is returned by Get for an unknown record id.
var ErrNotFound = errors.New("audit record not found")

// DefaultListLimit and MaxListLimit bound ListRecent.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS staging_audit (
	id          TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	cancer_type TEXT NOT NULL DEFAULT '',
	t           TEXT NOT NULL DEFAULT '',
	n           TEXT NOT NULL DEFAULT '',
	m           TEXT NOT NULL DEFAULT '',
	stage       TEXT NOT NULL DEFAULT '',
	substage    TEXT NOT NULL DEFAULT '',
	confidence  REAL NOT NULL DEFAULT 0,
	text_sha256 TEXT NOT NULL DEFAULT '',
	features    TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_staging_audit_created_at ON staging_audit (created_at);
`

var _ interfaces.AuditStore = (*Store)(nil)

// Store is a SQLite-backed audit trail.
type Store struct {
	db *sqlx.DB
}

type row struct {
	ID         string  `db:"id"`
	CreatedAt  string  `db:"created_at"`
	Source     string  `db:"source"`
	CancerType string  `db:"cancer_type"`
	T          string  `db:"t"`
	N          string  `db:"n"`
	M          string  `db:"m"`
	Stage      string  `db:"stage"`
	Substage   string  `db:"substage"`
	Confidence float64 `db:"confidence"`
	TextSHA256 string  `db:"text_sha256"`
	Features   string  `db:"features"`
}

// Open opens (or creates) the audit database at path. Use ":memory:" for a
// throwaway store.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create audit dir: %w", err)
			}
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// HashText returns the hex SHA-256 digest stored in place of report text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Record inserts rec, filling in its ID and CreatedAt when empty.
func (s *Store) Record(ctx context.Context, rec *entities.AuditRecord) error {
	if rec == nil {
		return errors.New("audit record is nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	r, err := toRow(rec)
	if err != nil {
		return err
	}

	_, err = s.db.NamedExecContext(ctx, `INSERT INTO staging_audit
		(id, created_at, source, cancer_type, t, n, m, stage, substage, confidence, text_sha256, features)
		VALUES (:id, :created_at, :source, :cancer_type, :t, :n, :m, :stage, :substage, :confidence, :text_sha256, :features)`, r)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// Get returns one record by id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*entities.AuditRecord, error) {
	var r row
	err := s.db.GetContext(ctx, &r, `SELECT * FROM staging_audit WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get audit record: %w", err)
	}
	rec, err := r.toRecord()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListRecent returns up to limit records, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]entities.AuditRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM staging_audit ORDER BY created_at DESC, id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}

	out := make([]entities.AuditRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// PruneBefore deletes records created before cutoff and returns how many.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM staging_audit WHERE created_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune audit records: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM staging_audit`); err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func toRow(rec *entities.AuditRecord) (row, error) {
	features, err := json.Marshal(rec.Features)
	if err != nil {
		return row{}, fmt.Errorf("encode features: %w", err)
	}
	return row{
		ID:         rec.ID,
		CreatedAt:  formatTime(rec.CreatedAt),
		Source:     rec.Source,
		CancerType: rec.CancerType,
		T:          rec.T,
		N:          rec.N,
		M:          rec.M,
		Stage:      rec.Stage,
		Substage:   rec.Substage,
		Confidence: rec.Confidence,
		TextSHA256: rec.TextSHA256,
		Features:   string(features),
	}, nil
}

func (r row) toRecord() (entities.AuditRecord, error) {
	created, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return entities.AuditRecord{}, fmt.Errorf("decode created_at for %s: %w", r.ID, err)
	}
	rec := entities.AuditRecord{
		ID:         r.ID,
		CreatedAt:  created,
		Source:     r.Source,
		CancerType: r.CancerType,
		T:          r.T,
		N:          r.N,
		M:          r.M,
		Stage:      r.Stage,
		Substage:   r.Substage,
		Confidence: r.Confidence,
		TextSHA256: r.TextSHA256,
	}
	if err := json.Unmarshal([]byte(r.Features), &rec.Features); err != nil {
		return entities.AuditRecord{}, fmt.Errorf("decode features for %s: %w", r.ID, err)
	}
	return rec, nil
}
