package docs

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/moonwalk/moonwalk/internal/errors"
)

const storeDDL = `
CREATE TABLE IF NOT EXISTS documents (
	record_id   INTEGER PRIMARY KEY,
	natural_key TEXT NOT NULL UNIQUE,
	source      TEXT,
	status      TEXT NOT NULL,
	confidence  REAL NOT NULL,
	fields      TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS review_queue (
	record_id   INTEGER PRIMARY KEY,
	natural_key TEXT NOT NULL,
	source      TEXT,
	confidence  REAL NOT NULL,
	fields      TEXT NOT NULL,
	queued_at   TEXT NOT NULL
);
`

// Store is the document pipeline's persistent side: the canonical
// table of accepted records and the review queue of exceptions. Both
// carry the same record shape, so a corrected exception re-enters the
// canonical path unchanged.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the document store at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.NewStoreError(errors.CodeBuildFailed, "open document store", err)
	}
	if _, err := db.Exec(storeDDL); err != nil {
		db.Close()
		return nil, errors.NewStoreError(errors.CodeBuildFailed, "create document tables", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes one accepted record into the canonical table, keyed by
// the natural key. Re-ingesting the same document updates in place and
// never inserts a second row.
func (s *Store) Upsert(ctx context.Context, rec *Record) error {
	if rec.NaturalKey == "" {
		return errors.NewExtractError(errors.CodeMissingNaturalKey, "record has no natural key")
	}
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return errors.NewInternalError("marshal record fields", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (record_id, natural_key, source, status, confidence, fields, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(natural_key) DO UPDATE SET
			source = excluded.source,
			status = excluded.status,
			confidence = excluded.confidence,
			fields = excluded.fields,
			updated_at = excluded.updated_at`,
		rec.ID(), rec.NaturalKey, rec.Source, string(rec.Status), rec.Confidence(),
		string(fields), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errors.NewStoreError(errors.CodeBuildFailed, "upsert document record", err)
	}
	return nil
}

// Get loads one canonical record by natural key.
func (s *Store) Get(ctx context.Context, naturalKey string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT natural_key, source, status, fields FROM documents WHERE natural_key = ?`,
		naturalKey)
	return scanRecord(row)
}

// Count returns the canonical record count.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, errors.NewStoreError(errors.CodeBuildFailed, "count documents", err)
	}
	return n, nil
}

// Enqueue writes an exception record and its per-field confidence
// breakdown to the review queue, replacing any earlier exception for
// the same document.
func (s *Store) Enqueue(ctx context.Context, rec *Record) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return errors.NewInternalError("marshal record fields", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO review_queue (record_id, natural_key, source, confidence, fields, queued_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(record_id) DO UPDATE SET
			natural_key = excluded.natural_key,
			source = excluded.source,
			confidence = excluded.confidence,
			fields = excluded.fields,
			queued_at = excluded.queued_at`,
		rec.ID(), rec.NaturalKey, rec.Source, rec.Confidence(),
		string(fields), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errors.NewStoreError(errors.CodeQueueWriteFailed, "enqueue exception record", err)
	}
	return nil
}

// Dequeue removes a document from the review queue, if present.
func (s *Store) Dequeue(ctx context.Context, rec *Record) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM review_queue WHERE record_id = ?`, rec.ID()); err != nil {
		return errors.NewStoreError(errors.CodeQueueWriteFailed, "dequeue record", err)
	}
	return nil
}

// PendingReview returns every queued exception record.
func (s *Store) PendingReview(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT natural_key, source, fields FROM review_queue ORDER BY queued_at`)
	if err != nil {
		return nil, errors.NewStoreError(errors.CodeQueueWriteFailed, "list review queue", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec := &Record{Status: StatusException}
		var fields string
		if err := rows.Scan(&rec.NaturalKey, &rec.Source, &fields); err != nil {
			return nil, errors.NewStoreError(errors.CodeQueueWriteFailed, "scan review row", err)
		}
		if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
			return nil, errors.NewInternalError("unmarshal record fields", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	rec := &Record{}
	var status, fields string
	if err := row.Scan(&rec.NaturalKey, &rec.Source, &status, &fields); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewStoreError(errors.CodeObjectNotFound, "document not found", err)
		}
		return nil, errors.NewStoreError(errors.CodeBuildFailed, "scan document row", err)
	}
	rec.Status = Status(status)
	if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return nil, errors.NewInternalError("unmarshal record fields", err)
	}
	return rec, nil
}
