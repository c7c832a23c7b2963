// Package store builds the typed analytics snapshot as a single SQLite
// file. A build writes to a hidden temp file in the snapshot directory
// and promotes it over the live path with one rename on commit, so a
// failed or interrupted run can never leave readers a partial store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/moonwalk/moonwalk/internal/errors"
	"github.com/moonwalk/moonwalk/internal/typecast"
	"github.com/moonwalk/moonwalk/pkg/types"
)

// LiveName is the filename of the published snapshot.
const LiveName = "analytics.db"

// Builder creates snapshot builds in one directory. Single writer;
// concurrent readers keep the previous snapshot until the swap.
type Builder struct {
	dir string
}

// NewBuilder creates a builder rooted at dir.
func NewBuilder(dir string) *Builder {
	return &Builder{dir: dir}
}

// LivePath returns the path of the published snapshot.
func (b *Builder) LivePath() string {
	return filepath.Join(b.dir, LiveName)
}

// OpenRead opens the live snapshot read-only.
func (b *Builder) OpenRead() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+b.LivePath()+"?mode=ro")
	if err != nil {
		return nil, errors.NewStoreError(errors.CodeBuildFailed, "open live snapshot", err)
	}
	return db, nil
}

// Build is one in-progress snapshot. Tables are written, then the
// build is either committed (atomic promote) or aborted (temp file
// removed, live snapshot untouched).
type Build struct {
	db       *sql.DB
	tempPath string
	livePath string
	done     bool
}

// Begin starts a new build at a temporary path.
func (b *Builder) Begin(ctx context.Context) (*Build, error) {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return nil, errors.NewStoreError(errors.CodeBuildFailed, "create snapshot directory", err)
	}
	tempPath := filepath.Join(b.dir, fmt.Sprintf(".build-%s.db", uuid.New().String()[:8]))

	db, err := sql.Open("sqlite3", tempPath)
	if err != nil {
		return nil, errors.NewStoreError(errors.CodeBuildFailed, "create build database", err)
	}
	// WAL for write speed during the build; switched off before promote.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		os.Remove(tempPath)
		return nil, errors.NewStoreError(errors.CodeBuildFailed, "set journal mode", err)
	}
	return &Build{db: db, tempPath: tempPath, livePath: b.LivePath()}, nil
}

// sqliteType maps a column kind to its SQLite column type.
func sqliteType(kind types.Kind) string {
	switch kind {
	case types.KindSmallInt:
		return "INTEGER"
	case types.KindBool:
		return "BOOLEAN"
	case types.KindFloat:
		return "REAL"
	default:
		// Dates are stored ISO-formatted; enum and text as-is.
		return "TEXT"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// WriteTable creates and loads one typed table, including the
// compressed extras blob when the schema carries one, then creates the
// schema's indexes.
func (w *Build) WriteTable(ctx context.Context, table *typecast.Table) error {
	schema := table.Schema

	var defs []string
	for _, spec := range schema.Columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(spec.Name), sqliteType(spec.Kind)))
	}
	if schema.KeepExtras {
		defs = append(defs, "extras BLOB")
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(schema.Name), strings.Join(defs, ", "))
	if _, err := w.db.ExecContext(ctx, createSQL); err != nil {
		return errors.NewStoreError(errors.CodeBuildFailed,
			fmt.Sprintf("create table %s", schema.Name), err)
	}

	cols := make([]string, len(schema.Columns))
	marks := make([]string, len(schema.Columns))
	for i, spec := range schema.Columns {
		cols[i] = quoteIdent(spec.Name)
		marks[i] = "?"
	}
	if schema.KeepExtras {
		cols = append(cols, "extras")
		marks = append(marks, "?")
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(schema.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
	stmt, err := w.db.PrepareContext(ctx, insertSQL)
	if err != nil {
		return errors.NewStoreError(errors.CodeBuildFailed,
			fmt.Sprintf("prepare insert for %s", schema.Name), err)
	}
	defer stmt.Close()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStoreError(errors.CodeBuildFailed, "begin load transaction", err)
	}
	txStmt := tx.Stmt(stmt)

	for r := 0; r < table.NumRows(); r++ {
		args := make([]interface{}, 0, len(cols))
		for _, col := range table.Columns {
			args = append(args, storeValue(col.Values[r]))
		}
		if schema.KeepExtras {
			blob, err := encodeExtras(table.Extras, r)
			if err != nil {
				tx.Rollback()
				return err
			}
			args = append(args, blob)
		}
		if _, err := txStmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return errors.NewStoreError(errors.CodeBuildFailed,
				fmt.Sprintf("insert row %d into %s", r, schema.Name), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStoreError(errors.CodeBuildFailed, "commit load transaction", err)
	}

	for _, idx := range schema.Indexes {
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		quoted := make([]string, len(idx.Columns))
		for i, c := range idx.Columns {
			quoted[i] = quoteIdent(c)
		}
		idxSQL := fmt.Sprintf("CREATE %sINDEX %s ON %s(%s)",
			unique, quoteIdent(idx.Name), quoteIdent(schema.Name), strings.Join(quoted, ", "))
		if _, err := w.db.ExecContext(ctx, idxSQL); err != nil {
			return errors.NewStoreError(errors.CodeBuildFailed,
				fmt.Sprintf("create index %s", idx.Name), err)
		}
	}
	return nil
}

// storeValue converts a typed value into its stored form. Dates are
// ISO-formatted; everything else passes through (nil stays NULL).
func storeValue(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return t.Format("2006-01-02")
	}
	return v
}

// encodeExtras snappy-compresses the row's uncovered staged cells.
// Empty extras store NULL.
func encodeExtras(extras []map[string]string, row int) (interface{}, error) {
	if extras == nil || len(extras[row]) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(extras[row])
	if err != nil {
		return nil, errors.NewInternalError("marshal extras", err)
	}
	return snappy.Encode(nil, raw), nil
}

// DecodeExtras reverses encodeExtras for readers of the store.
func DecodeExtras(blob []byte) (map[string]string, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, errors.NewStoreError(errors.CodeBuildFailed, "decompress extras", err)
	}
	var extras map[string]string
	if err := json.Unmarshal(raw, &extras); err != nil {
		return nil, errors.NewInternalError("unmarshal extras", err)
	}
	return extras, nil
}

// Commit finalizes the build and atomically promotes it over the live
// path. After Commit returns nil, readers see the complete new
// snapshot; on any error the previous snapshot is untouched.
func (w *Build) Commit(ctx context.Context) error {
	if w.done {
		return errors.NewStoreError(errors.CodePublishFailed, "build already finished", nil)
	}
	w.done = true

	// Fold the WAL into the main file so the rename moves everything.
	if _, err := w.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		w.db.Close()
		os.Remove(w.tempPath)
		return errors.NewStoreError(errors.CodePublishFailed, "checkpoint WAL", err)
	}
	if _, err := w.db.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		w.db.Close()
		os.Remove(w.tempPath)
		return errors.NewStoreError(errors.CodePublishFailed, "disable WAL", err)
	}
	if err := w.db.Close(); err != nil {
		os.Remove(w.tempPath)
		return errors.NewStoreError(errors.CodePublishFailed, "close build database", err)
	}

	if err := os.Rename(w.tempPath, w.livePath); err != nil {
		os.Remove(w.tempPath)
		return errors.NewStoreError(errors.CodePublishFailed, "promote snapshot", err)
	}
	return nil
}

// Abort discards the build. The live snapshot is untouched. Safe to
// call after Commit (no-op).
func (w *Build) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.db.Close()
	os.Remove(w.tempPath)
	os.Remove(w.tempPath + "-wal")
	os.Remove(w.tempPath + "-shm")
}

// TempPath exposes the build file location (used by crash tests).
func (w *Build) TempPath() string {
	return w.tempPath
}
