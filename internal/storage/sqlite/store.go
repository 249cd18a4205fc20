// Package sqlite implements storage.Store on a local SQLite database.
//
// Each record is one row. Rank, completion flag and title are mirrored into
// columns for filtering and ordering; the full field map is kept as JSON.
// Updates are optimistic: a row's version must not change between the read
// and the write, otherwise the update reports storage.ErrConflict.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/steveyegge/lineup/internal/debug"
	"github.com/steveyegge/lineup/internal/idgen"
	"github.com/steveyegge/lineup/internal/storage"
	"github.com/steveyegge/lineup/internal/types"
)

// busyTimeoutMS bounds how long a writer waits on a locked database before
// the driver reports SQLITE_BUSY.
const busyTimeoutMS = 5000

// SQLiteStorage implements storage.Store using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
	closed atomic.Bool
	now    func() time.Time
}

var (
	_ storage.Store    = (*SQLiteStorage)(nil)
	_ storage.Archiver = (*SQLiteStorage)(nil)
)

// New opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func New(ctx context.Context, path string) (*SQLiteStorage, error) {
	var connStr string
	if path == ":memory:" {
		connStr = "file::memory:?_foreign_keys=on"
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		connStr = fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", path, busyTimeoutMS)
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	debug.Logger().Debug("opened sqlite store", "path", path)
	return &SQLiteStorage{db: db, dbPath: path, now: time.Now}, nil
}

// Path returns the database path given to New.
func (s *SQLiteStorage) Path() string { return s.dbPath }

// CreateRecord inserts a new row.
func (s *SQLiteStorage) CreateRecord(ctx context.Context, fields storage.Fields) (string, error) {
	if s.closed.Load() {
		return "", fmt.Errorf("create record: store is closed")
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("create record: encode fields: %w", err)
	}
	rec := &types.Record{Fields: fields}
	title := rec.String(types.FieldTitle)
	created := s.now().UTC()

	for nonce := 0; nonce < idgen.MaxNonce; nonce++ {
		id := idgen.GenerateHashID("rec", title, created, idgen.DefaultLength, nonce)
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO records (id, rank, completed, title, fields, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, rec.String(types.FieldRank), boolInt(rec.Bool(types.FieldCompleted)),
			title, string(data), created.Format(time.RFC3339Nano),
		)
		if err == nil {
			return id, nil
		}
		if !isDuplicateID(err) {
			return "", wrapDBError("create record", err)
		}
		debug.Logger().Debug("id collision, retrying", "id", id, "nonce", nonce)
	}
	return "", fmt.Errorf("create record: no free id for %q after %d attempts", title, idgen.MaxNonce)
}

// ReadRecord returns the row with the given id.
func (s *SQLiteStorage) ReadRecord(ctx context.Context, id string) (*types.Record, error) {
	rec, _, err := s.readVersioned(ctx, id)
	return rec, err
}

func (s *SQLiteStorage) readVersioned(ctx context.Context, id string) (*types.Record, int64, error) {
	var (
		data      string
		createdAt string
		version   int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT fields, created_at, version FROM records WHERE id = ? AND archived = 0`, id,
	).Scan(&data, &createdAt, &version)
	if err != nil {
		return nil, 0, wrapDBErrorf(err, "read record %s", id)
	}
	rec, err := decodeRecord(id, data, createdAt)
	if err != nil {
		return nil, 0, err
	}
	return rec, version, nil
}

// UpdateRecord merges fields into the stored field map. If another writer
// changed the row since it was read, the update is rejected with
// storage.ErrConflict and nothing is written.
func (s *SQLiteStorage) UpdateRecord(ctx context.Context, id string, fields storage.Fields) error {
	if s.closed.Load() {
		return fmt.Errorf("update record %s: store is closed", id)
	}
	rec, version, err := s.readVersioned(ctx, id)
	if err != nil {
		return err
	}
	merged := storage.Fields(rec.Fields).Clone().Merge(fields)
	return s.writeVersion(ctx, id, merged, version)
}

// writeVersion stores fields if the row is still at version.
func (s *SQLiteStorage) writeVersion(ctx context.Context, id string, fields storage.Fields, version int64) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("update record %s: encode fields: %w", id, err)
	}
	rec := &types.Record{Fields: fields}

	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET rank = ?, completed = ?, title = ?, fields = ?, version = version + 1
		 WHERE id = ? AND version = ? AND archived = 0`,
		rec.String(types.FieldRank), boolInt(rec.Bool(types.FieldCompleted)), rec.String(types.FieldTitle),
		string(data), id, version,
	)
	if err != nil {
		return wrapDBErrorf(err, "update record %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBErrorf(err, "update record %s", id)
	}
	if n == 0 {
		return fmt.Errorf("update record %s: version %d is stale: %w", id, version, storage.ErrConflict)
	}
	return nil
}

// ListRecords returns unarchived rows passing filter. Rows that tie on every
// sort key come back in insertion order.
func (s *SQLiteStorage) ListRecords(ctx context.Context, filter types.RecordFilter, sort []types.SortOption) ([]*types.Record, error) {
	where := []string{"archived = 0"}
	var args []interface{}

	if filter.Partition != nil {
		where = append(where, "completed = ?")
		args = append(args, boolInt(*filter.Partition == types.PartitionCompleted))
	}
	if filter.TitleNotEmpty {
		where = append(where, "trim(title) != ''")
	}
	if len(filter.IDs) > 0 {
		placeholders := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		where = append(where, fmt.Sprintf("id IN (%s)", strings.Join(placeholders, ", ")))
	}

	// #nosec G201 - where and order clauses are built from fixed fragments
	query := fmt.Sprintf(`SELECT id, fields, created_at FROM records WHERE %s ORDER BY %s`,
		strings.Join(where, " AND "), orderBy(sort))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("list records", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Record
	for rows.Next() {
		var id, data, createdAt string
		if err := rows.Scan(&id, &data, &createdAt); err != nil {
			return nil, wrapDBError("scan record", err)
		}
		rec, err := decodeRecord(id, data, createdAt)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("list records", err)
	}
	return out, nil
}

// ArchiveRecord hides a row from reads and lists without deleting it.
func (s *SQLiteStorage) ArchiveRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET archived = 1, version = version + 1 WHERE id = ? AND archived = 0`, id)
	if err != nil {
		return wrapDBErrorf(err, "archive record %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBErrorf(err, "archive record %s", id)
	}
	if n == 0 {
		return fmt.Errorf("archive record %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// Close closes the database. It is safe to call more than once.
func (s *SQLiteStorage) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func orderBy(opts []types.SortOption) string {
	var parts []string
	for _, opt := range opts {
		var col string
		switch opt.Field {
		case types.SortFieldPartition:
			col = "completed"
		case types.SortFieldRank:
			col = "rank"
		case types.SortFieldCreated:
			col = "created_at"
		case types.SortFieldTitle:
			col = "lower(title)"
		default:
			continue
		}
		dir := "ASC"
		if opt.Direction == types.SortDesc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	parts = append(parts, "seq ASC")
	return strings.Join(parts, ", ")
}

func decodeRecord(id, data, createdAt string) (*types.Record, error) {
	fields := map[string]interface{}{}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	rec := &types.Record{ID: id, Fields: fields}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return rec, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
