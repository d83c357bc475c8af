package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver

	"SlangHarvester/internal/domain"
	"SlangHarvester/internal/ports"
)

const (
	tableName   = "definitions"
	legacyTable = "words"
	memoryPath  = ":memory:"
	busyTimeout = 5 * time.Second
)

var columns = []string{
	"word",
	"title",
	"explanation",
	"examples",
	"author",
	"posted_date",
	"upvotes",
	"downvotes",
	"labels",
}

// ErrStoreClosed is returned by every operation after Close.
var ErrStoreClosed = errors.New("definition store is closed")

// SQLiteRepository persists definitions into a single SQLite table.
// Writes are serialized; the unique index over (word, title, explanation) backs the duplicate check.
type SQLiteRepository struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	writeMu sync.Mutex

	// stateMu guards closed; operations hold the read side so Close waits for them.
	stateMu sync.RWMutex
	closed  bool
}

var _ ports.DefinitionStore = (*SQLiteRepository)(nil)

// Open opens or creates the database at path (":memory:" for a private in-memory store) and migrates it.
func Open(ctx context.Context, path string, log *slog.Logger) (*SQLiteRepository, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	dsn := memoryPath
	if path != memoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
			path, busyTimeout.Milliseconds())
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxIdleConns(1)
	if path == memoryPath {
		// every connection to :memory: is a separate database, so the one connection must never be recycled
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetConnMaxLifetime(time.Hour)
	}

	repo := &SQLiteRepository{db: db, path: path, logger: log}
	if err := repo.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return repo, nil
}

// migrate creates the schema. Tables created before the unique index existed are collapsed first,
// then rows from a legacy words table are imported.
func (r *SQLiteRepository) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS definitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		word TEXT NOT NULL,
		title TEXT NOT NULL,
		explanation TEXT NOT NULL,
		examples TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		posted_date TEXT NOT NULL DEFAULT '',
		upvotes INTEGER NOT NULL DEFAULT 0 CHECK (upvotes >= 0),
		downvotes INTEGER NOT NULL DEFAULT 0 CHECK (downvotes >= 0),
		labels TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_definitions_word ON definitions(word, id);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	removed, err := deleteDuplicates(ctx, tx)
	if err != nil {
		return err
	}
	if removed > 0 {
		r.info("collapsed legacy duplicates", "removed", removed)
	}

	if _, err := tx.ExecContext(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_definitions_dedup ON definitions(word, title, explanation)`); err != nil {
		return fmt.Errorf("create unique index: %w", err)
	}

	imported, err := importLegacyWords(ctx, tx)
	if err != nil {
		return err
	}
	if imported > 0 {
		r.info("imported definitions from legacy words table", "rows", imported)
	}

	return tx.Commit()
}

// importLegacyWords copies rows of the older words table (user, date, likes, dislikes columns) into
// definitions. The words table is left untouched and rows already present are skipped, so it runs on every open.
func importLegacyWords(ctx context.Context, tx *sql.Tx) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("sqlite_master").
		Where(sq.Eq{"type": "table", "name": legacyTable}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build legacy table check: %w", err)
	}

	var tables int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&tables); err != nil {
		return 0, fmt.Errorf("check legacy table: %w", err)
	}
	if tables == 0 {
		return 0, nil
	}

	legacy := sq.Select(
		"TRIM(word)",
		"TRIM(title)",
		"explanation",
		"COALESCE(examples, '')",
		"COALESCE(user, '')",
		"COALESCE(date, '')",
		"MAX(0, CAST(COALESCE(likes, '0') AS INTEGER))",
		"MAX(0, CAST(COALESCE(dislikes, '0') AS INTEGER))",
		"COALESCE(labels, '')",
	).
		From(legacyTable).
		Where("TRIM(word) <> '' AND TRIM(title) <> '' AND TRIM(COALESCE(explanation, '')) <> ''").
		OrderBy("id ASC")

	query, args, err = sq.Insert(tableName).
		Columns(columns...).
		Select(legacy).
		Suffix("ON CONFLICT(word, title, explanation) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build legacy import: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("import legacy words: %w", err)
	}
	imported, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("import legacy words rows affected: %w", err)
	}
	return imported, nil
}

// Close releases the database handle. Later calls, including a second Close, fail with ErrStoreClosed.
func (r *SQLiteRepository) Close() error {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	if r.closed {
		return ErrStoreClosed
	}
	r.closed = true

	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Insert stores rec unless a row with the same dedup key exists.
// Duplicates, invalid records and storage faults all report false; only a closed store returns an error.
func (r *SQLiteRepository) Insert(ctx context.Context, rec domain.DefinitionRecord) (bool, error) {
	outcome, err := r.Save(ctx, rec)
	if err != nil {
		return false, err
	}
	return outcome.Stored(), nil
}

// Save is Insert with the reason a record was not stored.
func (r *SQLiteRepository) Save(ctx context.Context, rec domain.DefinitionRecord) (domain.InsertOutcome, error) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	if r.closed {
		return domain.OutcomeFaulted, ErrStoreClosed
	}

	rec.Word = domain.NormalizeWord(rec.Word)
	if !rec.Valid() {
		r.debug("reject invalid record", "word", rec.Word, "title", rec.Title)
		return domain.OutcomeInvalid, nil
	}

	query, args, err := sq.Insert(tableName).
		Columns(columns...).
		Values(rec.Word, rec.Title, rec.Explanation, rec.Examples, rec.Author,
			rec.PostedDate, rec.Upvotes, rec.Downvotes, rec.Labels).
		Suffix("ON CONFLICT(word, title, explanation) DO NOTHING").
		ToSql()
	if err != nil {
		r.warn("build insert", "word", rec.Word, "error", err)
		return domain.OutcomeFaulted, nil
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.warn("insert definition", "word", rec.Word, "error", err)
		return domain.OutcomeFaulted, nil
	}

	affected, err := res.RowsAffected()
	if err != nil {
		r.warn("insert rows affected", "word", rec.Word, "error", err)
		return domain.OutcomeFaulted, nil
	}
	if affected == 0 {
		return domain.OutcomeDuplicate, nil
	}
	return domain.OutcomeInserted, nil
}

// Lookup returns every definition for word in insertion order; an unknown word yields an empty set.
func (r *SQLiteRepository) Lookup(ctx context.Context, word string) (domain.DefinitionSet, error) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	if r.closed {
		return nil, ErrStoreClosed
	}

	key := domain.NormalizeWord(word)
	if key == "" {
		return domain.DefinitionSet{}, nil
	}

	records, err := r.query(ctx, selectDefinitions().Where(sq.Eq{"word": key}))
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", key, err)
	}
	return domain.DefinitionSet(records), nil
}

// ListAll returns a snapshot of every stored definition ordered by id.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]domain.DefinitionRecord, error) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	if r.closed {
		return nil, ErrStoreClosed
	}

	records, err := r.query(ctx, selectDefinitions())
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	return records, nil
}

// Count returns the number of stored rows.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	if r.closed {
		return 0, ErrStoreClosed
	}

	query, args, err := sq.Select("COUNT(*)").From(tableName).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count definitions: %w", err)
	}
	return n, nil
}

// RemoveDuplicates keeps the earliest row of every dedup key and reports how many rows went away.
func (r *SQLiteRepository) RemoveDuplicates(ctx context.Context) (int64, error) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	if r.closed {
		return 0, ErrStoreClosed
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	removed, err := deleteDuplicates(ctx, tx)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return removed, nil
}

func deleteDuplicates(ctx context.Context, tx *sql.Tx) (int64, error) {
	query, args, err := sq.Delete(tableName).
		Where("id NOT IN (SELECT MIN(id) FROM " + tableName + " GROUP BY word, title, explanation)").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete duplicates: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete duplicates: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete duplicates rows affected: %w", err)
	}
	return removed, nil
}

func selectDefinitions() sq.SelectBuilder {
	return sq.Select(append([]string{"id"}, columns...)...).
		From(tableName).
		OrderBy("id ASC")
}

func (r *SQLiteRepository) query(ctx context.Context, builder sq.SelectBuilder) ([]domain.DefinitionRecord, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	records := make([]domain.DefinitionRecord, 0)
	for rows.Next() {
		var rec domain.DefinitionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Word,
			&rec.Title,
			&rec.Explanation,
			&rec.Examples,
			&rec.Author,
			&rec.PostedDate,
			&rec.Upvotes,
			&rec.Downvotes,
			&rec.Labels,
		); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return records, nil
}

func (r *SQLiteRepository) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *SQLiteRepository) info(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *SQLiteRepository) warn(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
