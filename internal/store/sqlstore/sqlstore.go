// Package sqlstore keeps the todo table in a local SQLite file using the
// pure-Go ncruces driver.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/Makepad-fr/tabletodo/internal/model"
)

// Store is a Table over one SQLite table. Rows are listed in id order.
type Store struct {
	db    *sql.DB
	table string
}

// Open opens (creating if needed) the database at path and ensures the
// table exists. Use ":memory:" for a throwaway database.
//
// The caller must Close the store.
func Open(ctx context.Context, path, table string) (*Store, error) {
	if table == "" {
		return nil, fmt.Errorf("sqlstore: empty table name")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// :memory: is per-connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, table: quoteIdent(table)}
	schema := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		is_completed INTEGER NOT NULL DEFAULT 0
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the connection, mainly so tests can seed malformed rows.
func (s *Store) DB() *sql.DB { return s.db }

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, is_completed FROM `+s.table+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (model.Item, error) {
	var (
		id   int64
		name sql.NullString
		done bool
	)
	if err := sc.Scan(&id, &name, &done); err != nil {
		return model.Item{}, fmt.Errorf("scan row: %w", err)
	}
	return model.Item{
		ID:          model.ID(strconv.FormatInt(id, 10)),
		Name:        name.String,
		IsCompleted: done,
	}, nil
}

func (s *Store) Insert(ctx context.Context, rec model.NewItem) (model.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO `+s.table+` (name, is_completed) VALUES (?, ?) RETURNING id, name, is_completed`,
		rec.Name, rec.IsCompleted)
	it, err := scanItem(row)
	if err != nil {
		return model.Item{}, fmt.Errorf("insert row: %w", err)
	}
	return it, nil
}

func (s *Store) UpdateByID(ctx context.Context, id model.ID, p model.Patch) error {
	if p.IsCompleted == nil {
		return nil
	}
	key, ok := intID(id)
	if !ok {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE `+s.table+` SET is_completed = ? WHERE id = ?`, *p.IsCompleted, key); err != nil {
		return fmt.Errorf("update row: %w", err)
	}
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, id model.ID) error {
	key, ok := intID(id)
	if !ok {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE id = ?`, key); err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	return nil
}

// intID converts an opaque id to the integer key. Ids that are not integers
// cannot match any row.
func intID(id model.ID) (int64, bool) {
	n, err := strconv.ParseInt(id.String(), 10, 64)
	return n, err == nil
}
