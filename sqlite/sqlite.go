// Package sqlite runs text snippets as SQL statements against SQLite.
//
// Each combination gets its own connection. The setup script runs on it once,
// then the snippet is compiled once and every timed loop only executes the
// prepared statement. Keyword values bind to the named parameters (:name,
// @name or $name) the snippet references.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/p-arndt/benchtab/bench"
)

// MemoryPath selects a private in-memory database.
const MemoryPath = ":memory:"

var paramRegex = regexp.MustCompile(`[:@$]([A-Za-z_][A-Za-z0-9_]*)`)

// Runtime executes snippets with the pure-Go SQLite driver.
type Runtime struct {
	// Path is the database file. Empty or MemoryPath opens a fresh in-memory
	// database for every combination.
	Path   string
	Logger *slog.Logger
}

// New returns a Runtime on the database at path.
func New(path string) *Runtime {
	return &Runtime{Path: path, Logger: slog.New(slog.DiscardHandler)}
}

func (r *Runtime) Name() string { return "sqlite" }

func (r *Runtime) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// dsnWithPragmas applies the connection pragmas. File databases get WAL and a
// busy timeout so a benchmark can share them with other readers.
func dsnWithPragmas(path string) string {
	if path == "" || path == MemoryPath {
		return MemoryPath + "?_pragma=temp_store(MEMORY)"
	}
	return path + "?_pragma=busy_timeout(15000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"
}

// Prepare opens a connection, runs src.Setup and compiles src.Stmt.
func (r *Runtime) Prepare(ctx context.Context, src bench.Source) (bench.Program, error) {
	db, err := sql.Open("sqlite", dsnWithPragmas(r.Path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// An in-memory database lives exactly as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if src.Setup != "" {
		if _, err := db.ExecContext(ctx, src.Setup); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite setup: %w", err)
		}
	}

	stmt, err := db.PrepareContext(ctx, src.Stmt)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite prepare: %w", err)
	}
	args := bindArgs(src)
	r.logger().Debug("sqlite prepare", "path", r.Path, "params", len(args))

	return &program{db: db, stmt: stmt, args: args}, nil
}

// bindArgs returns the keyword values referenced by the statement text.
func bindArgs(src bench.Source) []any {
	var args []any
	seen := make(map[string]bool)
	for _, m := range paramRegex.FindAllStringSubmatch(src.Stmt, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		if v, ok := src.Lookup(name); ok {
			args = append(args, sql.Named(name, sqlValue(v)))
		}
	}
	return args
}

// sqlValue converts v to a driver value, falling back to its text form.
func sqlValue(v any) any {
	if dv, err := driver.DefaultParameterConverter.ConvertValue(v); err == nil {
		return dv
	}
	return fmt.Sprint(v)
}

type program struct {
	db   *sql.DB
	stmt *sql.Stmt
	args []any
}

// Run executes the statement and drains its rows.
func (p *program) Run(ctx context.Context) error {
	rows, err := p.stmt.QueryContext(ctx, p.args...)
	if err != nil {
		return err
	}
	for rows.Next() {
	}
	return errors.Join(rows.Err(), rows.Close())
}

func (p *program) Close() error {
	return errors.Join(p.stmt.Close(), p.db.Close())
}
