package datafinder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/sandrolain/gomathex/pkg/types"
)

// ErrClosed is returned by a closed SQL finder.
var ErrClosed = errors.New("data finder closed")

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQL looks parameters up in a key/value table.
//
// The table has a text key column and a value column. Integer, real and blob
// columns map to Integer, Float and byte array values; text is decoded with
// Decode.
type SQL struct {
	mu     sync.RWMutex
	closed bool
	db     *sql.DB
	table  string
	lookup string
	upsert string
	owned  bool
}

// OpenSQLite opens (or creates) a SQLite database at path with a key/value
// table named table. Use ":memory:" for a private in-memory database.
func OpenSQLite(path, table string) (*SQL, error) {
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A :memory: database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT NOT NULL PRIMARY KEY,
			value
		)
	`, table)); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	f, err := NewSQL(db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	f.owned = true
	return f, nil
}

// NewSQL wraps an existing database whose table has "key" and "value"
// columns. The caller keeps ownership of db.
func NewSQL(db *sql.DB, table string) (*SQL, error) {
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQL{
		db:     db,
		table:  table,
		lookup: fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, table),
		upsert: fmt.Sprintf(`INSERT INTO %s (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, table),
	}, nil
}

// TryGetData implements types.DataFinder.
func (s *SQL) TryGetData(ctx context.Context, key string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	var raw any
	err := s.db.QueryRowContext(ctx, s.lookup, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup %q: %w", key, err)
	}
	v, err := fromColumn(raw)
	if err != nil {
		return nil, false, fmt.Errorf("lookup %q: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key.
func (s *SQL) Set(ctx context.Context, key string, value any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	v, err := types.FromGo(value)
	if err != nil {
		return fmt.Errorf("store %q: %w", key, err)
	}
	var col any
	switch v.Type {
	case types.TypeInteger:
		col = v.Int
	case types.TypeFloat:
		col = v.Float
	case types.TypeByteArray:
		col = v.Bytes
	default:
		col = Encode(v)
	}
	if _, err := s.db.ExecContext(ctx, s.upsert, key, col); err != nil {
		return fmt.Errorf("store %q: %w", key, err)
	}
	return nil
}

// Close releases the database when it was opened by OpenSQLite.
func (s *SQL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func fromColumn(raw any) (types.Value, error) {
	switch c := raw.(type) {
	case nil:
		return types.Value{}, errors.New("null value")
	case int64:
		return types.Int(c), nil
	case float64:
		return types.Float(c), nil
	case bool:
		return types.Bool(c), nil
	case []byte:
		return types.Bytes(c), nil
	case string:
		return Decode(c), nil
	default:
		return types.Value{}, fmt.Errorf("unsupported column type %T", raw)
	}
}
