package mockbrewery

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/sfgbrewery/beer-contract-tests/servicedef"
)

type sqliteBackend struct {
	db *sql.DB
}

func openSQLiteBackend(path string) (*sqliteBackend, error) {
	if err := requireDSN(SQLiteStore, path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases from being one per connection
	db.SetMaxOpenConns(1)
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS beers (
			id INTEGER PRIMARY KEY,
			upc TEXT NOT NULL UNIQUE,
			data TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &sqliteBackend{db: db}, nil
}

func (s *sqliteBackend) load(ctx context.Context, id int) (servicedef.Beer, bool, error) {
	var (
		beer servicedef.Beer
		data string
	)
	err := s.db.QueryRowContext(ctx, `SELECT data FROM beers WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return beer, false, nil
	}
	if err != nil {
		return beer, false, err
	}
	return beer, true, json.Unmarshal([]byte(data), &beer)
}

func (s *sqliteBackend) findUPC(ctx context.Context, upc string) (int, bool, error) {
	var id int
	err := s.db.QueryRowContext(ctx, `SELECT id FROM beers WHERE upc = ?`, upc).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	return id, err == nil, err
}

// save ignores previousUPC, since the UPC is a column of the beer's own row.
func (s *sqliteBackend) save(ctx context.Context, beer servicedef.Beer, _ string) error {
	data, err := json.Marshal(beer)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO beers (id, upc, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET upc = excluded.upc, data = excluded.data`,
		beer.IDValue(), beer.UPC, string(data))
	return err
}

func (s *sqliteBackend) remove(ctx context.Context, beer servicedef.Beer) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM beers WHERE id = ?`, beer.IDValue())
	return err
}

func (s *sqliteBackend) maxID(ctx context.Context) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM beers`).Scan(&id)
	return id, err
}

func (s *sqliteBackend) close() error {
	return s.db.Close()
}
