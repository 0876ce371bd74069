package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ilkoid/aiops-assistant/pkg/utils"
)

const inventorySchema = `
CREATE TABLE IF NOT EXISTS servers (
    name     TEXT NOT NULL,
    type     TEXT NOT NULL,
    hostname TEXT NOT NULL,
    PRIMARY KEY (name, type)
);
CREATE TABLE IF NOT EXISTS databases (
    name   TEXT PRIMARY KEY,
    type   TEXT NOT NULL,
    server TEXT NOT NULL
);`

// SQLiteInventory reads servers and databases from a SQLite file.
//
// Rows are returned in insertion order so the probe output is stable.
type SQLiteInventory struct {
	db   *sql.DB
	path string
}

// OpenSQLiteInventory opens (or creates) the inventory file and ensures the
// schema exists.
func OpenSQLiteInventory(ctx context.Context, path string) (*SQLiteInventory, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, inventorySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create inventory schema in %s: %w", path, err)
	}

	utils.Debug("SQLite inventory opened", "path", path)
	return &SQLiteInventory{db: db, path: path}, nil
}

// Seed fills empty tables with the given records. Tables that already hold
// rows are left untouched.
func (s *SQLiteInventory) Seed(ctx context.Context, servers []Server, databases []Database) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM servers`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count servers: %w", err)
	}
	if count == 0 {
		for _, srv := range servers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO servers (name, type, hostname) VALUES (?, ?, ?)`,
				srv.Name, srv.Type, srv.Hostname); err != nil {
				return fmt.Errorf("failed to seed server %s: %w", srv.Name, err)
			}
		}
	}

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM databases`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count databases: %w", err)
	}
	if count == 0 {
		for _, d := range databases {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO databases (name, type, server) VALUES (?, ?, ?)`,
				d.Name, d.Type, d.Server); err != nil {
				return fmt.Errorf("failed to seed database %s: %w", d.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	utils.Info("SQLite inventory seeded", "path", s.path)
	return nil
}

func (s *SQLiteInventory) Servers(ctx context.Context) ([]Server, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type, hostname FROM servers ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query servers: %w", err)
	}
	defer rows.Close()

	var servers []Server
	for rows.Next() {
		var srv Server
		if err := rows.Scan(&srv.Name, &srv.Type, &srv.Hostname); err != nil {
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		servers = append(servers, srv)
	}
	return servers, rows.Err()
}

func (s *SQLiteInventory) Databases(ctx context.Context) ([]Database, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type, server FROM databases ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query databases: %w", err)
	}
	defer rows.Close()

	var databases []Database
	for rows.Next() {
		var d Database
		if err := rows.Scan(&d.Name, &d.Type, &d.Server); err != nil {
			return nil, fmt.Errorf("failed to scan database: %w", err)
		}
		databases = append(databases, d)
	}
	return databases, rows.Err()
}

// Close releases the underlying connection pool.
func (s *SQLiteInventory) Close() error {
	return s.db.Close()
}
