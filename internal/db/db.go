// Package db opens the SQLite database and manages its schema.
package db

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database and configures pragmas. Pragmas are passed in
// the DSN so they apply to every pooled connection, not just the first one.
// busy_timeout in particular must cover all connections: the matching pass and
// claim transitions take write locks from concurrent requests.
func Open(path string) (*sql.DB, error) {
	dsn := "file:" + path + "?" + url.Values{
		"_pragma": []string{
			"journal_mode(WAL)",
			"busy_timeout(5000)",
			"foreign_keys(ON)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return db, nil
}
