// Package lookup resolves instrument serial numbers to asset tracking
// identifiers through a sqlite database shared with the asset bookkeeping
// tooling.
package lookup

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// ErrUnresolved means a serial matched no tracking id, or matched more than
// one. Either way the record cannot be attributed to an asset and its file
// must be skipped.
var ErrUnresolved = errors.New("lookup: serial has no unique tracking id")

// Store is a serial number to tracking id lookup backed by sqlite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the lookup database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open lookup database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize lookup schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS instrument_lookup (
		serial TEXT NOT NULL,
		uid    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_instrument_lookup_serial
		ON instrument_lookup(serial);
	`
	_, err := s.db.Exec(schema)
	return err
}

// UID returns the tracking id for a serial. Zero matches and multiple
// matches both return ErrUnresolved.
func (s *Store) UID(serial string) (string, error) {
	rows, err := s.db.Query(
		`SELECT uid FROM instrument_lookup WHERE serial = ?`, serial)
	if err != nil {
		return "", fmt.Errorf("query tracking id: %w", err)
	}
	defer rows.Close()

	var uid string
	count := 0
	for rows.Next() {
		count++
		if count > 1 {
			return "", fmt.Errorf("serial %s: %w", serial, ErrUnresolved)
		}
		if err := rows.Scan(&uid); err != nil {
			return "", fmt.Errorf("scan tracking id: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("query tracking id: %w", err)
	}
	if count == 0 {
		return "", fmt.Errorf("serial %s: %w", serial, ErrUnresolved)
	}
	return uid, nil
}

// Put inserts one serial to tracking id mapping.
func (s *Store) Put(serial, uid string) error {
	_, err := s.db.Exec(
		`INSERT INTO instrument_lookup (serial, uid) VALUES (?, ?)`,
		serial, uid)
	return err
}

// ImportCSV loads serial/uid pairs from a CSV file with a "serial,uid"
// header into the lookup table. Returns the number of imported rows.
func (s *Store) ImportCSV(path string) (int, error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read mapping header: %w", err)
	}
	serialCol, uidCol := -1, -1
	for i, name := range header {
		switch name {
		case "serial":
			serialCol = i
		case "uid":
			uidCol = i
		}
	}
	if serialCol < 0 || uidCol < 0 {
		return 0, fmt.Errorf("mapping file %s: missing serial/uid columns", path)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read mapping row: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO instrument_lookup (serial, uid) VALUES (?, ?)`,
			row[serialCol], row[uidCol]); err != nil {
			return 0, err
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}
