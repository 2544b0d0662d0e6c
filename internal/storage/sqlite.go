package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/dshills/contractdesk/internal/contract"
)

// SQLite stores the sequence in a single table ordered by position.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens dsn and creates the contracts table if needed.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if err := migrateContracts(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

func migrateContracts(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS contracts (
    position INTEGER PRIMARY KEY,
    fio TEXT NOT NULL,
    birth_date TEXT NOT NULL,
    passport TEXT NOT NULL,
    phone TEXT NOT NULL,
    insurance_type TEXT NOT NULL,
    duration INTEGER NOT NULL,
    amount INTEGER NOT NULL,
    creation_date TEXT NOT NULL DEFAULT ''
);
`)
	return err
}

// Load returns all rows in position order.
func (s *SQLite) Load() ([]contract.Record, error) {
	rows, err := s.db.Query(`SELECT fio, birth_date, passport, phone, insurance_type, duration, amount, creation_date
FROM contracts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying contracts: %w", err)
	}
	defer rows.Close()

	records := make([]contract.Record, 0, 64)
	for rows.Next() {
		var (
			r                      contract.Record
			birth, kind, createdAt string
		)
		if err := rows.Scan(&r.FullName, &birth, &r.PassportID, &r.Phone, &kind, &r.DurationMonths, &r.Amount, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning contract[%d]: %w", len(records), err)
		}
		if r.BirthDate, err = contract.ParseDate(birth); err != nil {
			return nil, fmt.Errorf("contract[%d] birth_date: %w", len(records), err)
		}
		if r.CreationDate, err = contract.ParseDate(createdAt); err != nil {
			return nil, fmt.Errorf("contract[%d] creation_date: %w", len(records), err)
		}
		if r.InsuranceType, err = contract.ParseInsuranceType(kind); err != nil {
			return nil, fmt.Errorf("contract[%d]: %w", len(records), err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading contracts: %w", err)
	}
	return records, nil
}

// Save replaces the table contents inside one transaction.
func (s *SQLite) Save(records []contract.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM contracts`); err != nil {
		return fmt.Errorf("clearing contracts: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO contracts(position, fio, birth_date, passport, phone, insurance_type, duration, amount, creation_date)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(i, r.FullName, r.BirthDate.String(), r.PassportID, r.Phone,
			string(r.InsuranceType), r.DurationMonths, r.Amount, r.CreationDate.String()); err != nil {
			return fmt.Errorf("inserting contract[%d]: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
