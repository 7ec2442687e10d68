package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/aerodesk/call-intake/pkg/logger"
)

// AirportStorage handles storage of airport reference data
type AirportStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewAirportStorage creates a new SQLite airport storage
func NewAirportStorage(db *sql.DB, logger *logger.Logger) (*AirportStorage, error) {
	storage := &AirportStorage{
		db:     db,
		logger: logger.Named("sqlite-airports"),
	}

	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize airport storage: %w", err)
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *AirportStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS airports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create airports table: %w", err)
	}

	return nil
}

// Seed inserts the given airports, skipping codes that already exist.
// It returns the number of rows actually inserted, so re-running is a no-op.
func (s *AirportStorage) Seed(airports []Airport) (int, error) {
	inserted := 0
	for _, airport := range airports {
		result, err := s.db.Exec(
			`INSERT OR IGNORE INTO airports (code, name) VALUES (?, ?)`,
			airport.Code, airport.Name,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to seed airport %s: %w", airport.Code, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(rows)
	}

	if inserted > 0 {
		s.logger.Info("Seeded airport reference data", logger.Int("inserted", inserted))
	}

	return inserted, nil
}

// GetByCode returns the airport with the given IATA code, or nil if absent
func (s *AirportStorage) GetByCode(code string) (*Airport, error) {
	var airport Airport
	err := s.db.QueryRow(
		`SELECT id, code, name FROM airports WHERE code = ?`,
		code,
	).Scan(&airport.ID, &airport.Code, &airport.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query airport by code: %w", err)
	}

	return &airport, nil
}

// List returns all airports ordered by code
func (s *AirportStorage) List() ([]*Airport, error) {
	rows, err := s.db.Query(`SELECT id, code, name FROM airports ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query airports: %w", err)
	}
	defer rows.Close()

	var airports []*Airport
	for rows.Next() {
		var airport Airport
		if err := rows.Scan(&airport.ID, &airport.Code, &airport.Name); err != nil {
			return nil, fmt.Errorf("failed to scan airport: %w", err)
		}
		airports = append(airports, &airport)
	}

	return airports, rows.Err()
}

// Count returns the number of airports in the reference table
func (s *AirportStorage) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM airports`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count airports: %w", err)
	}
	return count, nil
}
