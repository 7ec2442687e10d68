package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aerodesk/call-intake/pkg/logger"
)

// CallStorage handles storage of call records
type CallStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewCallStorage creates a new SQLite call storage
func NewCallStorage(db *sql.DB, logger *logger.Logger) (*CallStorage, error) {
	storage := &CallStorage{
		db:     db,
		logger: logger.Named("sqlite-calls"),
	}

	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize call storage: %w", err)
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *CallStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS calls (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id TEXT NOT NULL,
			airport_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL,
			transcript TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (airport_id) REFERENCES airports(id),
			FOREIGN KEY (category_id) REFERENCES categories(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create calls table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_calls_employee_id ON calls(employee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_created_at ON calls(created_at)`,
	}

	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create call index: %w", err)
		}
	}

	return nil
}

// Insert stores a call record and returns its ID
func (s *CallStorage) Insert(record *CallRecord) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO calls
		(employee_id, airport_id, category_id, transcript, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.EmployeeID,
		record.AirportID,
		record.CategoryID,
		record.Transcript,
		record.Summary,
		record.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert call: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

const callSelect = `
	SELECT c.id, c.employee_id, c.airport_id, c.category_id, c.transcript, c.summary, c.created_at,
	       a.code, a.name, cat.name
	FROM calls c
	JOIN airports a ON a.id = c.airport_id
	JOIN categories cat ON cat.id = c.category_id`

// GetByID returns the call with the given ID, with airport and category
// relations populated, or nil if absent.
func (s *CallStorage) GetByID(id int64) (*CallRecord, error) {
	row := s.db.QueryRow(callSelect+` WHERE c.id = ?`, id)

	record, err := s.scanCallRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query call by ID: %w", err)
	}

	return record, nil
}

// ListRecent returns the most recent calls, newest first
func (s *CallStorage) ListRecent(limit int) ([]*CallRecord, error) {
	rows, err := s.db.Query(callSelect+` ORDER BY c.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent calls: %w", err)
	}
	defer rows.Close()

	return s.scanCallRows(rows)
}

// ListByDay returns all calls created within the given UTC day
func (s *CallStorage) ListByDay(day time.Time) ([]*CallRecord, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	rows, err := s.db.Query(
		callSelect+` WHERE c.created_at >= ? AND c.created_at < ? ORDER BY c.created_at`,
		start.Format(time.RFC3339), end.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls by day: %w", err)
	}
	defer rows.Close()

	return s.scanCallRows(rows)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanCallRow scans a single joined call row
func (s *CallStorage) scanCallRow(row rowScanner) (*CallRecord, error) {
	var record CallRecord
	var airport Airport
	var category Category
	var createdAt string

	if err := row.Scan(
		&record.ID,
		&record.EmployeeID,
		&record.AirportID,
		&record.CategoryID,
		&record.Transcript,
		&record.Summary,
		&createdAt,
		&airport.Code,
		&airport.Name,
		&category.Name,
	); err != nil {
		return nil, err
	}

	parsed, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	record.CreatedAt = parsed

	airport.ID = record.AirportID
	category.ID = record.CategoryID
	record.Airport = &airport
	record.Category = &category

	return &record, nil
}

// scanCallRows scans database rows into CallRecord structs
func (s *CallStorage) scanCallRows(rows *sql.Rows) ([]*CallRecord, error) {
	var records []*CallRecord
	for rows.Next() {
		record, err := s.scanCallRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
