package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/aerodesk/call-intake/pkg/logger"
)

// DailySummaryStorage handles storage of per-employee daily summaries
type DailySummaryStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewDailySummaryStorage creates a new SQLite daily summary storage
func NewDailySummaryStorage(db *sql.DB, logger *logger.Logger) (*DailySummaryStorage, error) {
	storage := &DailySummaryStorage{
		db:     db,
		logger: logger.Named("sqlite-summaries"),
	}

	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize daily summary storage: %w", err)
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *DailySummaryStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_summaries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id TEXT NOT NULL,
			summary TEXT NOT NULL,
			date TEXT NOT NULL,
			UNIQUE (employee_id, date)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create daily_summaries table: %w", err)
	}

	return nil
}

// InsertIfAbsent stores a daily summary unless one already exists for the
// same employee and date. It reports whether a row was inserted, which keeps
// aggregation runs idempotent per day.
func (s *DailySummaryStorage) InsertIfAbsent(record *DailySummaryRecord) (bool, error) {
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO daily_summaries (employee_id, summary, date) VALUES (?, ?, ?)`,
		record.EmployeeID, record.Summary, record.Date,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert daily summary: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	record.ID = id

	return true, nil
}

// ListByDate returns all daily summaries for the given date (YYYY-MM-DD)
func (s *DailySummaryStorage) ListByDate(date string) ([]*DailySummaryRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, employee_id, summary, date FROM daily_summaries WHERE date = ? ORDER BY employee_id`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summaries: %w", err)
	}
	defer rows.Close()

	var records []*DailySummaryRecord
	for rows.Next() {
		var record DailySummaryRecord
		if err := rows.Scan(&record.ID, &record.EmployeeID, &record.Summary, &record.Date); err != nil {
			return nil, fmt.Errorf("failed to scan daily summary: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}
