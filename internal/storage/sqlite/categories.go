package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/aerodesk/call-intake/pkg/logger"
)

// CategoryStorage handles storage of call categories
type CategoryStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewCategoryStorage creates a new SQLite category storage
func NewCategoryStorage(db *sql.DB, logger *logger.Logger) (*CategoryStorage, error) {
	storage := &CategoryStorage{
		db:     db,
		logger: logger.Named("sqlite-categories"),
	}

	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize category storage: %w", err)
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *CategoryStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create categories table: %w", err)
	}

	return nil
}

// GetByName returns the category with the given name, or nil if absent.
// Matching is exact; case or accent variants are distinct categories.
func (s *CategoryStorage) GetByName(name string) (*Category, error) {
	var category Category
	err := s.db.QueryRow(
		`SELECT id, name FROM categories WHERE name = ?`,
		name,
	).Scan(&category.ID, &category.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category by name: %w", err)
	}

	return &category, nil
}

// GetOrCreate returns the category with the given name, creating it on first
// use. A unique constraint on the name turns a concurrent duplicate insert
// into an "already exists" re-read instead of a duplicate row.
func (s *CategoryStorage) GetOrCreate(name string) (*Category, error) {
	category, err := s.GetByName(name)
	if err != nil {
		return nil, err
	}
	if category != nil {
		return category, nil
	}

	result, err := s.db.Exec(`INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		// Another request may have created the same name between the read
		// and the insert; the unique constraint reports that as an error.
		if isUniqueViolation(err) {
			return s.GetByName(name)
		}
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	s.logger.Info("Created new category",
		logger.Int64("id", id),
		logger.String("name", name))

	return &Category{ID: id, Name: name}, nil
}

// List returns all categories ordered by name
func (s *CategoryStorage) List() ([]*Category, error) {
	rows, err := s.db.Query(`SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &category)
	}

	return categories, rows.Err()
}

// isUniqueViolation reports whether the error is a SQLite unique constraint
// violation. The driver does not export a typed error for this.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
