package sqlite

import "time"

// Airport represents one row of the airport reference table. Airports are
// seeded once from configuration and are otherwise read-only.
type Airport struct {
	ID   int64  `json:"id"`
	Code string `json:"code"` // IATA code, three letters, unique
	Name string `json:"name"`
}

// Category represents a call category. Categories are created lazily the
// first time the model emits a new label.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CallRecord represents a persisted call with its analysis result
type CallRecord struct {
	ID         int64     `json:"id"`
	EmployeeID string    `json:"employee_id"`
	AirportID  int64     `json:"airport_id"`
	CategoryID int64     `json:"category_id"`
	Transcript string    `json:"transcript"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`

	// Populated on reads that join the reference tables
	Airport  *Airport  `json:"airport,omitempty"`
	Category *Category `json:"category,omitempty"`
}

// DailySummaryRecord represents one employee's aggregated summary for a day
type DailySummaryRecord struct {
	ID         int64  `json:"id"`
	EmployeeID string `json:"employee_id"`
	Summary    string `json:"summary"`
	Date       string `json:"date"` // YYYY-MM-DD, UTC
}
