package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerodesk/call-intake/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)
	return log
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTestAirports(t *testing.T, airports *AirportStorage) {
	t.Helper()
	_, err := airports.Seed([]Airport{
		{Code: "MAD", Name: "Madrid-Barajas Adolfo Suárez"},
		{Code: "BCN", Name: "Barcelona-El Prat Josep Tarradellas"},
	})
	require.NoError(t, err)
}

func TestAirportSeedIsIdempotent(t *testing.T) {
	airports, err := NewAirportStorage(testDB(t), testLogger(t))
	require.NoError(t, err)

	seed := []Airport{
		{Code: "MAD", Name: "Madrid-Barajas Adolfo Suárez"},
		{Code: "BCN", Name: "Barcelona-El Prat Josep Tarradellas"},
	}

	inserted, err := airports.Seed(seed)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	inserted, err = airports.Seed(seed)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	count, err := airports.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAirportGetByCode(t *testing.T) {
	airports, err := NewAirportStorage(testDB(t), testLogger(t))
	require.NoError(t, err)
	seedTestAirports(t, airports)

	airport, err := airports.GetByCode("MAD")
	require.NoError(t, err)
	require.NotNil(t, airport)
	assert.Equal(t, "Madrid-Barajas Adolfo Suárez", airport.Name)

	airport, err = airports.GetByCode("XXX")
	require.NoError(t, err)
	assert.Nil(t, airport)
}

func TestCategoryGetOrCreate(t *testing.T) {
	categories, err := NewCategoryStorage(testDB(t), testLogger(t))
	require.NoError(t, err)

	created, err := categories.GetOrCreate("Parking")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Parking", created.Name)

	// Second resolution reuses the same row
	again, err := categories.GetOrCreate("Parking")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	all, err := categories.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCategoryExactMatchOnly(t *testing.T) {
	categories, err := NewCategoryStorage(testDB(t), testLogger(t))
	require.NoError(t, err)

	first, err := categories.GetOrCreate("Queja")
	require.NoError(t, err)
	second, err := categories.GetOrCreate("queja")
	require.NoError(t, err)

	// Case variants are distinct labels
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCallInsertAndGetByID(t *testing.T) {
	db := testDB(t)
	log := testLogger(t)

	airports, err := NewAirportStorage(db, log)
	require.NoError(t, err)
	categories, err := NewCategoryStorage(db, log)
	require.NoError(t, err)
	calls, err := NewCallStorage(db, log)
	require.NoError(t, err)
	seedTestAirports(t, airports)

	airport, err := airports.GetByCode("BCN")
	require.NoError(t, err)
	category, err := categories.GetOrCreate("Vuelos")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	id, err := calls.Insert(&CallRecord{
		EmployeeID: "emp-1",
		AirportID:  airport.ID,
		CategoryID: category.ID,
		Transcript: "¿A qué hora sale el vuelo a Londres?",
		Summary:    "Solicita horario de vuelo",
		CreatedAt:  now,
	})
	require.NoError(t, err)

	record, err := calls.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "emp-1", record.EmployeeID)
	assert.Equal(t, "Solicita horario de vuelo", record.Summary)
	assert.True(t, record.CreatedAt.Equal(now))
	require.NotNil(t, record.Airport)
	assert.Equal(t, "BCN", record.Airport.Code)
	require.NotNil(t, record.Category)
	assert.Equal(t, "Vuelos", record.Category.Name)

	missing, err := calls.GetByID(id + 1000)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCallListByDay(t *testing.T) {
	db := testDB(t)
	log := testLogger(t)

	airports, err := NewAirportStorage(db, log)
	require.NoError(t, err)
	categories, err := NewCategoryStorage(db, log)
	require.NoError(t, err)
	calls, err := NewCallStorage(db, log)
	require.NoError(t, err)
	seedTestAirports(t, airports)

	airport, err := airports.GetByCode("MAD")
	require.NoError(t, err)
	category, err := categories.GetOrCreate("Otros")
	require.NoError(t, err)

	today := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	yesterday := today.Add(-24 * time.Hour)

	for _, createdAt := range []time.Time{today, today.Add(time.Hour), yesterday} {
		_, err := calls.Insert(&CallRecord{
			EmployeeID: "emp-1",
			AirportID:  airport.ID,
			CategoryID: category.ID,
			CreatedAt:  createdAt,
		})
		require.NoError(t, err)
	}

	records, err := calls.ListByDay(today)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = calls.ListByDay(yesterday)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDailySummaryInsertIfAbsent(t *testing.T) {
	summaries, err := NewDailySummaryStorage(testDB(t), testLogger(t))
	require.NoError(t, err)

	record := &DailySummaryRecord{
		EmployeeID: "emp-1",
		Summary:    "Resumen del día",
		Date:       "2026-08-30",
	}

	inserted, err := summaries.InsertIfAbsent(record)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotZero(t, record.ID)

	inserted, err = summaries.InsertIfAbsent(&DailySummaryRecord{
		EmployeeID: "emp-1",
		Summary:    "otro resumen",
		Date:       "2026-08-30",
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	records, err := summaries.ListByDate("2026-08-30")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Resumen del día", records[0].Summary)
}
