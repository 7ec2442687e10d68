package intake

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerodesk/call-intake/internal/storage/sqlite"
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
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testStorages(t *testing.T) (*sqlite.AirportStorage, *sqlite.CategoryStorage, *sqlite.CallStorage) {
	t.Helper()
	db := testDB(t)
	log := testLogger(t)

	airports, err := sqlite.NewAirportStorage(db, log)
	require.NoError(t, err)
	categories, err := sqlite.NewCategoryStorage(db, log)
	require.NoError(t, err)
	calls, err := sqlite.NewCallStorage(db, log)
	require.NoError(t, err)
	return airports, categories, calls
}

func seedMadrid(t *testing.T, airports *sqlite.AirportStorage) {
	t.Helper()
	_, err := airports.Seed([]sqlite.Airport{
		{Code: "MAD", Name: "Madrid-Barajas Adolfo Suárez"},
		{Code: "BCN", Name: "Barcelona-El Prat Josep Tarradellas"},
	})
	require.NoError(t, err)
}

func TestResolveKnownAirport(t *testing.T) {
	airports, categories, _ := testStorages(t)
	seedMadrid(t, airports)

	resolver := NewResolver(airports, categories, "MAD", testLogger(t))

	category, airport, err := resolver.Resolve("Vuelos", "BCN")
	require.NoError(t, err)
	assert.Equal(t, "Vuelos", category.Name)
	assert.Equal(t, "BCN", airport.Code)
}

func TestResolveUnknownAirportFallsBackToDefault(t *testing.T) {
	airports, categories, _ := testStorages(t)
	seedMadrid(t, airports)

	resolver := NewResolver(airports, categories, "MAD", testLogger(t))

	category, airport, err := resolver.Resolve("Queja", "XXX")
	require.NoError(t, err)
	assert.Equal(t, "MAD", airport.Code)

	// The unseen category was created on the fly and is reused next time
	again, _, err := resolver.Resolve("Queja", "MAD")
	require.NoError(t, err)
	assert.Equal(t, category.ID, again.ID)
}

func TestResolveMissingSeedData(t *testing.T) {
	airports, categories, _ := testStorages(t)

	resolver := NewResolver(airports, categories, "MAD", testLogger(t))

	_, _, err := resolver.Resolve("Otros", "XXX")
	assert.ErrorIs(t, err, ErrSeedDataMissing)
}
