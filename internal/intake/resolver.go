package intake

import (
	"errors"
	"fmt"

	"github.com/aerodesk/call-intake/internal/storage/sqlite"
	"github.com/aerodesk/call-intake/pkg/logger"
)

// ErrSeedDataMissing indicates the airport reference table holds no usable
// default airport. The pipeline refuses to proceed until the operator loads
// the seed data.
var ErrSeedDataMissing = errors.New("airport reference data is missing: load the seed data first")

// Resolver resolves an analysis result against the reference tables:
// categories are created lazily on first use, airports fall back to the
// configured default code when the model's code is unknown.
type Resolver struct {
	airports       *sqlite.AirportStorage
	categories     *sqlite.CategoryStorage
	defaultAirport string
	logger         *logger.Logger
}

// NewResolver creates a new reference resolver
func NewResolver(
	airports *sqlite.AirportStorage,
	categories *sqlite.CategoryStorage,
	defaultAirport string,
	logger *logger.Logger,
) *Resolver {
	return &Resolver{
		airports:       airports,
		categories:     categories,
		defaultAirport: defaultAirport,
		logger:         logger.Named("resolver"),
	}
}

// Resolve returns the category and airport rows for an analysis result
func (r *Resolver) Resolve(categoryName, airportCode string) (*sqlite.Category, *sqlite.Airport, error) {
	category, err := r.categories.GetOrCreate(categoryName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve category: %w", err)
	}

	airport, err := r.resolveAirport(airportCode)
	if err != nil {
		return nil, nil, err
	}

	return category, airport, nil
}

// resolveAirport looks up the airport by code, substituting the default code
// when the lookup misses.
func (r *Resolver) resolveAirport(code string) (*sqlite.Airport, error) {
	airport, err := r.airports.GetByCode(code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up airport: %w", err)
	}
	if airport != nil {
		return airport, nil
	}

	r.logger.Warn("Airport not found, using default",
		logger.String("code", code),
		logger.String("default", r.defaultAirport))

	airport, err = r.airports.GetByCode(r.defaultAirport)
	if err != nil {
		return nil, fmt.Errorf("failed to look up default airport: %w", err)
	}
	if airport == nil {
		return nil, ErrSeedDataMissing
	}

	return airport, nil
}
