package analysis

import "context"

// CallAnalysis is the structured result of analyzing one call transcript.
// It is transient: consumed immediately to resolve reference data and build
// a call record, never stored directly.
type CallAnalysis struct {
	Category    string `json:"category"`
	AirportCode string `json:"airportCode"`
	Summary     string `json:"summary"`
}

// Analyzer produces a CallAnalysis from a transcript. Provider failures are
// returned as errors; malformed model output is absorbed into a fallback
// analysis and never surfaces as an error.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (CallAnalysis, error)
}
