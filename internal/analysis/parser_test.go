package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerodesk/call-intake/internal/config"
	"github.com/aerodesk/call-intake/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)
	return log
}

func testParserConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		DefaultAirport:   "MAD",
		FallbackCategory: "Otros",
		DefaultCategory:  "Conversación General",
		SummaryMaxChars:  100,
	}
}

func TestParseValidJSON(t *testing.T) {
	parser := NewParser(testParserConfig(), testLogger(t))

	raw := `{"category":"Parking","airportCode":"REU","summary":"Consulta ubicación del parking"}`
	result := parser.Parse(raw, "transcript")

	assert.Equal(t, "Parking", result.Category)
	assert.Equal(t, "REU", result.AirportCode)
	assert.Equal(t, "Consulta ubicación del parking", result.Summary)
}

func TestParseStripsCodeFences(t *testing.T) {
	parser := NewParser(testParserConfig(), testLogger(t))

	unwrapped := parser.Parse(`{"category":"Vuelos","airportCode":"BCN","summary":"Consulta horario"}`, "t")

	tests := map[string]string{
		"fence with language tag": "```json\n{\"category\":\"Vuelos\",\"airportCode\":\"BCN\",\"summary\":\"Consulta horario\"}\n```",
		"fence without tag":       "```\n{\"category\":\"Vuelos\",\"airportCode\":\"BCN\",\"summary\":\"Consulta horario\"}\n```",
		"fence on same line":      "```json{\"category\":\"Vuelos\",\"airportCode\":\"BCN\",\"summary\":\"Consulta horario\"}```",
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, unwrapped, parser.Parse(raw, "t"))
		})
	}
}

func TestParseFallbackOnMalformedJSON(t *testing.T) {
	parser := NewParser(testParserConfig(), testLogger(t))

	result := parser.Parse("not json at all", "Hola, quiero información")

	assert.Equal(t, "Otros", result.Category)
	assert.Equal(t, "MAD", result.AirportCode)
	assert.Equal(t, "Hola, quiero información", result.Summary)
}

func TestParseNeverReturnsEmptyFields(t *testing.T) {
	parser := NewParser(testParserConfig(), testLogger(t))

	inputs := []string{
		"",
		"not json at all",
		"{",
		"[]",
		"null",
		`{"category":"","airportCode":"","summary":""}`,
		`{"category":"   ","airportCode":"  ","summary":" "}`,
		`{"other":"field"}`,
		"``````",
	}

	for _, raw := range inputs {
		result := parser.Parse(raw, "Hola, quiero información sobre vuelos")

		assert.NotEmpty(t, strings.TrimSpace(result.Category), "raw=%q", raw)
		assert.NotEmpty(t, strings.TrimSpace(result.AirportCode), "raw=%q", raw)
		assert.NotEmpty(t, strings.TrimSpace(result.Summary), "raw=%q", raw)
	}
}

func TestParseToleratesFieldNameCase(t *testing.T) {
	parser := NewParser(testParserConfig(), testLogger(t))

	result := parser.Parse(`{"Category":"Queja","AirportCode":"BIO","Summary":"Reclamo"}`, "t")

	assert.Equal(t, "Queja", result.Category)
	assert.Equal(t, "BIO", result.AirportCode)
	assert.Equal(t, "Reclamo", result.Summary)
}

func TestParseToleratesTrailingCommas(t *testing.T) {
	parser := NewParser(testParserConfig(), testLogger(t))

	result := parser.Parse(`{"category":"Vuelos","airportCode":"BCN","summary":"Horario",}`, "t")

	assert.Equal(t, "Vuelos", result.Category)
	assert.Equal(t, "BCN", result.AirportCode)
	assert.Equal(t, "Horario", result.Summary)
}

func TestParseUnknownAirportSentinel(t *testing.T) {
	parser := NewParser(testParserConfig(), testLogger(t))

	tests := map[string]string{
		"uppercase sentinel": `{"category":"Vuelos","airportCode":"UNKNOWN","summary":"Horario"}`,
		"lowercase sentinel": `{"category":"Vuelos","airportCode":"unknown","summary":"Horario"}`,
		"empty code":         `{"category":"Vuelos","airportCode":"","summary":"Horario"}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			result := parser.Parse(raw, "t")
			assert.Equal(t, "MAD", result.AirportCode)
		})
	}
}

func TestParseUppercasesAirportCode(t *testing.T) {
	parser := NewParser(testParserConfig(), testLogger(t))

	result := parser.Parse(`{"category":"Vuelos","airportCode":"bcn","summary":"Horario"}`, "t")

	assert.Equal(t, "BCN", result.AirportCode)
}

func TestParseEmptyCategoryDefault(t *testing.T) {
	parser := NewParser(testParserConfig(), testLogger(t))

	result := parser.Parse(`{"category":"","airportCode":"BCN","summary":"Horario"}`, "t")

	assert.Equal(t, "Conversación General", result.Category)
}

func TestParseEmptySummarySynthesized(t *testing.T) {
	parser := NewParser(testParserConfig(), testLogger(t))

	transcript := strings.Repeat("a", 150)
	result := parser.Parse(`{"category":"Vuelos","airportCode":"BCN","summary":""}`, transcript)

	assert.Equal(t, "Llamada sobre: "+strings.Repeat("a", 100), result.Summary)
}

func TestParseFallbackSummaryTruncation(t *testing.T) {
	parser := NewParser(testParserConfig(), testLogger(t))

	t.Run("long transcript is truncated with marker", func(t *testing.T) {
		transcript := strings.Repeat("x", 500)
		result := parser.Parse("not json", transcript)

		assert.Len(t, []rune(result.Summary), 100)
		assert.True(t, strings.HasSuffix(result.Summary, "..."))
	})

	t.Run("short transcript is kept verbatim", func(t *testing.T) {
		result := parser.Parse("not json", "corto")
		assert.Equal(t, "corto", result.Summary)
	})

	t.Run("multibyte transcript is cut on rune boundaries", func(t *testing.T) {
		transcript := strings.Repeat("ñ", 500)
		result := parser.Parse("not json", transcript)

		assert.Len(t, []rune(result.Summary), 100)
		assert.True(t, strings.HasSuffix(result.Summary, "..."))
	})
}
