package analysis

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/aerodesk/call-intake/internal/config"
	"github.com/aerodesk/call-intake/pkg/logger"
)

// Parser decodes the model's raw text reply into a CallAnalysis. It never
// returns an error: decode failures are absorbed into a fallback analysis
// built from the transcript, and every field of the result is non-empty.
// Failures stay observable through logging, not control flow.
type Parser struct {
	defaultAirport   string
	fallbackCategory string
	defaultCategory  string
	summaryMaxChars  int
	logger           *logger.Logger
}

// NewParser creates a new response parser
func NewParser(cfg config.AnalysisConfig, logger *logger.Logger) *Parser {
	maxChars := cfg.SummaryMaxChars
	if maxChars <= 0 {
		maxChars = 100
	}

	return &Parser{
		defaultAirport:   cfg.DefaultAirport,
		fallbackCategory: cfg.FallbackCategory,
		defaultCategory:  cfg.DefaultCategory,
		summaryMaxChars:  maxChars,
		logger:           logger.Named("response-parser"),
	}
}

// codeFenceRe matches markdown fence delimiters, with or without a language
// tag, together with any whitespace that follows them.
var codeFenceRe = regexp.MustCompile("```(?:json)?\\s*")

// trailingCommaRe matches a comma directly before a closing brace or bracket
var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// Parse decodes the raw model output, using the transcript to synthesize a
// fallback when the output is unusable.
func (p *Parser) Parse(raw string, transcript string) CallAnalysis {
	cleaned := strings.TrimSpace(raw)
	if strings.Contains(cleaned, "```") {
		cleaned = strings.TrimSpace(codeFenceRe.ReplaceAllString(cleaned, ""))
	}
	cleaned = trailingCommaRe.ReplaceAllString(cleaned, "$1")

	var result CallAnalysis
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		p.logger.Warn("Failed to parse model response, using fallback analysis",
			logger.String("raw", raw),
			logger.Error(err))
		result = p.fallback(transcript)
	}

	return p.normalize(result, transcript)
}

// fallback builds a degraded analysis from the transcript alone
func (p *Parser) fallback(transcript string) CallAnalysis {
	return CallAnalysis{
		Category:    p.fallbackCategory,
		AirportCode: p.defaultAirport,
		Summary:     truncate(transcript, p.summaryMaxChars),
	}
}

// normalize replaces empty or sentinel fields with their defaults so that
// the returned analysis never carries an empty value.
func (p *Parser) normalize(result CallAnalysis, transcript string) CallAnalysis {
	code := strings.ToUpper(strings.TrimSpace(result.AirportCode))
	if code == "" || code == "UNKNOWN" {
		p.logger.Warn("No airport detected, using default",
			logger.String("default", p.defaultAirport))
		code = p.defaultAirport
	}
	result.AirportCode = code

	if strings.TrimSpace(result.Category) == "" {
		p.logger.Warn("No category detected, using default",
			logger.String("default", p.defaultCategory))
		result.Category = p.defaultCategory
	}

	if strings.TrimSpace(result.Summary) == "" {
		p.logger.Warn("No summary detected, generating from transcript")
		result.Summary = "Llamada sobre: " + firstRunes(transcript, p.summaryMaxChars)
	}

	return result
}

// truncate limits text to max runes, marking the cut with an ellipsis
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}

// firstRunes returns the first max runes of text
func firstRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
