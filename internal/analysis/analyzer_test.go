package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerodesk/call-intake/internal/config"
)

// fakeCompletionServer serves a canned chat completion response and records
// the last request body.
func fakeCompletionServer(t *testing.T, content string, status int) (*httptest.Server, *map[string]interface{}) {
	t.Helper()

	lastRequest := &map[string]interface{}{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, lastRequest))

		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"message":"boom"}}`)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{
				{
					"index":         0,
					"finish_reason": "stop",
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": content,
					},
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	return server, lastRequest
}

func testAnalysisConfig(baseURL string) config.AnalysisConfig {
	return config.AnalysisConfig{
		OpenAIAPIKey:     "test-key",
		BaseURL:          baseURL,
		Model:            "gpt-4o-mini",
		Temperature:      0.2,
		TopP:             0.95,
		MaxTokens:        250,
		TimeoutSeconds:   5,
		DefaultAirport:   "MAD",
		FallbackCategory: "Otros",
		DefaultCategory:  "Conversación General",
		SummaryMaxChars:  100,
	}
}

func TestAnalyzeParsesModelResponse(t *testing.T) {
	server, lastRequest := fakeCompletionServer(t,
		`{"category":"Parking","airportCode":"REU","summary":"Consulta ubicación del parking"}`,
		http.StatusOK)

	service, err := NewService(testAnalysisConfig(server.URL), testLogger(t))
	require.NoError(t, err)

	result, err := service.Analyze(context.Background(), "¿Dónde está el parking de Reus?")
	require.NoError(t, err)

	assert.Equal(t, "Parking", result.Category)
	assert.Equal(t, "REU", result.AirportCode)
	assert.Equal(t, "Consulta ubicación del parking", result.Summary)

	// The request carries the transcript and the near-deterministic sampling
	messages, ok := (*lastRequest)["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]interface{})
	assert.Contains(t, user["content"], "¿Dónde está el parking de Reus?")
	assert.InDelta(t, 0.2, (*lastRequest)["temperature"], 0.001)
	assert.InDelta(t, 250, (*lastRequest)["max_tokens"], 0.001)
}

func TestAnalyzeStripsFencedResponse(t *testing.T) {
	server, _ := fakeCompletionServer(t,
		"```json\n{\"category\":\"Vuelos\",\"airportCode\":\"BCN\",\"summary\":\"Consulta horario\"}\n```",
		http.StatusOK)

	service, err := NewService(testAnalysisConfig(server.URL), testLogger(t))
	require.NoError(t, err)

	result, err := service.Analyze(context.Background(), "transcript")
	require.NoError(t, err)

	assert.Equal(t, "Vuelos", result.Category)
	assert.Equal(t, "BCN", result.AirportCode)
	assert.Equal(t, "Consulta horario", result.Summary)
}

func TestAnalyzeMalformedOutputDegrades(t *testing.T) {
	server, _ := fakeCompletionServer(t, "lo siento, no puedo ayudar con eso", http.StatusOK)

	service, err := NewService(testAnalysisConfig(server.URL), testLogger(t))
	require.NoError(t, err)

	result, err := service.Analyze(context.Background(), "Hola, quiero información")
	require.NoError(t, err)

	assert.Equal(t, "Otros", result.Category)
	assert.Equal(t, "MAD", result.AirportCode)
	assert.Equal(t, "Hola, quiero información", result.Summary)
}

func TestAnalyzeProviderFailurePropagates(t *testing.T) {
	server, _ := fakeCompletionServer(t, "", http.StatusInternalServerError)

	service, err := NewService(testAnalysisConfig(server.URL), testLogger(t))
	require.NoError(t, err)

	_, err = service.Analyze(context.Background(), "transcript")
	assert.Error(t, err)
}

func TestNewServiceRequiresAPIKey(t *testing.T) {
	cfg := testAnalysisConfig("")
	cfg.OpenAIAPIKey = ""

	_, err := NewService(cfg, testLogger(t))
	assert.Error(t, err)
}
