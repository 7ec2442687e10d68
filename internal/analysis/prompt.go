package analysis

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/aerodesk/call-intake/internal/config"
)

// The prompt text is configuration data: the category enumeration and the
// airport mapping evolve independently of the parsing and resolution code.
// Paths in the config override the embedded defaults.

const defaultSystemPrompt = `Eres un experto en análisis de llamadas. Extrae información clave y genera resúmenes concisos. Responde ÚNICAMENTE con JSON sin formato markdown ni explicaciones adicionales.`

const defaultUserPrompt = `Analiza esta llamada de call center y extrae información estructurada.

CATEGORÍAS DISPONIBLES (elige la más específica):
• Parking - aparcamiento, estacionamiento, tarifas parking
• Vuelos - horarios, salidas, llegadas, retrasos, información de vuelos
• Facturación - check-in, facturar equipaje, mostrador
• Equipaje - maletas, equipaje perdido, recogida equipaje
• Seguridad - controles, prohibiciones, artículos prohibidos
• Transporte - buses, taxis, metro, tren, cómo llegar al aeropuerto
• Información General - servicios aeropuerto, tiendas, restaurantes, wifi
• Reservas - hacer reservas, citas
• Queja - problemas, reclamos, incidencias
• Otros - cualquier otra consulta

AEROPUERTOS ESPAÑOLES (código IATA):
REU=Reus, GRO=Girona, BCN=Barcelona, MAD=Madrid, AGP=Málaga, VLC=Valencia,
SVQ=Sevilla, ALC=Alicante, BIO=Bilbao, PMI=Palma, IBZ=Ibiza, MAH=Menorca,
LPA=Gran Canaria, TFS=Tenerife Sur, TFN=Tenerife Norte, ACE=Lanzarote

INSTRUCCIONES:
1. Identifica el aeropuerto mencionado (si no hay ninguno, usa MAD)
2. Clasifica en la categoría MÁS ESPECÍFICA
3. Resume en 1-2 frases QUÉ quiere el cliente (NO copies el texto literal)

EJEMPLOS:
"Hola, ¿dónde está el parking de Reus?" →
{"category":"Parking","airportCode":"REU","summary":"Consulta ubicación del parking"}

"¿A qué hora sale el vuelo a Londres desde Barcelona?" →
{"category":"Vuelos","airportCode":"BCN","summary":"Solicita horario de vuelo a Londres"}

"¿Cuánto cuesta aparcar en el aeropuerto de Málaga?" →
{"category":"Parking","airportCode":"AGP","summary":"Pregunta tarifas de aparcamiento"}

Responde ÚNICAMENTE con JSON válido (sin ` + "```" + `json, sin comentarios):

TRANSCRIPCIÓN A ANALIZAR:
{{.Transcript}}`

// Prompts holds the rendered system prompt and the user prompt template
type Prompts struct {
	System   string
	userTmpl *template.Template
}

// LoadPrompts loads the prompts from the configured paths, falling back to
// the embedded defaults when no path is set.
func LoadPrompts(cfg config.AnalysisConfig) (*Prompts, error) {
	system := defaultSystemPrompt
	if cfg.SystemPromptPath != "" {
		data, err := os.ReadFile(cfg.SystemPromptPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read system prompt %s: %w", cfg.SystemPromptPath, err)
		}
		system = string(data)
	}

	user := defaultUserPrompt
	if cfg.UserPromptPath != "" {
		data, err := os.ReadFile(cfg.UserPromptPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read user prompt %s: %w", cfg.UserPromptPath, err)
		}
		user = string(data)
	}

	tmpl, err := template.New("user-prompt").Parse(user)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user prompt template: %w", err)
	}

	return &Prompts{
		System:   system,
		userTmpl: tmpl,
	}, nil
}

// RenderUser renders the user prompt for the given transcript
func (p *Prompts) RenderUser(transcript string) (string, error) {
	var buf bytes.Buffer
	err := p.userTmpl.Execute(&buf, struct{ Transcript string }{Transcript: transcript})
	if err != nil {
		return "", fmt.Errorf("failed to render user prompt: %w", err)
	}
	return buf.String(), nil
}
