package transcription

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/aerodesk/call-intake/internal/audio"
	"github.com/aerodesk/call-intake/internal/config"
	"github.com/aerodesk/call-intake/pkg/logger"
)

// OpenAIClient transcribes audio via the OpenAI speech-to-text API
type OpenAIClient struct {
	client   openai.Client
	model    string
	language string
	prompt   string
	logger   *logger.Logger
}

// NewOpenAIClient creates a new OpenAI transcription client
func NewOpenAIClient(cfg config.TranscriptionConfig, logger *logger.Logger) (*OpenAIClient, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for the openai transcription backend")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		// Retry policy belongs to a surrounding resilience layer, not here
		option.WithMaxRetries(0),
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}

	return &OpenAIClient{
		client:   openai.NewClient(opts...),
		model:    cfg.Model,
		language: cfg.Language,
		prompt:   cfg.Prompt,
		logger:   logger.Named("stt-openai"),
	}, nil
}

// Transcribe sends the audio payload to the speech-to-text API and returns
// the transcription text. An empty result is returned as-is.
func (c *OpenAIClient) Transcribe(ctx context.Context, audioBytes []byte, filename string) (string, error) {
	format, known := audio.Detect(audioBytes)

	c.logger.Debug("Transcribing audio",
		logger.String("filename", filename),
		logger.Int("bytes", len(audioBytes)),
		logger.String("format", format.Name),
		logger.Bool("format_known", known))

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audioBytes), filename, format.ContentType),
		Model: openai.AudioModel(c.model),
	}
	if c.language != "" {
		params.Language = openai.String(c.language)
	}
	if c.prompt != "" {
		params.Prompt = openai.String(c.prompt)
	}

	start := time.Now()
	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	c.logger.Debug("Transcription completed",
		logger.Duration("duration", time.Since(start)),
		logger.Int("chars", len(resp.Text)))

	return resp.Text, nil
}
