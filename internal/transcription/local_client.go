package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/aerodesk/call-intake/internal/config"
	"github.com/aerodesk/call-intake/pkg/logger"
)

// LocalClient transcribes audio via a self-hosted speech service exposing a
// multipart POST /transcribe endpoint that responds with {"text": "..."}.
type LocalClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
}

// NewLocalClient creates a new client for the local speech service
func NewLocalClient(cfg config.TranscriptionConfig, logger *logger.Logger) *LocalClient {
	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &LocalClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimSuffix(cfg.LocalURL, "/"),
		logger:  logger.Named("stt-local"),
	}
}

// transcribeResponse is the speech service response body
type transcribeResponse struct {
	Text string `json:"text"`
}

// Transcribe sends the audio payload to the speech service and returns the
// transcription text. An empty result is returned as-is.
func (c *LocalClient) Transcribe(ctx context.Context, audioBytes []byte, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audioBytes); err != nil {
		return "", fmt.Errorf("failed to write audio payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := c.baseURL + "/transcribe"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug("Sending audio to speech service",
		logger.String("url", url),
		logger.String("filename", filename),
		logger.Int("bytes", len(audioBytes)))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("speech service returned status %d: %s", resp.StatusCode, string(snippet))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var result transcribeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse speech service response: %w", err)
	}

	c.logger.Debug("Transcription completed",
		logger.Duration("duration", time.Since(start)),
		logger.Int("chars", len(result.Text)))

	return result.Text, nil
}
