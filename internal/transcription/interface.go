package transcription

import "context"

// Transcriber converts a recorded call audio payload into text. An empty
// transcript is a valid result (silence); provider failures are returned
// as errors.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Ensure both backends implement the interface
var (
	_ Transcriber = (*OpenAIClient)(nil)
	_ Transcriber = (*LocalClient)(nil)
)
