package intake

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aerodesk/call-intake/internal/analysis"
	"github.com/aerodesk/call-intake/internal/audio"
	"github.com/aerodesk/call-intake/internal/storage/sqlite"
	"github.com/aerodesk/call-intake/internal/transcription"
	"github.com/aerodesk/call-intake/pkg/logger"
)

// Client-input errors, rejected before any provider call is made
var (
	// ErrAudioMissing indicates the request carried no audio payload
	ErrAudioMissing = errors.New("audio payload is required")
	// ErrAudioTooSmall indicates the payload is below the minimum size;
	// recordings shorter than 2-3 seconds cannot be transcribed usefully
	ErrAudioTooSmall = errors.New("audio payload is too small, record at least 2-3 seconds")
	// ErrEmptyTranscript indicates the provider detected no speech
	ErrEmptyTranscript = errors.New("could not transcribe audio, transcript is empty")
)

// Request is one call intake submission
type Request struct {
	Audio      []byte
	Filename   string
	EmployeeID string
}

// Service orchestrates the intake pipeline: validate, transcribe, analyze,
// resolve reference data, persist. Each invocation is independent; the only
// mutation is the final call insert.
type Service struct {
	transcriber   transcription.Transcriber
	analyzer      analysis.Analyzer
	resolver      *Resolver
	calls         *sqlite.CallStorage
	minAudioBytes int
	spoolDir      string
	logger        *logger.Logger
}

// NewService creates a new intake service
func NewService(
	transcriber transcription.Transcriber,
	analyzer analysis.Analyzer,
	resolver *Resolver,
	calls *sqlite.CallStorage,
	minAudioBytes int,
	spoolDir string,
	logger *logger.Logger,
) *Service {
	return &Service{
		transcriber:   transcriber,
		analyzer:      analyzer,
		resolver:      resolver,
		calls:         calls,
		minAudioBytes: minAudioBytes,
		spoolDir:      spoolDir,
		logger:        logger.Named("intake"),
	}
}

// Intake runs the full pipeline for one submitted recording and returns the
// persisted call with its airport and category relations populated.
func (s *Service) Intake(ctx context.Context, req Request) (*sqlite.CallRecord, error) {
	if len(req.Audio) == 0 {
		return nil, ErrAudioMissing
	}
	if len(req.Audio) < s.minAudioBytes {
		s.logger.Warn("Rejecting undersized audio payload",
			logger.Int("bytes", len(req.Audio)),
			logger.Int("min_bytes", s.minAudioBytes))
		return nil, ErrAudioTooSmall
	}

	filename := s.normalizeFilename(req.Filename, req.Audio)

	s.logger.Info("New call intake",
		logger.String("employee_id", req.EmployeeID),
		logger.String("filename", filename),
		logger.Int("bytes", len(req.Audio)))

	if s.spoolDir != "" {
		s.spoolAudio(req.Audio, filename)
	}

	transcript, err := s.transcriber.Transcribe(ctx, req.Audio, filename)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}

	s.logger.Debug("Transcript ready", logger.Int("chars", len(transcript)))

	result, err := s.analyzer.Analyze(ctx, transcript)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	category, airport, err := s.resolver.Resolve(result.Category, result.AirportCode)
	if err != nil {
		return nil, err
	}

	record := &sqlite.CallRecord{
		EmployeeID: req.EmployeeID,
		AirportID:  airport.ID,
		CategoryID: category.ID,
		Transcript: transcript,
		Summary:    result.Summary,
		CreatedAt:  time.Now().UTC(),
	}

	id, err := s.calls.Insert(record)
	if err != nil {
		return nil, fmt.Errorf("failed to persist call: %w", err)
	}

	saved, err := s.calls.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted call: %w", err)
	}

	s.logger.Info("Call saved",
		logger.Int64("call_id", id),
		logger.String("employee_id", req.EmployeeID),
		logger.String("airport", airport.Code),
		logger.String("category", category.Name))

	return saved, nil
}

// normalizeFilename ensures the filename carries an extension hint for the
// transcription provider, sniffing the container when the upload has none.
func (s *Service) normalizeFilename(filename string, audioBytes []byte) string {
	if filename == "" {
		filename = "recording"
	}
	if filepath.Ext(filename) != "" {
		return filename
	}

	format, _ := audio.Detect(audioBytes)
	return filename + format.Extension
}

// spoolAudio writes the payload to the spool directory for later inspection.
// Spooling is best-effort; a failure never blocks the pipeline.
func (s *Service) spoolAudio(audioBytes []byte, filename string) {
	path := filepath.Join(s.spoolDir, uuid.New().String()+filepath.Ext(filename))
	if err := os.WriteFile(path, audioBytes, 0o644); err != nil {
		s.logger.Warn("Failed to spool audio payload",
			logger.String("path", path),
			logger.Error(err))
		return
	}

	s.logger.Debug("Spooled audio payload", logger.String("path", path))
}
