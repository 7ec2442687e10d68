package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/aerodesk/call-intake/internal/config"
	"github.com/aerodesk/call-intake/pkg/logger"
)

// Service analyzes call transcripts via the chat completion API
type Service struct {
	client  openai.Client
	cfg     config.AnalysisConfig
	prompts *Prompts
	parser  *Parser
	logger  *logger.Logger
}

var _ Analyzer = (*Service)(nil)

// NewService creates a new call analysis service
func NewService(cfg config.AnalysisConfig, logger *logger.Logger) (*Service, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for call analysis")
	}

	prompts, err := LoadPrompts(cfg)
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		// Retry policy belongs to a surrounding resilience layer, not here
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}

	return &Service{
		client:  openai.NewClient(opts...),
		cfg:     cfg,
		prompts: prompts,
		parser:  NewParser(cfg, logger),
		logger:  logger.Named("call-analyzer"),
	}, nil
}

// Analyze classifies and summarizes the given transcript. The caller is
// expected to reject empty transcripts before calling. Provider failures
// propagate; malformed model output degrades to a fallback analysis.
func (s *Service) Analyze(ctx context.Context, transcript string) (CallAnalysis, error) {
	userPrompt, err := s.prompts.RenderUser(transcript)
	if err != nil {
		return CallAnalysis{}, err
	}

	s.logger.Debug("Analyzing transcript",
		logger.String("model", s.cfg.Model),
		logger.Int("transcript_chars", len(transcript)))

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.prompts.System),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(s.cfg.Temperature),
		TopP:        openai.Float(s.cfg.TopP),
		MaxTokens:   openai.Int(int64(s.cfg.MaxTokens)),
	}

	start := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return CallAnalysis{}, fmt.Errorf("chat completion request failed: %w", err)
	}

	var raw string
	if len(resp.Choices) > 0 {
		raw = resp.Choices[0].Message.Content
	}

	s.logger.Debug("Model response received",
		logger.Duration("duration", time.Since(start)),
		logger.Int("response_chars", len(raw)))

	result := s.parser.Parse(raw, transcript)

	s.logger.Info("Transcript analyzed",
		logger.String("category", result.Category),
		logger.String("airport_code", result.AirportCode),
		logger.Int("summary_chars", len(result.Summary)))

	return result, nil
}
