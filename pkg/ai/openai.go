package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	generateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nbgrade",
		Subsystem: "ai",
		Name:      "generate_duration_seconds",
		Help:      "Duration of structured-output generation requests",
	}, []string{"model", "schema"})

	generateFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nbgrade",
		Subsystem: "ai",
		Name:      "generate_failures_total",
		Help:      "Number of structured-output generation failures",
	}, []string{"model", "schema"})

	transcribeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nbgrade",
		Subsystem: "ai",
		Name:      "transcribe_duration_seconds",
		Help:      "Duration of audio transcription requests",
	})

	transcribeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nbgrade",
		Subsystem: "ai",
		Name:      "transcribe_failures_total",
		Help:      "Number of audio transcription failures",
	})
)

// OpenAIConfig defines configuration options for the OpenAI client.
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	TranscriptionModel string
	MaxTokens          int
	Logger             zerolog.Logger
}

// OpenAIClient implements Client and Transcriber against the OpenAI API.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIClient builds a new client using the provided configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4.1"
	}

	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = "whisper-1"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	tracer := otel.Tracer("github.com/nbgrade/nbgrade-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(config)

	return &OpenAIClient{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// GenerateObject sends the prompt to OpenAI in json-object mode and validates
// the returned document against the request schema.
func (c *OpenAIClient) GenerateObject(parent context.Context, req GenerateRequest) (json.RawMessage, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	ctx, span := c.tracer.Start(parent, "openai.generate_object", trace.WithAttributes(
		attribute.String("model", model),
		attribute.String("schema", req.SchemaName),
	))
	defer span.End()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	request := openai.ChatCompletionRequest{
		Model:          model,
		MaxTokens:      c.cfg.MaxTokens,
		TopP:           req.TopP,
		Messages:       messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, request)
	generateDuration.WithLabelValues(model, req.SchemaName).Observe(time.Since(start).Seconds())
	if err != nil {
		generateFailures.WithLabelValues(model, req.SchemaName).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("openai generate object: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		generateFailures.WithLabelValues(model, req.SchemaName).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := ValidateObject(req.SchemaName, req.Schema, []byte(content)); err != nil {
		generateFailures.WithLabelValues(model, req.SchemaName).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return json.RawMessage(content), nil
}

// Transcribe converts spoken audio to text using the transcription model.
func (c *OpenAIClient) Transcribe(parent context.Context, audio io.Reader, filename string) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai.transcribe", trace.WithAttributes(
		attribute.String("model", c.cfg.TranscriptionModel),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.cfg.TranscriptionModel,
		Reader:   audio,
		FilePath: filename,
	})
	transcribeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		transcribeFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("openai transcribe: %w", err)
	}

	return resp.Text, nil
}

// ValidateObject checks that a JSON document conforms to the given schema.
func ValidateObject(name, schema string, doc []byte) error {
	if name == "" {
		name = "response"
	}

	compiled, err := jsonschema.CompileString(name+".json", schema)
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}

	var value interface{}
	if err := json.Unmarshal(doc, &value); err != nil {
		return fmt.Errorf("parse structured output: %w", err)
	}

	if err := compiled.Validate(value); err != nil {
		return fmt.Errorf("structured output does not match schema %s: %w", name, err)
	}

	return nil
}
