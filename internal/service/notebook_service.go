package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nbgrade/nbgrade-api/internal/dto"
	"github.com/nbgrade/nbgrade-api/internal/models"
	"github.com/nbgrade/nbgrade-api/pkg/ai"
)

var (
	// ErrNotebookInvalid indicates the upload does not parse as a notebook document.
	ErrNotebookInvalid = errors.New("notebook file is not a valid notebook document")
	// ErrNotebookTooLarge indicates the upload exceeded the configured limit.
	ErrNotebookTooLarge = errors.New("notebook exceeds maximum allowed size")
)

const extractionSchema = `{
	"type": "object",
	"properties": {
		"notebook_description": {"type": "string"},
		"activities": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"description": {"type": "string"},
					"code": {"type": "string"}
				},
				"required": ["description", "code"]
			}
		},
		"questions": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"question": {"type": "string"},
					"answer": {"type": "string"}
				},
				"required": ["question", "answer"]
			}
		}
	},
	"required": ["notebook_description", "activities", "questions"]
}`

// NotebookService extracts gradeable structure from an uploaded notebook file.
type NotebookService interface {
	Extract(ctx context.Context, file *multipart.FileHeader) (dto.ExtractionResponse, error)
}

// NotebookConfig groups notebook extraction configuration values.
type NotebookConfig struct {
	Model     string
	MaxSizeMB int
}

type notebookService struct {
	client  ai.Client
	logger  zerolog.Logger
	tracer  trace.Tracer
	model   string
	maxSize int64
}

// NewNotebookService constructs the extraction service.
func NewNotebookService(client ai.Client, logger zerolog.Logger, cfg NotebookConfig) NotebookService {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 5
	}

	return &notebookService{
		client:  client,
		logger:  logger.With().Str("component", "notebook_service").Logger(),
		tracer:  otel.Tracer("github.com/nbgrade/nbgrade-api/internal/service/notebook"),
		model:   cfg.Model,
		maxSize: int64(cfg.MaxSizeMB) * 1024 * 1024,
	}
}

// notebookCell mirrors the on-disk notebook cell shape; source may be a single
// string or a sequence of strings to be concatenated.
type notebookCell struct {
	CellType string     `json:"cell_type"`
	Source   cellSource `json:"source"`
}

type notebookDocument struct {
	Cells []notebookCell `json:"cells"`
}

type cellSource string

func (s *cellSource) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = cellSource(single)
		return nil
	}

	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}

	*s = cellSource(strings.Join(parts, ""))
	return nil
}

type extractionPayload struct {
	NotebookDescription string `json:"notebook_description"`
	Activities          []struct {
		Description string `json:"description"`
		Code        string `json:"code"`
	} `json:"activities"`
	Questions []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"questions"`
}

// Extract parses the notebook's cell structure and delegates identification of
// activities and questions to the model.
func (s *notebookService) Extract(ctx context.Context, file *multipart.FileHeader) (dto.ExtractionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "notebook.extract")
	defer span.End()

	if file == nil {
		err := errors.New("notebook file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.ExtractionResponse{}, err
	}

	span.SetAttributes(
		attribute.String("notebook.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("notebook.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		span.RecordError(ErrNotebookTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.ExtractionResponse{}, ErrNotebookTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.ExtractionResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.ExtractionResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		span.RecordError(ErrNotebookTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.ExtractionResponse{}, ErrNotebookTooLarge
	}

	var notebook notebookDocument
	if err := json.Unmarshal(buf.Bytes(), &notebook); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "notebook parse failed")
		return dto.ExtractionResponse{}, fmt.Errorf("%w: %s", ErrNotebookInvalid, err)
	}

	prompt, err := buildExtractionPrompt(notebook)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prompt build failed")
		return dto.ExtractionResponse{}, err
	}

	raw, err := s.client.GenerateObject(ctx, ai.GenerateRequest{
		Model:      s.model,
		SchemaName: "notebook_extraction",
		Schema:     extractionSchema,
		Prompt:     prompt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return dto.ExtractionResponse{}, err
	}

	var payload extractionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction parse failed")
		return dto.ExtractionResponse{}, fmt.Errorf("parse extraction response: %w", err)
	}

	response := dto.ExtractionResponse{
		Activities:          make([]models.Activity, 0, len(payload.Activities)),
		Questions:           make([]models.Question, 0, len(payload.Questions)),
		NotebookDescription: payload.NotebookDescription,
	}

	for i, activity := range payload.Activities {
		response.Activities = append(response.Activities, models.Activity{
			ID:          fmt.Sprintf("activity-%d", i+1),
			Description: activity.Description,
			Code:        activity.Code,
			Completed:   strings.TrimSpace(activity.Code) != "",
		})
	}

	for i, question := range payload.Questions {
		response.Questions = append(response.Questions, models.Question{
			ID:       fmt.Sprintf("question-%d", i+1),
			Question: question.Question,
			Answer:   question.Answer,
		})
	}

	span.SetAttributes(
		attribute.Int("notebook.activities", len(response.Activities)),
		attribute.Int("notebook.questions", len(response.Questions)),
	)

	return response, nil
}

func buildExtractionPrompt(notebook notebookDocument) (string, error) {
	type flatCell struct {
		Index   int    `json:"index"`
		Type    string `json:"type"`
		Content string `json:"content"`
	}

	cells := make([]flatCell, 0, len(notebook.Cells))
	for i, cell := range notebook.Cells {
		cells = append(cells, flatCell{
			Index:   i,
			Type:    cell.CellType,
			Content: string(cell.Source),
		})
	}

	encoded, err := json.MarshalIndent(cells, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode notebook cells: %w", err)
	}

	builder := strings.Builder{}
	builder.WriteString("Analyze this Jupyter notebook and extract:\n\n")
	builder.WriteString("1. A comprehensive description of what this notebook covers\n")
	builder.WriteString("2. Coding activities/exercises with their implementations\n")
	builder.WriteString("3. Questions with their answers\n\n")
	builder.WriteString("For the notebook description:\n")
	builder.WriteString("- Summarize the main topics covered in the notebook\n")
	builder.WriteString("- Identify key concepts and learning objectives\n")
	builder.WriteString("- Note the progression of topics from start to end\n")
	builder.WriteString("- Include any important themes or practical applications\n\n")
	builder.WriteString("For activities, look for:\n")
	builder.WriteString("- Markdown cells that describe a coding task (e.g., \"Activity 1: Create a function that...\", \"Exercise: Implement...\", \"Task: Write a function...\")\n")
	builder.WriteString("- The corresponding code cell(s) that contain the student's implementation\n")
	builder.WriteString("- Combine the description and code for each activity\n\n")
	builder.WriteString("For questions, look for:\n")
	builder.WriteString("- Markdown cells that pose questions (e.g., \"Question 1: What is...\", \"Q: Explain...\", or any theoretical/conceptual questions)\n")
	builder.WriteString("- The following cell(s) that contain the student's answer (can be markdown or code)\n")
	builder.WriteString("- Combine the question and answer for each question\n\n")
	builder.WriteString("Here are the notebook cells:\n")
	builder.Write(encoded)
	builder.WriteString("\n\nExtract all activities and questions, preserving the exact code and answers as written by the student.\n\n")
	builder.WriteString(`Respond ONLY with a JSON object: {"notebook_description": "<summary>", "activities": [{"description": "<task>", "code": "<implementation>"}], "questions": [{"question": "<question>", "answer": "<answer>"}]}`)
	return builder.String(), nil
}
