package ai

import (
	"context"
	"encoding/json"
	"io"
)

// GenerateRequest describes a structured-output generation call. Schema is the
// JSON Schema source the model's response must satisfy; the prompt itself must
// spell out the expected shape since json-object mode does not enforce one.
type GenerateRequest struct {
	Model      string
	SchemaName string
	Schema     string
	System     string
	Prompt     string
	TopP       float32
}

// Client describes a model capable of returning schema-conformant objects.
type Client interface {
	GenerateObject(ctx context.Context, req GenerateRequest) (json.RawMessage, error)
}

// Transcriber describes a speech-to-text capability over an audio stream.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}
