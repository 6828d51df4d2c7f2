package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nbgrade/nbgrade-api/pkg/ai"
)

const sampleNotebook = `{
	"cells": [
		{"cell_type": "markdown", "source": "# Intro to Python\nActivity 1: Write a greeting function."},
		{"cell_type": "code", "source": ["def greet(name):\n", "    return f\"Hello, {name}!\""]},
		{"cell_type": "markdown", "source": "Question 1: What does a return statement do?"},
		{"cell_type": "markdown", "source": "It hands a value back to the caller."}
	]
}`

func TestNotebookServiceExtract(t *testing.T) {
	client := &stubAIClient{respond: func(req ai.GenerateRequest) (json.RawMessage, error) {
		return json.RawMessage(`{
			"notebook_description": "Intro to Python functions",
			"activities": [
				{"description": "Write a greeting function", "code": "def greet(name):\n    return f\"Hello, {name}!\""},
				{"description": "Unattempted extra task", "code": ""}
			],
			"questions": [
				{"question": "What does a return statement do?", "answer": "It hands a value back to the caller."}
			]
		}`), nil
	}}
	svc := NewNotebookService(client, zerolog.Nop(), NotebookConfig{Model: "gpt-4.1", MaxSizeMB: 5})

	header := newFileHeader(t, "notebook", "lesson.ipynb", []byte(sampleNotebook))
	response, err := svc.Extract(context.Background(), header)
	require.NoError(t, err)

	require.Equal(t, "Intro to Python functions", response.NotebookDescription)
	require.Len(t, response.Activities, 2)
	require.Equal(t, "activity-1", response.Activities[0].ID)
	require.True(t, response.Activities[0].Completed)
	require.Equal(t, "activity-2", response.Activities[1].ID)
	require.False(t, response.Activities[1].Completed)
	require.Len(t, response.Questions, 1)
	require.Equal(t, "question-1", response.Questions[0].ID)
	require.Equal(t, 1, client.callCount())

	// The prompt carries each cell, with multi-part sources joined.
	require.Equal(t, "notebook_extraction", client.requests[0].SchemaName)
	require.Contains(t, client.requests[0].Prompt, "Activity 1: Write a greeting function.")
	require.Contains(t, client.requests[0].Prompt, "def greet(name):\\n    return f")
}

func TestNotebookServiceRejectsMalformedNotebook(t *testing.T) {
	client := &stubAIClient{}
	svc := NewNotebookService(client, zerolog.Nop(), NotebookConfig{Model: "gpt-4.1"})

	header := newFileHeader(t, "notebook", "broken.ipynb", []byte("not json at all"))
	_, err := svc.Extract(context.Background(), header)
	require.ErrorIs(t, err, ErrNotebookInvalid)
	require.Zero(t, client.callCount())
}

func TestNotebookServiceRejectsOversizedNotebook(t *testing.T) {
	client := &stubAIClient{}
	svc := NewNotebookService(client, zerolog.Nop(), NotebookConfig{Model: "gpt-4.1", MaxSizeMB: 1})

	payload := []byte(`{"cells": [{"cell_type": "markdown", "source": "` + strings.Repeat("a", 2*1024*1024) + `"}]}`)
	header := newFileHeader(t, "notebook", "huge.ipynb", payload)
	_, err := svc.Extract(context.Background(), header)
	require.ErrorIs(t, err, ErrNotebookTooLarge)
	require.Zero(t, client.callCount())
}

func TestNotebookServiceRequiresFile(t *testing.T) {
	svc := NewNotebookService(&stubAIClient{}, zerolog.Nop(), NotebookConfig{Model: "gpt-4.1"})

	_, err := svc.Extract(context.Background(), nil)
	require.Error(t, err)
}

func TestCellSourceAcceptsStringAndArray(t *testing.T) {
	var fromString cellSource
	require.NoError(t, json.Unmarshal([]byte(`"print(1)"`), &fromString))
	require.Equal(t, cellSource("print(1)"), fromString)

	var fromParts cellSource
	require.NoError(t, json.Unmarshal([]byte(`["a\n", "b"]`), &fromParts))
	require.Equal(t, cellSource("a\nb"), fromParts)

	var invalid cellSource
	require.Error(t, json.Unmarshal([]byte(`42`), &invalid))
}
