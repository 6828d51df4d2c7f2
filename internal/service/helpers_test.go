package service

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nbgrade/nbgrade-api/pkg/ai"
)

// stubAIClient answers structured-output calls through a caller-supplied
// function and records every request it sees.
type stubAIClient struct {
	mu       sync.Mutex
	requests []ai.GenerateRequest
	respond  func(req ai.GenerateRequest) (json.RawMessage, error)
}

func (s *stubAIClient) GenerateObject(_ context.Context, req ai.GenerateRequest) (json.RawMessage, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.respond == nil {
		return json.RawMessage(`{"score": 1, "reason": "ok"}`), nil
	}
	return s.respond(req)
}

func (s *stubAIClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// newFileHeader builds an in-memory multipart file header for service tests.
func newFileHeader(t *testing.T, field, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 10240)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File[field]
	require.Len(t, files, 1)
	return files[0]
}
