package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const scoreSchema = `{
	"type": "object",
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 1},
		"reason": {"type": "string"}
	},
	"required": ["score", "reason"]
}`

func TestValidateObjectAcceptsConformantDocument(t *testing.T) {
	err := ValidateObject("score", scoreSchema, []byte(`{"score": 0.5, "reason": "partially correct"}`))
	require.NoError(t, err)
}

func TestValidateObjectRejectsOutOfRangeScore(t *testing.T) {
	err := ValidateObject("score", scoreSchema, []byte(`{"score": 1.5, "reason": "too high"}`))
	require.Error(t, err)
}

func TestValidateObjectRejectsMissingField(t *testing.T) {
	err := ValidateObject("score", scoreSchema, []byte(`{"score": 0.5}`))
	require.Error(t, err)
}

func TestValidateObjectRejectsMalformedJSON(t *testing.T) {
	err := ValidateObject("score", scoreSchema, []byte(`not json`))
	require.Error(t, err)
}

func TestNewOpenAIClientRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	require.Error(t, err)
}
