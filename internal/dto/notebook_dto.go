package dto

import "github.com/nbgrade/nbgrade-api/internal/models"

// ExtractionResponse carries the structured content pulled out of a notebook.
type ExtractionResponse struct {
	Activities          []models.Activity `json:"activities"`
	Questions           []models.Question `json:"questions"`
	NotebookDescription string            `json:"notebook_description"`
}
