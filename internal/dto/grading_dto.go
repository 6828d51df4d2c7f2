package dto

import (
	"time"

	"github.com/nbgrade/nbgrade-api/internal/models"
)

// ActivityInput is one extracted activity submitted for grading.
type ActivityInput struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Code        string `json:"code"`
}

// QuestionInput is one extracted question submitted for grading.
type QuestionInput struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SharingInput carries the optional promotional-action flags.
type SharingInput struct {
	Discord     bool `json:"discord"`
	SocialMedia bool `json:"social_media"`
}

// GradeRequest is the payload for a full grading run. The transcript and
// duration come from a prior transcription call; an empty transcript means no
// video was provided.
type GradeRequest struct {
	Activities          []ActivityInput `json:"activities"`
	Questions           []QuestionInput `json:"questions"`
	NotebookDescription string          `json:"notebook_description"`
	VideoTranscript     string          `json:"video_transcript"`
	VideoDuration       int             `json:"video_duration" validate:"gte=0"`
	DaysLate            int             `json:"days_late" validate:"gte=0"`
	Sharing             SharingInput    `json:"sharing"`
}

// GradingRunResponse is one persisted grading run in the audit history.
type GradingRunResponse struct {
	ID              uint                 `json:"id"`
	TotalScore      float64              `json:"total_score"`
	MaxScore        float64              `json:"max_score"`
	FinalPercentage float64              `json:"final_percentage"`
	DaysLate        int                  `json:"days_late"`
	Result          models.GradingResult `json:"result"`
	CreatedAt       time.Time            `json:"created_at"`
}
