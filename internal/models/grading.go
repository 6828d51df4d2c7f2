package models

import (
	"time"

	"gorm.io/datatypes"
)

// Category maxima are fixed regardless of how many items a notebook contains.
const (
	ActivitiesMaxScore   = 10.0
	QuestionsMaxScore    = 5.0
	PresentationMaxScore = 5.0
)

// ActivityBreakdown summarises the activities category of a grading run.
type ActivityBreakdown struct {
	Score    float64    `json:"score"`
	MaxScore float64    `json:"max_score"`
	Details  []Activity `json:"details"`
}

// QuestionBreakdown summarises the questions category of a grading run.
type QuestionBreakdown struct {
	Score    float64    `json:"score"`
	MaxScore float64    `json:"max_score"`
	Details  []Question `json:"details"`
}

// PresentationBreakdown summarises the video presentation category. Score is
// net of the duration penalty; the penalty itself is reported for display.
type PresentationBreakdown struct {
	Score           float64 `json:"score"`
	MaxScore        float64 `json:"max_score"`
	Duration        int     `json:"duration"`
	DurationPenalty float64 `json:"duration_penalty"`
	AIReason        string  `json:"ai_reason,omitempty"`
}

// LatePenalty records the deduction applied for a late submission.
type LatePenalty struct {
	DaysLate          int     `json:"days_late"`
	PenaltyPercentage float64 `json:"penalty_percentage"`
	PenaltyPoints     float64 `json:"penalty_points"`
}

// SharingBonus records the fixed bonus points for optional promotional actions.
type SharingBonus struct {
	Discord     bool    `json:"discord"`
	SocialMedia bool    `json:"social_media"`
	BonusPoints float64 `json:"bonus_points"`
}

// GradingResult is the terminal aggregate of one grading run. Every component
// that produced the total is kept so a grade stays auditable.
type GradingResult struct {
	Activities      ActivityBreakdown     `json:"activities"`
	Questions       QuestionBreakdown     `json:"questions"`
	Presentation    PresentationBreakdown `json:"presentation"`
	LatePenalty     LatePenalty           `json:"late_penalty"`
	SharingBonus    SharingBonus          `json:"sharing_bonus"`
	TotalScore      float64               `json:"total_score"`
	MaxScore        float64               `json:"max_score"`
	FinalPercentage float64               `json:"final_percentage"`
}

// GradingRun is the persisted audit record of a completed grading run.
type GradingRun struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	TotalScore      float64        `gorm:"not null" json:"total_score"`
	MaxScore        float64        `gorm:"not null" json:"max_score"`
	FinalPercentage float64        `gorm:"not null" json:"final_percentage"`
	DaysLate        int            `gorm:"not null" json:"days_late"`
	Result          datatypes.JSON `json:"result"`
	CreatedAt       time.Time      `json:"created_at"`
}
